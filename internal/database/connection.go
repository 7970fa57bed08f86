package database

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/fpsboost/fpsboost/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	journalFile = "fpsboost.db"
	journalDir  = "fpsboost"

	// The booster writes while report and status read from another process.
	journalPragmas = "?_journal_mode=WAL&_busy_timeout=5000"
)

// DB is the boost journal: a SQLite file holding sessions and errors.
type DB struct {
	*gorm.DB
	path string
}

// GetDefaultDBPath returns ~/.config/fpsboost/fpsboost.db.
func GetDefaultDBPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to locate config directory")
	}
	return filepath.Join(configDir, journalDir, journalFile), nil
}

// Connect opens the journal at dbPath, or at the default location when
// dbPath is empty, creating the parent directory if needed.
func Connect(dbPath string) (*DB, error) {
	if dbPath == "" {
		var err error
		if dbPath, err = GetDefaultDBPath(); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create journal directory for %s", dbPath)
	}

	gdb, err := gorm.Open(sqlite.Open(dbPath+journalPragmas), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open journal %s", dbPath)
	}

	return &DB{DB: gdb, path: dbPath}, nil
}

// Path is the journal file location.
func (db *DB) Path() string {
	return db.path
}

// Initialize creates or migrates the journal tables.
func (db *DB) Initialize() error {
	if err := db.AutoMigrate(&models.BoostSession{}, &models.ErrorLog{}); err != nil {
		return errors.Wrap(err, "failed to migrate journal schema")
	}
	return nil
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get underlying sql.DB")
	}
	return sqlDB.Close()
}
