package database

import (
	"time"

	"github.com/fpsboost/fpsboost/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// Repository handles all database operations for boost sessions and errors
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateSession inserts a new boost session into the database
func (r *Repository) CreateSession(session *models.BoostSession) error {
	result := r.db.Create(session)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert boost session")
	}
	return nil
}

// EndSession stamps the end time and final duration of a session
func (r *Repository) EndSession(id uint, endedAt time.Time, duration int64) error {
	result := r.db.Model(&models.BoostSession{}).Where("id = ?", id).Updates(map[string]interface{}{
		"ended_at": endedAt,
		"duration": duration,
	})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to end boost session")
	}
	if result.RowsAffected == 0 {
		return errors.Errorf("boost session %d not found", id)
	}
	return nil
}

// UpdateDuration updates only the duration field of a session
func (r *Repository) UpdateDuration(id uint, duration int64) error {
	result := r.db.Model(&models.BoostSession{}).Where("id = ?", id).Update("duration", duration)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update session duration")
	}
	return nil
}

// UpdateThrottled records the largest throttle count seen during a session
func (r *Repository) UpdateThrottled(id uint, throttled int) error {
	result := r.db.Model(&models.BoostSession{}).
		Where("id = ? AND throttled < ?", id, throttled).
		Update("throttled", throttled)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update throttled count")
	}
	return nil
}

// GetSessionByID retrieves a boost session by its ID
func (r *Repository) GetSessionByID(id uint) (*models.BoostSession, error) {
	var session models.BoostSession
	result := r.db.First(&session, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, errors.Wrap(result.Error, "failed to get boost session")
	}
	return &session, nil
}

// GetSessionsSince retrieves all sessions started since a given time
func (r *Repository) GetSessionsSince(since time.Time) ([]*models.BoostSession, error) {
	var sessions []*models.BoostSession
	result := r.db.Where("started_at >= ?", since).Order("started_at ASC").Find(&sessions)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query boost sessions")
	}

	return sessions, nil
}

// GetProcessSummarySince returns boosted time per process since a given time
func (r *Repository) GetProcessSummarySince(since time.Time) ([]models.ProcessSummary, error) {
	var summaries []models.ProcessSummary

	result := r.db.Model(&models.BoostSession{}).
		Select("process_name, SUM(duration) as total_seconds, COUNT(*) as session_count, " +
			"MAX(throttled) as max_throttled, SUM(CASE WHEN mode = 'TURBO' THEN 1 ELSE 0 END) as turbo_sessions").
		Where("started_at >= ?", since).
		Group("process_name").
		Order("total_seconds DESC").
		Scan(&summaries)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query process summary")
	}

	return summaries, nil
}

// CloseOpenSessions ends sessions left open by a process that exited
// without stopping cleanly. Their end is taken as start plus the recorded
// duration.
func (r *Repository) CloseOpenSessions() (int64, error) {
	var open []*models.BoostSession
	if err := r.db.Where("ended_at IS NULL").Find(&open).Error; err != nil {
		return 0, errors.Wrap(err, "failed to query open sessions")
	}

	for _, s := range open {
		end := s.StartedAt.Add(time.Duration(s.Duration) * time.Second)
		if err := r.EndSession(s.ID, end, s.Duration); err != nil {
			return 0, err
		}
	}
	return int64(len(open)), nil
}

// GetLatest retrieves the most recent boost session
func (r *Repository) GetLatest() (*models.BoostSession, error) {
	var session models.BoostSession
	result := r.db.Order("started_at DESC").First(&session)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest session")
	}
	return &session, nil
}

// DeleteOldSessions deletes sessions older than a specified date (soft delete)
func (r *Repository) DeleteOldSessions(before time.Time) (int64, error) {
	result := r.db.Where("started_at < ?", before).Delete(&models.BoostSession{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old sessions")
	}
	return result.RowsAffected, nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// CountErrorsSince counts error logs since a given time
func (r *Repository) CountErrorsSince(since time.Time) (int64, error) {
	var count int64
	result := r.db.Model(&models.ErrorLog{}).Where("timestamp >= ?", since).Count(&count)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to count error logs")
	}
	return count, nil
}

// GetErrorsSince retrieves error logs since a given time, newest first
func (r *Repository) GetErrorsSince(since time.Time, limit int) ([]*models.ErrorLog, error) {
	var logs []*models.ErrorLog
	result := r.db.Where("timestamp >= ?", since).Order("timestamp DESC").Limit(limit).Find(&logs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query error logs")
	}
	return logs, nil
}

// Clear removes all sessions and error logs from the database
func (r *Repository) Clear() error {
	for _, table := range []string{"boost_sessions", "error_logs"} {
		if result := r.db.Exec("DELETE FROM " + table); result.Error != nil {
			return errors.Wrapf(result.Error, "failed to clear %s", table)
		}
	}
	return nil
}
