package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fpsboost/fpsboost/internal/tuner"
	"github.com/fpsboost/fpsboost/pkg/window"
)

// Config holds all application configuration
type Config struct {
	// Booster loop configuration
	Booster BoosterConfig `yaml:"booster"`

	// Process name sets
	Targets TargetsConfig `yaml:"targets"`

	// One-shot system tweaks
	Tweaks TweaksConfig `yaml:"tweaks"`

	// Journal database configuration
	Database DatabaseConfig `yaml:"database"`

	// Daemon configuration
	Daemon DaemonConfig `yaml:"daemon"`
}

// BoosterConfig holds detection and boosting behaviour
type BoosterConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval"`     // How often to check the foreground window
	MinPollInterval time.Duration `yaml:"-"`                 // Minimum allowed poll interval
	MaxPollInterval time.Duration `yaml:"-"`                 // Maximum allowed poll interval
	Turbo           bool          `yaml:"turbo"`             // Initial turbo mode
	Tolerance       int           `yaml:"tolerance"`         // Pixels a window may differ from its monitor
	RestoreOnSwitch bool          `yaml:"restore_on_switch"` // Restore the previous pid when another is boosted
	AllowList       []string      `yaml:"allow_list"`        // When set, only these processes are boosted
	ShellClasses    []string      `yaml:"shell_classes"`     // Window classes never treated as fullscreen
}

// TargetsConfig holds the background and protected process names
type TargetsConfig struct {
	Background    []string `yaml:"background"`
	Protected     []string `yaml:"protected"`
	BalancedLimit int      `yaml:"balanced_limit"` // Background processes throttled outside turbo
}

// TweaksConfig holds the power profile tweak
type TweaksConfig struct {
	PowerProfile bool     `yaml:"power_profile"`
	PowerCommand []string `yaml:"power_command"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path    string `yaml:"path"`    // Path to SQLite database file
	Journal bool   `yaml:"journal"` // Record boost sessions and errors
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string `yaml:"pid_file"` // Path to PID file for daemon management
	LogFile string `yaml:"log_file"` // Where the background process writes its log
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Booster: BoosterConfig{
			PollInterval:    700 * time.Millisecond,
			MinPollInterval: 200 * time.Millisecond,
			MaxPollInterval: 10 * time.Second,
			Turbo:           true,
			Tolerance:       window.DefaultTolerance,
			RestoreOnSwitch: true,
			ShellClasses:    append([]string(nil), window.DefaultShellClasses...),
		},
		Targets: TargetsConfig{
			Background:    append([]string(nil), tuner.DefaultBackground...),
			Protected:     append([]string(nil), tuner.DefaultProtected...),
			BalancedLimit: tuner.DefaultBalancedLimit,
		},
		Tweaks: TweaksConfig{
			PowerProfile: true,
			PowerCommand: append([]string(nil), tuner.DefaultPowerCommand...),
		},
		Database: DatabaseConfig{
			Path:    "", // Empty means use default ~/.config/fpsboost/fpsboost.db
			Journal: true,
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/fpsboost-%d.pid", os.Getuid()),
			LogFile: fmt.Sprintf("/tmp/fpsboost-%d.log", os.Getuid()),
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Booster.PollInterval < c.Booster.MinPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be less than minimum (%v)",
			c.Booster.PollInterval, c.Booster.MinPollInterval)
	}

	if c.Booster.PollInterval > c.Booster.MaxPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be greater than maximum (%v)",
			c.Booster.PollInterval, c.Booster.MaxPollInterval)
	}

	if c.Booster.Tolerance < 0 {
		return fmt.Errorf("tolerance cannot be negative, got %d", c.Booster.Tolerance)
	}

	if c.Targets.BalancedLimit < 1 {
		return fmt.Errorf("balanced limit must be at least 1, got %d", c.Targets.BalancedLimit)
	}

	if overlap := c.overlap(); len(overlap) > 0 {
		return fmt.Errorf("processes listed as both background and protected: %s", strings.Join(overlap, ", "))
	}

	if c.Tweaks.PowerProfile && len(c.Tweaks.PowerCommand) == 0 {
		return fmt.Errorf("power profile tweak enabled without a command")
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	return nil
}

func (c *Config) overlap() []string {
	return tuner.NewTargets(c.Targets.Background, c.Targets.Protected).Overlap()
}

// SetPollInterval sets the poll interval with validation
func (c *Config) SetPollInterval(interval time.Duration) error {
	if interval < c.Booster.MinPollInterval {
		return fmt.Errorf("poll interval cannot be less than %v", c.Booster.MinPollInterval)
	}
	if interval > c.Booster.MaxPollInterval {
		return fmt.Errorf("poll interval cannot be greater than %v", c.Booster.MaxPollInterval)
	}
	c.Booster.PollInterval = interval
	return nil
}

// SetTolerance sets the fullscreen tolerance with validation
func (c *Config) SetTolerance(pixels int) error {
	if pixels < 0 {
		return fmt.Errorf("tolerance cannot be negative, got %d", pixels)
	}
	c.Booster.Tolerance = pixels
	return nil
}

// SetBalancedLimit sets how many background processes balanced mode throttles
func (c *Config) SetBalancedLimit(limit int) error {
	if limit < 1 {
		return fmt.Errorf("balanced limit must be at least 1, got %d", limit)
	}
	c.Targets.BalancedLimit = limit
	return nil
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Booster:
    Poll Interval: %v
    Turbo: %v
    Tolerance: %dpx
    Restore On Switch: %v
    Allow List: %s
  Targets:
    Background: %d names
    Protected: %d names
    Balanced Limit: %d
  Tweaks:
    Power Profile: %v (%s)
  Database:
    Path: %s
    Journal: %v
  Daemon:
    PID File: %s
    Log File: %s`,
		c.Booster.PollInterval,
		c.Booster.Turbo,
		c.Booster.Tolerance,
		c.Booster.RestoreOnSwitch,
		listOrNone(c.Booster.AllowList),
		len(c.Targets.Background),
		len(c.Targets.Protected),
		c.Targets.BalancedLimit,
		c.Tweaks.PowerProfile,
		strings.Join(c.Tweaks.PowerCommand, " "),
		c.Database.Path,
		c.Database.Journal,
		c.Daemon.PIDFile,
		c.Daemon.LogFile,
	)
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
