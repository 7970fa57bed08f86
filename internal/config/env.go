package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFromEnv loads configuration from environment variables
// Environment variables override file and default values
func LoadFromEnv(cfg *Config) {
	// Database configuration
	if dbPath := os.Getenv("FPSBOOST_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if journal := os.Getenv("FPSBOOST_JOURNAL"); journal != "" {
		if val, err := strconv.ParseBool(journal); err == nil {
			cfg.Database.Journal = val
		}
	}

	// Booster configuration
	if pollInterval := os.Getenv("FPSBOOST_POLL_INTERVAL"); pollInterval != "" {
		if interval, ok := parseInterval(pollInterval); ok {
			if interval >= cfg.Booster.MinPollInterval && interval <= cfg.Booster.MaxPollInterval {
				cfg.Booster.PollInterval = interval
			} else {
				log.Printf("Ignoring FPSBOOST_POLL_INTERVAL=%s: outside %v..%v",
					pollInterval, cfg.Booster.MinPollInterval, cfg.Booster.MaxPollInterval)
			}
		}
	}

	if turbo := os.Getenv("FPSBOOST_TURBO"); turbo != "" {
		if val, err := strconv.ParseBool(turbo); err == nil {
			cfg.Booster.Turbo = val
		}
	}

	if tolerance := os.Getenv("FPSBOOST_TOLERANCE"); tolerance != "" {
		if px, err := strconv.Atoi(tolerance); err == nil && px >= 0 {
			cfg.Booster.Tolerance = px
		}
	}

	if restore := os.Getenv("FPSBOOST_RESTORE_ON_SWITCH"); restore != "" {
		if val, err := strconv.ParseBool(restore); err == nil {
			cfg.Booster.RestoreOnSwitch = val
		}
	}

	if allow := os.Getenv("FPSBOOST_ALLOW_LIST"); allow != "" {
		cfg.Booster.AllowList = splitList(allow)
	}

	// Targets configuration
	if limit := os.Getenv("FPSBOOST_BALANCED_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			cfg.Targets.BalancedLimit = n
		}
	}

	// Tweaks configuration
	if power := os.Getenv("FPSBOOST_POWER_TWEAK"); power != "" {
		if val, err := strconv.ParseBool(power); err == nil {
			cfg.Tweaks.PowerProfile = val
		}
	}

	// Daemon configuration
	if pidFile := os.Getenv("FPSBOOST_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}
}

// parseInterval accepts a Go duration ("700ms") or plain seconds ("2", "0.5").
func parseInterval(s string) (time.Duration, bool) {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d, true
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second)), true
	}
	return 0, false
}

func splitList(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, strings.ToLower(name))
		}
	}
	return names
}

// New creates a Config from defaults, the config file if present, and the
// environment. A broken config file is logged and ignored.
func New() *Config {
	cfg, err := Load()
	if err != nil {
		log.Printf("Ignoring config file: %v", err)
		cfg = Default()
		LoadFromEnv(cfg)
	}
	return cfg
}
