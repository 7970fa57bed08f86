package models

import (
	"time"

	"gorm.io/gorm"
)

// BoostSession is one contiguous boost of a single process.
type BoostSession struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SessionID   string         `gorm:"not null;index" json:"session_id"` // Engine run that produced it
	PID         int32          `gorm:"not null" json:"pid"`
	ProcessName string         `gorm:"not null;index" json:"process_name"`
	Mode        string         `gorm:"not null" json:"mode"` // "BALANCED" or "TURBO"
	Throttled   int            `gorm:"not null;default:0" json:"throttled"`
	StartedAt   time.Time      `gorm:"not null;index" json:"started_at"`
	EndedAt     *time.Time     `json:"ended_at,omitempty"`
	Duration    int64          `gorm:"not null;default:0" json:"duration"` // Duration in seconds
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

type ProcessSummary struct {
	ProcessName   string  `json:"process_name"`
	TotalSeconds  int64   `json:"total_seconds"`
	TotalMinutes  float64 `json:"total_minutes"`
	TotalHours    float64 `json:"total_hours"`
	SessionCount  int     `json:"session_count"`
	MaxThrottled  int     `json:"max_throttled"`
	TurboSessions int     `json:"turbo_sessions"`
	Percentage    float64 `json:"percentage,omitempty"`
}

type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month"
}

type Report struct {
	Period       ReportPeriod     `json:"period"`
	Processes    []ProcessSummary `json:"processes"`
	TotalSeconds int64            `json:"total_seconds"`
	TotalMinutes float64          `json:"total_minutes"`
	TotalHours   float64          `json:"total_hours"`
	ErrorCount   int64            `json:"error_count"`
	GeneratedAt  time.Time        `json:"generated_at"`
}
