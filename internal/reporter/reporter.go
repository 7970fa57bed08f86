package reporter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fpsboost/fpsboost/internal/database"
	"github.com/fpsboost/fpsboost/internal/models"
	"github.com/fpsboost/fpsboost/pkg/utils"
)

// Reporter summarizes boosted time per process
type Reporter struct {
	repo *database.Repository
}

// New creates a new reporter
func New(repo *database.Repository) *Reporter {
	return &Reporter{repo: repo}
}

// GenerateReport generates a report for the specified period ending now
func (r *Reporter) GenerateReport(periodType string) (*models.Report, error) {
	return r.GenerateReportAt(periodType, time.Now())
}

// GenerateReportAt generates a report for the period containing now
func (r *Reporter) GenerateReportAt(periodType string, now time.Time) (*models.Report, error) {
	period, err := GetPeriod(periodType, now)
	if err != nil {
		return nil, err
	}

	// SQL does the SUM, runtime derives the rest
	summaries, err := r.repo.GetProcessSummarySince(period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to get process summary: %w", err)
	}

	var totalSeconds int64
	for i := range summaries {
		summaries[i].TotalMinutes = float64(summaries[i].TotalSeconds) / 60.0
		summaries[i].TotalHours = float64(summaries[i].TotalSeconds) / 3600.0
		totalSeconds += summaries[i].TotalSeconds
	}

	if totalSeconds > 0 {
		for i := range summaries {
			summaries[i].Percentage = (float64(summaries[i].TotalSeconds) / float64(totalSeconds)) * 100.0
		}
	}

	errorCount, err := r.repo.CountErrorsSince(period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to count errors: %w", err)
	}

	report := &models.Report{
		Period:       *period,
		Processes:    summaries,
		TotalSeconds: totalSeconds,
		TotalMinutes: float64(totalSeconds) / 60.0,
		TotalHours:   float64(totalSeconds) / 3600.0,
		ErrorCount:   errorCount,
		GeneratedAt:  now,
	}

	return report, nil
}

// GetPeriod calculates the time range for the report
func GetPeriod(periodType string, now time.Time) (*models.ReportPeriod, error) {
	var start, end time.Time

	switch periodType {
	case "day", "today":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 0, 1)

	case "week":
		// Start of week (Monday)
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday = 7
		}
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)

	default:
		return nil, fmt.Errorf("invalid period type: %s (valid: day, week, month)", periodType)
	}

	return &models.ReportPeriod{
		Start: start,
		End:   end,
		Type:  periodType,
	}, nil
}

// FormatReportText formats the report as human-readable text
func (r *Reporter) FormatReportText(report *models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Boost Report - %s\n", report.Period.Type)
	fmt.Fprintf(&b, "Period: %s to %s\n",
		report.Period.Start.Format("2006-01-02 15:04"),
		report.Period.End.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Boosted Time: %s (%.0fm)\n", utils.FormatRoundedUnit(report.TotalSeconds), report.TotalMinutes)
	if report.ErrorCount > 0 {
		fmt.Fprintf(&b, "Errors: %d (see fpsboost status)\n", report.ErrorCount)
	}
	b.WriteString("\n")

	if len(report.Processes) == 0 {
		b.WriteString("No boosts recorded for this period.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%-30s %8s %8s %9s %8s %8s\n", "Process", "Time", "Sessions", "Turbo", "Max Bg", "Percent")
	b.WriteString(strings.Repeat("-", 80) + "\n")

	for _, p := range report.Processes {
		fmt.Fprintf(&b, "%-30s %8s %8d %9d %8d %7.1f%%\n",
			utils.Truncate(p.ProcessName, 30),
			utils.FormatRoundedUnit(p.TotalSeconds),
			p.SessionCount,
			p.TurboSessions,
			p.MaxThrottled,
			p.Percentage)
	}

	return b.String()
}

// FormatReportJSON formats the report as JSON
func (r *Reporter) FormatReportJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}
