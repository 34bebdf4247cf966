package metrics

import (
	"time"
)

// RecordLetterGenerated records the result of an appeal letter generation.
// Status should be either "success" or "failure".
func RecordLetterGenerated(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	LettersGeneratedTotal.WithLabelValues(status).Inc()
}

// RecordMaintenanceJob records metrics for one maintenance job run.
// Job should name the task (e.g., "rate_window_cleanup", "usage_retention").
func RecordMaintenanceJob(job string, duration time.Duration) {
	MaintenanceJobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// RecordMaintenanceJobError records an error during a maintenance job run.
func RecordMaintenanceJobError(job, errorType string) {
	MaintenanceJobErrors.WithLabelValues(job, errorType).Inc()
}

// RecordUsageRecordsPurged records the number of usage records removed
// by the retention cleanup job.
func RecordUsageRecordsPurged(count int64) {
	if count > 0 {
		UsageRecordsPurgedTotal.Add(float64(count))
	}
}

// RecordRateWindowsPurged records the number of rate limit windows removed
// by the cleanup job.
func RecordRateWindowsPurged(count int64) {
	if count > 0 {
		RateWindowsPurgedTotal.Add(float64(count))
	}
}

// UpdateUsersTotal updates the total count of users in the database.
// This gauge should be updated periodically to reflect the current state.
func UpdateUsersTotal(count int) {
	UsersTotal.Set(float64(count))
}

// UpdateUsageRecordsTotal updates the total count of feature usage records.
// This gauge should be updated periodically to reflect the current state.
func UpdateUsageRecordsTotal(count int) {
	UsageRecordsTotal.Set(float64(count))
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
