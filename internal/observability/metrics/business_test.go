package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// The collectors are package globals, so tests assert deltas rather
// than absolute values.

func TestRecordLetterGenerated(t *testing.T) {
	successBefore := testutil.ToFloat64(LettersGeneratedTotal.WithLabelValues("success"))
	failureBefore := testutil.ToFloat64(LettersGeneratedTotal.WithLabelValues("failure"))

	RecordLetterGenerated(true)
	RecordLetterGenerated(true)
	RecordLetterGenerated(false)

	assert.Equal(t, successBefore+2, testutil.ToFloat64(LettersGeneratedTotal.WithLabelValues("success")))
	assert.Equal(t, failureBefore+1, testutil.ToFloat64(LettersGeneratedTotal.WithLabelValues("failure")))
}

func TestRecordMaintenanceJob(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordMaintenanceJob("rate_window_cleanup", 50*time.Millisecond)
		RecordMaintenanceJob("usage_retention", 2*time.Second)
		RecordMaintenanceJob("rate_window_cleanup", 0)
	})
}

func TestRecordMaintenanceJobError(t *testing.T) {
	before := testutil.ToFloat64(MaintenanceJobErrors.WithLabelValues("usage_retention", "db_error"))

	RecordMaintenanceJobError("usage_retention", "db_error")
	RecordMaintenanceJobError("rate_window_cleanup", "timeout")

	assert.Equal(t, before+1, testutil.ToFloat64(MaintenanceJobErrors.WithLabelValues("usage_retention", "db_error")))
}

func TestRecordPurgeCounters(t *testing.T) {
	usageBefore := testutil.ToFloat64(UsageRecordsPurgedTotal)
	windowsBefore := testutil.ToFloat64(RateWindowsPurgedTotal)

	RecordUsageRecordsPurged(42)
	RecordRateWindowsPurged(7)

	// Zero and negative counts are no-ops, not panics.
	RecordUsageRecordsPurged(0)
	RecordUsageRecordsPurged(-1)
	RecordRateWindowsPurged(-1)

	assert.Equal(t, usageBefore+42, testutil.ToFloat64(UsageRecordsPurgedTotal))
	assert.Equal(t, windowsBefore+7, testutil.ToFloat64(RateWindowsPurgedTotal))
}

func TestUpdateGauges(t *testing.T) {
	UpdateUsersTotal(100)
	UpdateUsageRecordsTotal(250)

	assert.Equal(t, float64(100), testutil.ToFloat64(UsersTotal))
	assert.Equal(t, float64(250), testutil.ToFloat64(UsageRecordsTotal))

	UpdateUsersTotal(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(UsersTotal))
}

func TestRecordOperationDuration(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordOperationDuration("select_usage", 10*time.Millisecond)
		RecordOperationDuration("delete_stale_windows", 5*time.Millisecond)
	})
}

func TestUpdateDBConnectionStats(t *testing.T) {
	UpdateDBConnectionStats(5, 10)

	assert.Equal(t, float64(5), testutil.ToFloat64(DBConnectionsActive))
	assert.Equal(t, float64(10), testutil.ToFloat64(DBConnectionsIdle))
}
