// Package metrics provides Prometheus metrics registry and recording utilities
// for background maintenance jobs.
//
// This package centralizes worker-side metrics including:
//   - Business metrics (users, usage records, letters generated)
//   - Maintenance job metrics (duration, errors, rows purged)
//   - Database query metrics
//
// HTTP request metrics live in the API server's handler package; the two
// registries use distinct metric names so both can share one process.
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "claim-navigator/internal/observability/metrics"
//
//	func purgeStaleUsage(ctx context.Context) {
//	    start := time.Now()
//	    deleted, err := store.DeleteBefore(ctx, cutoff)
//	    if err != nil {
//	        metrics.RecordMaintenanceJobError("usage_retention", "db_error")
//	        return
//	    }
//	    metrics.RecordUsageRecordsPurged(deleted)
//	    metrics.RecordMaintenanceJob("usage_retention", time.Since(start))
//	}
package metrics
