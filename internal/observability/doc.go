// Package observability groups the cross-cutting telemetry packages:
// structured logging (logging), Prometheus metric registration and
// business counters (metrics), SLO gauges (slo), and OpenTelemetry
// HTTP tracing (tracing). Handlers and the maintenance worker import
// the subpackages directly; nothing lives at this level.
package observability
