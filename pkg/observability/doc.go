// Package observability provides structured logging, Prometheus metrics,
// health probes, and graceful shutdown for the platform backend.
//
// Logging uses stdlib slog with a JSON handler. Metrics cover the job
// queue, project lifecycle operations, the forum client, caches, and the
// database pool; they are exposed via promhttp on the ops server. Job
// failures are invisible to end users synchronously, so the metrics and
// error logs here are the operator's only window into them.
package observability
