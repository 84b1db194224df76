// Package jobs implements the durable reconciliation queue that keeps
// external state (forum topics) eventually consistent with project
// lifecycle events.
//
// Jobs are enqueued inside the domain transaction that triggers them and
// polled by a fixed-interval Scheduler. Claiming is a single atomic UPDATE,
// so concurrent schedulers (a second tick or a second process) never both
// execute the same job. Delivery is at-least-once: a crash after execution
// but before the outcome is recorded causes re-execution, and executors are
// required to be idempotent. Transient failures retry with exponential
// backoff up to a configured maximum; permanent failures and exhausted
// retries land in the terminal failed state, visible to operators through
// logs and metrics.
package jobs
