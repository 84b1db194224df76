// Package async provides safe fire-and-forget goroutine execution for
// background work such as cache invalidation, where the caller consumes no
// result and must not crash on a panic in the task.
package async
