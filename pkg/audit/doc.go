// Package audit records project lifecycle actions for moderation review.
// Entries carry before/after renderings of the changed state; the postgres
// logger is the production sink and the memory logger serves tests.
package audit
