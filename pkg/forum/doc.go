// Package forum syncs project state to the external discussion forum.
//
// The Client speaks a Discourse-style REST API; the Executors adapt it to
// the job scheduler, reloading the project snapshot at execution time.
// Error classification drives retries: network failures and 5xx answers
// are transient, 4xx answers are permanent, and a 404 on delete or a
// missing project on update is treated as success because the desired end
// state already holds.
package forum
