// Package postgres owns the database connection pool and the embedded
// schema migrations, applied with goose at startup.
package postgres
