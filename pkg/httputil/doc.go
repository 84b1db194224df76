// Package httputil provides HTTP middleware shared by the API and ops
// servers: structured request logging and panic recovery.
package httputil
