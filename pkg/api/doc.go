// Package api exposes the project lifecycle and listing operations over
// HTTP. Handlers authenticate via the X-User-Id header set by the fronting
// gateway, resolve the caller's effective permissions and translate domain
// errors to stable JSON error reasons.
package api
