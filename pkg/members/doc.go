// Package members stores role assignments and resolves effective
// permissions.
//
// An Assignment links a user to a role within a scope (a project, an
// organization, or globally). The Resolver combines a user's global base
// permissions with every accepted role in scope; permissions are always the
// union of all applicable roles. Organization membership grants a derived
// project permission view on organization-owned projects.
package members
