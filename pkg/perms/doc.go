// Package perms defines the platform's closed permission enumeration and the
// role tables built on top of it.
//
// Permission is a pure value type: a 128-bit flag set supporting union,
// containment and intersection. Roles are immutable data records grouped
// into three categories (global, project, organization) and registered into
// a read-only Registry during process startup. Organization roles layer the
// matching project-role permissions plus organization-specific flags, and
// every organization role has an explicit project permission view used when
// an organization member touches an organization-owned project.
//
// This package has no I/O and no dependencies outside the standard library.
package perms
