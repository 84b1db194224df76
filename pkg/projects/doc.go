// Package projects holds the project model and the lifecycle orchestrator.
//
// The Factory composes the persistence stores, the membership service, the
// job queue and the file-area provisioner into the create, rename and
// delete operations. Row, channel, membership, page and job writes share
// one database transaction; the on-disk file area is outside it and is
// compensated with a manual delete when a later step fails. Name handling
// is deterministic: Compact normalizes whitespace, Slugify derives the
// URL-safe form, and (owner, name) / (owner, slug) are unique per owner.
package projects
