// Package cache holds the listing caches invalidated by project lifecycle
// changes: the home project listing and the author index. Two
// implementations share the Listings interface, an in-process expirable
// LRU and a redis-backed cache for multi-instance deployments.
package cache
