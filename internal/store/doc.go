// Package store persists the content-hash index and the append-only
// organize log in a single SQLite database. The database is the shared
// resource between the organizer pipeline and the duplicate resolver;
// writers go through busy-retry helpers so the two never corrupt each
// other at expected scale.
package store
