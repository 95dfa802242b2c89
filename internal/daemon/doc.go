// Package daemon wires the watcher, organizer workers, duplicate resolver,
// and maintenance sweep into a single-instance background service.
package daemon
