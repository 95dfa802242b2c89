// Package api defines the transport-neutral views shared by the IPC surface
// and CLI rendering.
package api

import "time"

// FileView is one file record inside a duplicate group.
type FileView struct {
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// DuplicateGroupView is one set of identical files, newest-first.
type DuplicateGroupView struct {
	Digest     string     `json:"digest"`
	Files      []FileView `json:"files"`
	TotalSize  int64      `json:"total_size"`
	WastedSize int64      `json:"wasted_size"`
}

// ResolutionView is the per-path outcome of a duplicate resolution.
type ResolutionView struct {
	Digest    string            `json:"digest"`
	Policy    string            `json:"policy"`
	Kept      []string          `json:"kept,omitempty"`
	Deleted   []string          `json:"deleted,omitempty"`
	Failed    map[string]string `json:"failed,omitempty"`
	Reclaimed int64             `json:"reclaimed"`
	Summary   string            `json:"summary"`
}

// HistoryRecordView is one organize-log line.
type HistoryRecordView struct {
	ID              int64     `json:"id"`
	EventID         string    `json:"event_id"`
	OriginalPath    string    `json:"original_path"`
	DestinationPath string    `json:"destination_path"`
	Category        string    `json:"category"`
	Size            int64     `json:"size"`
	OrganizedAt     time.Time `json:"organized_at"`
}
