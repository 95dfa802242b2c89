package ipc

import "tidy/internal/api"

// StartRequest asks the daemon to begin watching and organizing.
type StartRequest struct{}

// StartResponse reports the outcome of a start request.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest asks the daemon to stop processing.
type StopRequest struct{}

// StopResponse reports the outcome of a stop request.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest asks for daemon runtime information.
type StatusRequest struct{}

// StatusResponse carries daemon runtime information.
type StatusResponse struct {
	Running         bool             `json:"running"`
	PID             int              `json:"pid"`
	StartedAt       string           `json:"started_at,omitempty"`
	WatchDir        string           `json:"watch_dir"`
	LibraryDir      string           `json:"library_dir"`
	DBPath          string           `json:"db_path"`
	LockPath        string           `json:"lock_path"`
	DBRecovered     bool             `json:"db_recovered"`
	Organized       int64            `json:"organized"`
	Skipped         int64            `json:"skipped"`
	Failed          int64            `json:"failed"`
	HashEntries     int64            `json:"hash_entries"`
	FileRecords     int64            `json:"file_records"`
	DuplicateGroups int64            `json:"duplicate_groups"`
	OrganizedTotal  int64            `json:"organized_total"`
	CategoryCounts  map[string]int64 `json:"category_counts,omitempty"`
}

// DupesListRequest asks for the current duplicate groups.
type DupesListRequest struct{}

// DupesListResponse carries every duplicate group, most wasteful first.
type DupesListResponse struct {
	Groups []api.DuplicateGroupView `json:"groups"`
}

// DupesResolveRequest applies a resolution policy to one group. Paths names
// the copies to delete under the delete-paths policy.
type DupesResolveRequest struct {
	Digest string   `json:"digest"`
	Policy string   `json:"policy"`
	Paths  []string `json:"paths,omitempty"`
}

// DupesResolveResponse carries the per-path resolution outcome.
type DupesResolveResponse struct {
	Resolution api.ResolutionView `json:"resolution"`
}

// HistoryRequest queries the organize log, newest-first.
type HistoryRequest struct {
	Limit    int    `json:"limit,omitempty"`
	Category string `json:"category,omitempty"`
	// Since and Until are RFC 3339 timestamps; empty means unbounded.
	Since string `json:"since,omitempty"`
	Until string `json:"until,omitempty"`
}

// HistoryResponse carries matching organize-log records.
type HistoryResponse struct {
	Records []api.HistoryRecordView `json:"records"`
}

// WatchedRequest asks for the monitored root and routing snapshot.
type WatchedRequest struct{}

// WatchedResponse describes the monitored root and routing snapshot.
type WatchedResponse struct {
	Root       string   `json:"root"`
	DebounceMs int64    `json:"debounce_ms"`
	Categories []string `json:"categories"`
	Fallback   string   `json:"fallback"`
}

// ReloadRequest re-reads the config file and applies routes and ignore rules.
type ReloadRequest struct{}

// ReloadResponse reports the outcome of a reload.
type ReloadResponse struct {
	Reloaded bool   `json:"reloaded"`
	Message  string `json:"message,omitempty"`
}

// LogTailRequest reads daemon log lines. A negative Offset requests the last
// Lines lines; later calls pass the returned offset back for incremental reads.
type LogTailRequest struct {
	Offset int64 `json:"offset"`
	Lines  int   `json:"lines,omitempty"`
	Follow bool  `json:"follow,omitempty"`
	WaitMs int64 `json:"wait_ms,omitempty"`
}

// LogTailResponse carries log lines and the offset to resume from.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// RescanRequest re-hashes the library into the hash database.
type RescanRequest struct{}

// RescanResponse reports how many files the rescan indexed.
type RescanResponse struct {
	Indexed int64 `json:"indexed"`
}
