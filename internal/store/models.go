package store

import "time"

// FileRecord is one sighting of a digest on disk.
type FileRecord struct {
	Path       string
	Size       int64
	ModifiedAt time.Time
}

// HashEntry is the set of live file records sharing one digest. An entry
// with zero records is pruned; callers never observe one.
type HashEntry struct {
	Digest    string
	FirstSeen time.Time
	Files     []FileRecord
}

// TotalSize sums the sizes of all records in the entry.
func (e HashEntry) TotalSize() int64 {
	var total int64
	for _, f := range e.Files {
		total += f.Size
	}
	return total
}

// OrganizedRecord is one completed move, written once to the organize log.
type OrganizedRecord struct {
	ID              int64
	EventID         string
	OriginalPath    string
	DestinationPath string
	Category        string
	Size            int64
	OrganizedAt     time.Time
}

// HistoryFilter narrows organize-log queries. Zero values mean "no filter";
// a zero Limit returns the default page of 100 records.
type HistoryFilter struct {
	Limit    int
	Category string
	Since    time.Time
	Until    time.Time
}

// SweepResult summarizes one maintenance pass over the hash index.
type SweepResult struct {
	RecordsRemoved int64
	EntriesPruned  int64
}

// Counts aggregates database contents for status output.
type Counts struct {
	HashEntries     int64
	FileRecords     int64
	DuplicateGroups int64
	OrganizedTotal  int64
}
