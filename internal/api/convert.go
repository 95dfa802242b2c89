package api

import (
	"tidy/internal/dupes"
	"tidy/internal/store"
)

// ShortDigestLen is the digest prefix length shown in human output. Long
// enough to paste back into resolve commands unambiguously.
const ShortDigestLen = 12

// ShortDigest abbreviates a content digest for display.
func ShortDigest(digest string) string {
	if len(digest) <= ShortDigestLen {
		return digest
	}
	return digest[:ShortDigestLen]
}

// FromDuplicateGroup converts a resolver group into its transport view.
func FromDuplicateGroup(group dupes.Group) DuplicateGroupView {
	view := DuplicateGroupView{
		Digest:     group.Digest,
		TotalSize:  group.TotalSize,
		WastedSize: group.WastedSize,
		Files:      make([]FileView, 0, len(group.Files)),
	}
	for _, rec := range group.Files {
		view.Files = append(view.Files, FileView{
			Path:       rec.Path,
			Size:       rec.Size,
			ModifiedAt: rec.ModifiedAt,
		})
	}
	return view
}

// FromResolution converts a resolver outcome into its transport view.
func FromResolution(res *dupes.Resolution) ResolutionView {
	view := ResolutionView{
		Digest:    res.Digest,
		Policy:    string(res.Policy),
		Kept:      res.Kept,
		Deleted:   res.Deleted,
		Reclaimed: res.Reclaimed,
		Summary:   res.Summary(),
	}
	if len(res.Failed) > 0 {
		view.Failed = make(map[string]string, len(res.Failed))
		for _, failure := range res.Failed {
			view.Failed[failure.Path] = failure.Err.Error()
		}
	}
	return view
}

// FromOrganizedRecord converts an organize-log record into its transport view.
func FromOrganizedRecord(rec store.OrganizedRecord) HistoryRecordView {
	return HistoryRecordView{
		ID:              rec.ID,
		EventID:         rec.EventID,
		OriginalPath:    rec.OriginalPath,
		DestinationPath: rec.DestinationPath,
		Category:        rec.Category,
		Size:            rec.Size,
		OrganizedAt:     rec.OrganizedAt,
	}
}
