package services

import "vantage/internal/domain"

// MergeEntries reconciles an incoming listing against the previous
// one. The result keeps the incoming entries in their incoming order,
// except that sticky derived fields (image dimensions, child counts)
// known from previous and missing from incoming are carried forward.
// Paths present only in previous are dropped: this is a full-replace
// reconciliation, not an additive one.
//
// The carry-forward exists because those fields come from a slower
// enrichment pass than the primary listing; a manual refresh must not
// visibly blank them out while they recompute.
func MergeEntries(previous, incoming []domain.FileEntry) []domain.FileEntry {
	if len(previous) == 0 {
		out := make([]domain.FileEntry, len(incoming))
		copy(out, incoming)
		return out
	}

	known := make(map[string]*domain.FileEntry, len(previous))
	for i := range previous {
		known[previous[i].Path] = &previous[i]
	}

	out := make([]domain.FileEntry, len(incoming))
	for i, entry := range incoming {
		if prev, ok := known[entry.Path]; ok {
			if entry.ImageWidth == nil && prev.ImageWidth != nil {
				entry.ImageWidth = prev.ImageWidth
			}
			if entry.ImageHeight == nil && prev.ImageHeight != nil {
				entry.ImageHeight = prev.ImageHeight
			}
			if entry.ChildCount == nil && prev.ChildCount != nil {
				entry.ChildCount = prev.ChildCount
			}
		}
		out[i] = entry
	}
	return out
}
