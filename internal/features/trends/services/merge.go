package services

import (
	"trendwatch/internal/features/trends/models"
)

// MergeRecords folds a freshly fetched batch into an existing dataset by
// title and returns the extended dataset.
//
// For a title already present, regions and country attribution are unioned,
// traffic and publication time keep the maximum seen, a missing image is
// filled in and news items are appended. New titles are appended as copies,
// so later merges never write through to the batch. Afterwards every
// record's news list is deduplicated by (title, source).
//
// existing is consumed: its records may be modified in place and callers
// must continue with the returned slice.
//
// Batches must be merged oldest first: "highest traffic" and "most recent"
// are only monotonic over call order.
func MergeRecords(fresh, existing []models.TrendRecord) []models.TrendRecord {
	merged := make([]models.TrendRecord, 0, len(existing)+len(fresh))
	index := make(map[string]int, len(existing)+len(fresh))

	// existing datasets written by older versions may repeat a title; the
	// duplicates are folded into the first occurrence
	for _, record := range existing {
		if i, ok := index[record.Title]; ok {
			mergeInto(&merged[i], record)
			continue
		}
		index[record.Title] = len(merged)
		merged = append(merged, record)
	}

	for _, record := range fresh {
		if i, ok := index[record.Title]; ok {
			mergeInto(&merged[i], record)
			continue
		}
		index[record.Title] = len(merged)
		merged = append(merged, record.Clone())
	}

	for i := range merged {
		merged[i].DedupeNews()
	}

	return merged
}

func mergeInto(dst *models.TrendRecord, src models.TrendRecord) {
	dst.Regions = dst.Regions.Union(src.Regions)
	dst.Country = dst.Country.Union(src.Country)

	if src.TrafficValue > dst.TrafficValue {
		dst.TrafficValue = src.TrafficValue
		dst.TrafficRaw = src.TrafficRaw
	}

	if src.PublishedAt.After(dst.PublishedAt) {
		dst.PublishedAt = src.PublishedAt
		dst.PublishedRaw = src.PublishedRaw
	}

	if dst.ImageURL == "" && src.ImageURL != "" {
		dst.ImageURL = src.ImageURL
	}

	dst.NewsItems = append(dst.NewsItems, src.NewsItems...)
}
