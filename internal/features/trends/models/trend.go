package models

import (
	"slices"
	"time"
)

// NewsItem is one news story attached to a trending term
type NewsItem struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Source     string `json:"source"`
	PictureURL string `json:"picture"`
}

// newsKey identifies duplicate news stories within one record
type newsKey struct {
	title  string
	source string
}

func (n NewsItem) key() newsKey {
	return newsKey{title: n.Title, source: n.Source}
}

// TrendRecord is one trending search term, unique by Title within a
// country's dataset.
//
// TrafficRaw and PublishedRaw keep the feed's original text while a batch
// moves through the pipeline; they are stripped before a dataset is saved.
type TrendRecord struct {
	Title        string     `json:"title"`
	TrafficRaw   string     `json:"traffic_str,omitempty"`
	TrafficValue int64      `json:"traffic_num"`
	PublishedRaw string     `json:"pub_date_str,omitempty"`
	PublishedAt  time.Time  `json:"pub_date"`
	ImageURL     string     `json:"picture"`
	NewsItems    []NewsItem `json:"news"`
	Regions      RegionSet  `json:"regions"`
	Country      Country    `json:"country"`
}

// Clone returns a copy that shares no slices with r
func (r TrendRecord) Clone() TrendRecord {
	r.NewsItems = slices.Clone(r.NewsItems)
	r.Regions = slices.Clone(r.Regions)
	r.Country = r.Country.clone()
	return r
}

// DedupeNews drops news items whose (title, source) pair was already seen,
// keeping the first occurrence
func (r *TrendRecord) DedupeNews() {
	if len(r.NewsItems) < 2 {
		return
	}

	seen := make(map[newsKey]struct{}, len(r.NewsItems))
	unique := make([]NewsItem, 0, len(r.NewsItems))
	for _, item := range r.NewsItems {
		k := item.key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, item)
	}
	r.NewsItems = unique
}

// StripTransient removes the raw feed text that is not part of the
// persisted dataset
func (r *TrendRecord) StripTransient() {
	r.TrafficRaw = ""
	r.PublishedRaw = ""
}

// RegionSet is an insertion-ordered set of region names
type RegionSet []string

// NewRegionSet builds a set from names, dropping duplicates
func NewRegionSet(names ...string) RegionSet {
	var s RegionSet
	return s.Union(names)
}

// Contains reports whether name is in the set
func (s RegionSet) Contains(name string) bool {
	return slices.Contains(s, name)
}

// Union returns s extended with the names of other it does not hold yet
func (s RegionSet) Union(other RegionSet) RegionSet {
	for _, name := range other {
		if !s.Contains(name) {
			s = append(s, name)
		}
	}
	return s
}
