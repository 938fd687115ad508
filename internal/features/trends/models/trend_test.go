package models

import (
	"slices"
	"testing"
)

func TestRegionSet(t *testing.T) {
	s := NewRegionSet("Delhi", "Assam", "Delhi")
	if !slices.Equal(s, RegionSet{"Delhi", "Assam"}) {
		t.Fatalf("NewRegionSet = %v", s)
	}

	u := s.Union(RegionSet{"Goa", "Assam"})
	if !slices.Equal(u, RegionSet{"Delhi", "Assam", "Goa"}) {
		t.Errorf("Union = %v", u)
	}
	if !u.Contains("Goa") || u.Contains("Kerala") {
		t.Errorf("Contains gave wrong answers for %v", u)
	}
}

func TestTrendRecordDedupeNews(t *testing.T) {
	r := TrendRecord{
		NewsItems: []NewsItem{
			{Title: "A", Source: "X", URL: "first"},
			{Title: "A", Source: "Y"},
			{Title: "A", Source: "X", URL: "second"},
			{Title: "B", Source: "X"},
		},
	}
	original := r.NewsItems

	r.DedupeNews()

	if len(r.NewsItems) != 3 {
		t.Fatalf("expected 3 news items, got %d", len(r.NewsItems))
	}
	if r.NewsItems[0].URL != "first" {
		t.Errorf("expected the first occurrence to win, got %q", r.NewsItems[0].URL)
	}
	if original[2].URL != "second" {
		t.Error("DedupeNews modified the original backing array")
	}
}

func TestTrendRecordClone(t *testing.T) {
	r := TrendRecord{
		Title:     "term",
		NewsItems: []NewsItem{{Title: "A"}},
		Regions:   NewRegionSet("Delhi"),
		Country:   SingleCountry("India"),
	}

	c := r.Clone()
	c.NewsItems[0].Title = "changed"
	c.Regions[0] = "changed"

	if r.NewsItems[0].Title != "A" || r.Regions[0] != "Delhi" {
		t.Error("Clone shares slices with the original")
	}
}

func TestTrendRecordStripTransient(t *testing.T) {
	r := TrendRecord{Title: "t", TrafficRaw: "1,000+", TrafficValue: 1000, PublishedRaw: "Mon, 02 Jan 2006 15:04:05 -0700"}
	r.StripTransient()

	if r.TrafficRaw != "" || r.PublishedRaw != "" {
		t.Errorf("transient fields kept: %+v", r)
	}
	if r.TrafficValue != 1000 {
		t.Errorf("traffic value changed to %d", r.TrafficValue)
	}
}
