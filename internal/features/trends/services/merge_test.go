package services

import (
	"encoding/json"
	"slices"
	"testing"
	"time"

	"trendwatch/internal/features/trends/models"
)

func record(title string, traffic int64, region, country string) models.TrendRecord {
	return models.TrendRecord{
		Title:        title,
		TrafficValue: traffic,
		PublishedAt:  time.Date(2024, 10, 14, 10, 0, 0, 0, time.UTC),
		NewsItems:    []models.NewsItem{},
		Regions:      models.NewRegionSet(region),
		Country:      models.SingleCountry(country),
	}
}

func TestMergeScenario(t *testing.T) {
	first := MergeRecords([]models.TrendRecord{
		record("Topic A", 1000, "R1", "India"),
		record("Topic B", 500, "R1", "India"),
	}, nil)

	if len(first) != 2 {
		t.Fatalf("expected 2 records, got %d", len(first))
	}
	if first[0].TrafficValue != 1000 || first[1].TrafficValue != 500 {
		t.Errorf("unexpected traffic: %d, %d", first[0].TrafficValue, first[1].TrafficValue)
	}
	for _, r := range first {
		if len(r.Regions) != 1 {
			t.Errorf("%s: expected one region, got %v", r.Title, r.Regions)
		}
	}

	second := MergeRecords([]models.TrendRecord{record("Topic A", 2000, "R2", "India")}, first)

	if len(second) != 2 {
		t.Fatalf("expected 2 records, got %d", len(second))
	}
	a := second[0]
	if a.Title != "Topic A" || a.TrafficValue != 2000 {
		t.Errorf("unexpected merged record: %+v", a)
	}
	if !slices.Equal(a.Regions, models.RegionSet{"R1", "R2"}) {
		t.Errorf("regions = %v, want [R1 R2]", a.Regions)
	}
	if name, ok := a.Country.Single(); !ok || name != "India" {
		t.Errorf("same country should stay single, got %v", a.Country)
	}
}

func TestMergeKeepsMaximums(t *testing.T) {
	early := time.Date(2024, 10, 14, 8, 0, 0, 0, time.UTC)
	late := time.Date(2024, 10, 14, 12, 0, 0, 0, time.UTC)

	existing := record("T", 5000, "R1", "India")
	existing.TrafficRaw = "5,000+"
	existing.PublishedAt = late

	fresh := record("T", 200, "R2", "India")
	fresh.TrafficRaw = "200+"
	fresh.PublishedAt = early
	fresh.ImageURL = "https://img/t.jpg"

	merged := MergeRecords([]models.TrendRecord{fresh}, []models.TrendRecord{existing})
	m := merged[0]

	if m.TrafficValue != 5000 || m.TrafficRaw != "5,000+" {
		t.Errorf("lower traffic replaced the maximum: %d %q", m.TrafficValue, m.TrafficRaw)
	}
	if !m.PublishedAt.Equal(late) {
		t.Errorf("older date replaced the latest: %v", m.PublishedAt)
	}
	if m.ImageURL != "https://img/t.jpg" {
		t.Errorf("missing image was not filled in: %q", m.ImageURL)
	}

	// equal traffic keeps the existing text
	tie := record("T", 5000, "R3", "India")
	tie.TrafficRaw = "5000"
	merged = MergeRecords([]models.TrendRecord{tie}, merged)
	if merged[0].TrafficRaw != "5,000+" {
		t.Errorf("a tie replaced the traffic text: %q", merged[0].TrafficRaw)
	}
}

func TestMergeComparesInstants(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+30*60)

	existing := record("T", 1, "R1", "India")
	existing.PublishedAt = time.Date(2024, 10, 14, 15, 0, 0, 0, ist) // 09:30 UTC

	fresh := record("T", 1, "R2", "India")
	fresh.PublishedAt = time.Date(2024, 10, 14, 10, 0, 0, 0, time.UTC)

	merged := MergeRecords([]models.TrendRecord{fresh}, []models.TrendRecord{existing})
	if !merged[0].PublishedAt.Equal(fresh.PublishedAt) {
		t.Errorf("PublishedAt = %v, want %v", merged[0].PublishedAt, fresh.PublishedAt)
	}
}

func TestMergeWidensCountry(t *testing.T) {
	merged := MergeRecords(
		[]models.TrendRecord{record("T", 1, "Bangkok", "Thailand")},
		[]models.TrendRecord{record("T", 1, "Hanoi", "Vietnam")},
	)

	c := merged[0].Country
	if !c.IsMultiple() || !slices.Equal(c.Names(), []string{"Thailand", "Vietnam"}) {
		t.Errorf("country = %v, want [Thailand Vietnam]", c)
	}

	absent := record("T", 1, "X", "")
	merged = MergeRecords([]models.TrendRecord{absent}, merged)
	if !slices.Equal(merged[0].Country.Names(), []string{"Thailand", "Vietnam"}) {
		t.Errorf("an absent country changed the attribution: %v", merged[0].Country)
	}
}

func TestMergeDedupesNews(t *testing.T) {
	existing := record("T", 1, "R1", "India")
	existing.NewsItems = []models.NewsItem{
		{Title: "Story", Source: "Paper", URL: "old"},
		{Title: "Story", Source: "Paper", URL: "dup"},
	}
	other := record("U", 1, "R1", "India")
	other.NewsItems = []models.NewsItem{{Title: "A", Source: "B"}, {Title: "A", Source: "B"}}

	fresh := record("T", 1, "R2", "India")
	fresh.NewsItems = []models.NewsItem{
		{Title: "Story", Source: "Paper", URL: "new"},
		{Title: "Story", Source: "Wire"},
	}

	merged := MergeRecords([]models.TrendRecord{fresh}, []models.TrendRecord{existing, other})

	news := merged[0].NewsItems
	if len(news) != 2 {
		t.Fatalf("expected 2 news items, got %+v", news)
	}
	if news[0].URL != "old" || news[1].Source != "Wire" {
		t.Errorf("unexpected news order: %+v", news)
	}

	// untouched records are deduplicated too
	if len(merged[1].NewsItems) != 1 {
		t.Errorf("expected untouched record news to be deduplicated, got %+v", merged[1].NewsItems)
	}
}

func TestMergeFoldsDuplicateTitles(t *testing.T) {
	batch := []models.TrendRecord{
		record("T", 100, "R1", "India"),
		record("T", 300, "R2", "India"),
	}

	merged := MergeRecords(batch, nil)
	if len(merged) != 1 {
		t.Fatalf("expected titles to stay unique, got %d records", len(merged))
	}
	if merged[0].TrafficValue != 300 || !slices.Equal(merged[0].Regions, models.RegionSet{"R1", "R2"}) {
		t.Errorf("unexpected folded record: %+v", merged[0])
	}

	// the batch itself is not modified
	if batch[0].TrafficValue != 100 || len(batch[0].Regions) != 1 {
		t.Errorf("merge wrote through to the batch: %+v", batch[0])
	}

	merged = MergeRecords(nil, []models.TrendRecord{record("X", 1, "R1", "C"), record("X", 2, "R2", "C")})
	if len(merged) != 1 || merged[0].TrafficValue != 2 {
		t.Errorf("duplicates in an existing dataset were not folded: %+v", merged)
	}
}

func TestMergeIdempotent(t *testing.T) {
	batch := []models.TrendRecord{
		record("A", 10, "R2", "France"),
		record("B", 20, "R2", "Vietnam"),
	}
	batch[0].NewsItems = []models.NewsItem{{Title: "n", Source: "s"}}

	existing := []models.TrendRecord{record("A", 5, "R1", "India"), record("C", 1, "R1", "India")}

	once := MergeRecords(batch, existing)
	onceJSON := mustJSON(t, once)

	twice := MergeRecords(batch, once)
	if got := mustJSON(t, twice); got != onceJSON {
		t.Errorf("merging the same batch twice changed the result:\n%s\nvs\n%s", onceJSON, got)
	}
}

func TestMergeMonotonic(t *testing.T) {
	existing := []models.TrendRecord{record("A", 500, "R1", "India"), record("B", 50, "R1", "India")}
	before := map[string]models.TrendRecord{}
	for _, r := range existing {
		before[r.Title] = r.Clone()
	}

	batch := []models.TrendRecord{record("A", 100, "R2", "India"), record("B", 900, "R1", "India")}
	merged := MergeRecords(batch, existing)

	for _, r := range merged {
		old := before[r.Title]
		if len(r.Regions) < len(old.Regions) {
			t.Errorf("%s: regions shrank from %v to %v", r.Title, old.Regions, r.Regions)
		}
		if r.TrafficValue < old.TrafficValue {
			t.Errorf("%s: traffic dropped from %d to %d", r.Title, old.TrafficValue, r.TrafficValue)
		}
		for _, b := range batch {
			if b.Title == r.Title && r.TrafficValue < b.TrafficValue {
				t.Errorf("%s: traffic %d below batch value %d", r.Title, r.TrafficValue, b.TrafficValue)
			}
		}
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return string(data)
}
