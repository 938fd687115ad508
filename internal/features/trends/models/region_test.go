package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCountries(t *testing.T) {
	countries, err := DefaultCountries()
	if err != nil {
		t.Fatalf("DefaultCountries: %v", err)
	}

	want := []struct {
		name    string
		regions int
	}{
		{"India", 22},
		{"United Kingdom", 5},
		{"Australia", 4},
		{"United States", 51},
		{"France", 23},
		{"Thailand", 1},
		{"Malaysia", 17},
		{"Vietnam", 1},
	}

	if len(countries) != len(want) {
		t.Fatalf("expected %d countries, got %d", len(want), len(countries))
	}
	for i, w := range want {
		if countries[i].Name != w.name {
			t.Errorf("country %d = %q, want %q", i, countries[i].Name, w.name)
		}
		if len(countries[i].Regions) != w.regions {
			t.Errorf("%s has %d regions, want %d", w.name, len(countries[i].Regions), w.regions)
		}
		if countries[i].Timezone == "" {
			t.Errorf("%s has no timezone", w.name)
		}
	}
}

func TestLoadCountries(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.json")
	os.WriteFile(valid, []byte(`[{"name":"Testland","timezone":"UTC","regions":[{"code":"TL-A","name":"Alpha"}]}]`), 0o644)

	countries, err := LoadCountries(valid)
	if err != nil {
		t.Fatalf("LoadCountries: %v", err)
	}
	if len(countries) != 1 || countries[0].Regions[0].Code != "TL-A" {
		t.Errorf("unexpected table: %+v", countries)
	}

	invalid := []string{
		`not json`,
		`[{"name":"","regions":[]}]`,
		`[{"name":"A","regions":[]},{"name":"A","regions":[]}]`,
		`[{"name":"A","regions":[{"code":"","name":"x"}]}]`,
	}
	for i, body := range invalid {
		path := filepath.Join(dir, "invalid.json")
		os.WriteFile(path, []byte(body), 0o644)
		if _, err := LoadCountries(path); err == nil {
			t.Errorf("case %d: expected an error for %s", i, body)
		}
	}

	if _, err := LoadCountries(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
