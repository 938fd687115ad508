package models

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestCountryUnion(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Country
		wantNames []string
		wantMulti bool
	}{
		{"both absent", Country{}, Country{}, nil, false},
		{"absent adopts other", Country{}, SingleCountry("India"), []string{"India"}, false},
		{"other absent keeps self", SingleCountry("India"), Country{}, []string{"India"}, false},
		{"same single stays single", SingleCountry("India"), SingleCountry("India"), []string{"India"}, false},
		{"different singles widen", SingleCountry("India"), SingleCountry("France"), []string{"France", "India"}, true},
		{"set absorbs single", MultipleCountries("India", "France"), SingleCountry("Vietnam"), []string{"France", "India", "Vietnam"}, true},
		{"set absorbs known member", MultipleCountries("India", "France"), SingleCountry("India"), []string{"France", "India"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Union(tt.b)
			if !slices.Equal(got.Names(), tt.wantNames) {
				t.Errorf("Union names = %v, want %v", got.Names(), tt.wantNames)
			}
			if got.IsMultiple() != tt.wantMulti {
				t.Errorf("Union multiple = %v, want %v", got.IsMultiple(), tt.wantMulti)
			}
		})
	}
}

func TestCountryUnionDoesNotAlias(t *testing.T) {
	a := MultipleCountries("France", "India")
	_ = a.Union(SingleCountry("Vietnam"))

	if a.Contains("Vietnam") {
		t.Error("Union modified its receiver")
	}
}

func TestCountryJSON(t *testing.T) {
	tests := []struct {
		country Country
		want    string
	}{
		{Country{}, `null`},
		{SingleCountry("India"), `"India"`},
		{MultipleCountries("India", "France"), `["France","India"]`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.country)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", tt.country, err)
		}
		if string(data) != tt.want {
			t.Errorf("Marshal(%v) = %s, want %s", tt.country, data, tt.want)
		}

		var back Country
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal(%s): %v", data, err)
		}
		if !slices.Equal(back.Names(), tt.country.Names()) || back.IsMultiple() != tt.country.IsMultiple() {
			t.Errorf("Unmarshal(%s) = %v, want %v", data, back, tt.country)
		}
	}
}

func TestCountryUnmarshalRejectsNumbers(t *testing.T) {
	var c Country
	if err := json.Unmarshal([]byte(`42`), &c); err == nil {
		t.Error("expected an error for a numeric country")
	}
}

func TestSingleCountry(t *testing.T) {
	if !SingleCountry("").IsZero() {
		t.Error("SingleCountry(\"\") should be absent")
	}

	name, ok := SingleCountry("Thailand").Single()
	if !ok || name != "Thailand" {
		t.Errorf("Single() = %q, %v", name, ok)
	}

	if _, ok := MultipleCountries("Thailand", "Vietnam").Single(); ok {
		t.Error("a set should not report a single country")
	}
}
