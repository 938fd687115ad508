package models

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

// Region is one feed query target
type Region struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CountryConfig groups the regions fetched for one country
type CountryConfig struct {
	Name     string   `json:"name"`
	Timezone string   `json:"timezone"`
	Regions  []Region `json:"regions"`
}

//go:embed regions.json
var defaultRegions []byte

// DefaultCountries returns the built-in country/region table
func DefaultCountries() ([]CountryConfig, error) {
	return parseCountries(defaultRegions)
}

// LoadCountries reads a country/region table from path, or returns the
// built-in table when path is empty
func LoadCountries(path string) ([]CountryConfig, error) {
	if path == "" {
		return DefaultCountries()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read regions file: %w", err)
	}
	return parseCountries(data)
}

func parseCountries(data []byte) ([]CountryConfig, error) {
	var countries []CountryConfig
	if err := json.Unmarshal(data, &countries); err != nil {
		return nil, fmt.Errorf("failed to parse regions table: %w", err)
	}

	seen := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		if c.Name == "" {
			return nil, fmt.Errorf("regions table: country without a name")
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("regions table: duplicate country %q", c.Name)
		}
		seen[c.Name] = struct{}{}

		for _, r := range c.Regions {
			if r.Code == "" || r.Name == "" {
				return nil, fmt.Errorf("regions table: %s has a region without code or name", c.Name)
			}
		}
	}

	return countries, nil
}
