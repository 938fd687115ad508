package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

type countryKind uint8

const (
	countryNone countryKind = iota
	countrySingle
	countryMultiple
)

// Country is the country attribution of a trend record. It is either absent,
// a single country name, or a set of names once sources disagree.
type Country struct {
	kind  countryKind
	names []string
}

// SingleCountry returns a single-valued attribution, or an absent one for ""
func SingleCountry(name string) Country {
	if name == "" {
		return Country{}
	}
	return Country{kind: countrySingle, names: []string{name}}
}

// MultipleCountries returns a set-valued attribution. Duplicates and empty
// names are dropped and the set is kept sorted.
func MultipleCountries(names ...string) Country {
	set := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" && !slices.Contains(set, n) {
			set = append(set, n)
		}
	}
	if len(set) == 0 {
		return Country{}
	}
	slices.Sort(set)
	return Country{kind: countryMultiple, names: set}
}

// IsZero reports whether no country is attributed
func (c Country) IsZero() bool { return c.kind == countryNone }

// IsMultiple reports whether the attribution has widened to a set
func (c Country) IsMultiple() bool { return c.kind == countryMultiple }

// Single returns the country name when the attribution is single-valued
func (c Country) Single() (string, bool) {
	if c.kind != countrySingle {
		return "", false
	}
	return c.names[0], true
}

// Names returns every attributed country name
func (c Country) Names() []string {
	return slices.Clone(c.names)
}

// Contains reports whether name is part of the attribution
func (c Country) Contains(name string) bool {
	return slices.Contains(c.names, name)
}

// Union merges two attributions. An absent side adopts the other side. When
// both carry values the result is their set union; it stays single-valued
// only if both sides name the same single country.
func (c Country) Union(other Country) Country {
	switch {
	case other.IsZero():
		return c
	case c.IsZero():
		return other
	}

	if a, ok := c.Single(); ok {
		if b, ok := other.Single(); ok && a == b {
			return c
		}
	}

	return MultipleCountries(append(c.Names(), other.names...)...)
}

func (c Country) clone() Country {
	c.names = slices.Clone(c.names)
	return c
}

func (c Country) String() string {
	switch c.kind {
	case countrySingle:
		return c.names[0]
	case countryMultiple:
		return fmt.Sprint(c.names)
	default:
		return ""
	}
}

// MarshalJSON encodes an absent country as null, a single one as a string
// and a set as a sorted array
func (c Country) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case countrySingle:
		return json.Marshal(c.names[0])
	case countryMultiple:
		return json.Marshal(c.names)
	default:
		return []byte("null"), nil
	}
}

func (c *Country) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = Country{}
		return nil
	}

	if len(data) > 0 && data[0] == '[' {
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return fmt.Errorf("country: %w", err)
		}
		*c = MultipleCountries(names...)
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("country: %w", err)
	}
	*c = SingleCountry(name)
	return nil
}
