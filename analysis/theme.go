package analysis

import (
	"encoding/json"
	"fmt"
)

// Theme is one of the fixed topical categories a review can be tagged with.
type Theme int

// The declaration order is shared with dashboards that index by position.
const (
	Appearance Theme = iota
	Comfort
	Durability
	Fit
	Value
)

// ThemeCount is the size of the closed theme vocabulary.
const ThemeCount = 5

var themeNames = [ThemeCount]string{
	Appearance: "appearance",
	Comfort:    "comfort",
	Durability: "durability",
	Fit:        "fit",
	Value:      "value",
}

// AllThemes returns every theme in declaration order.
func AllThemes() []Theme {
	return []Theme{Appearance, Comfort, Durability, Fit, Value}
}

// ThemeNames returns the theme names in declaration order.
func ThemeNames() []string {
	names := make([]string, ThemeCount)
	copy(names, themeNames[:])
	return names
}

func (t Theme) valid() bool {
	return t >= 0 && t < ThemeCount
}

func (t Theme) String() string {
	if t.valid() {
		return themeNames[t]
	}
	return fmt.Sprintf("Theme(%d)", int(t))
}

// ParseTheme maps a theme name back to its Theme.
func ParseTheme(name string) (Theme, error) {
	for i, n := range themeNames {
		if n == name {
			return Theme(i), nil
		}
	}
	return 0, fmt.Errorf("analysis: unknown theme %q", name)
}

// ThemeSet is a set over the closed theme vocabulary. The zero value is empty.
type ThemeSet uint8

// NewThemeSet builds a set from the given themes. Out-of-range values are ignored.
func NewThemeSet(themes ...Theme) ThemeSet {
	var s ThemeSet
	for _, t := range themes {
		s = s.With(t)
	}
	return s
}

// With returns a copy of s that also contains t.
func (s ThemeSet) With(t Theme) ThemeSet {
	if !t.valid() {
		return s
	}
	return s | 1<<uint(t)
}

// Has reports whether t is in the set.
func (s ThemeSet) Has(t Theme) bool {
	return t.valid() && s&(1<<uint(t)) != 0
}

// Len returns the number of themes in the set.
func (s ThemeSet) Len() int {
	n := 0
	for _, t := range AllThemes() {
		if s.Has(t) {
			n++
		}
	}
	return n
}

// Themes lists the members in declaration order.
func (s ThemeSet) Themes() []Theme {
	themes := make([]Theme, 0, ThemeCount)
	for _, t := range AllThemes() {
		if s.Has(t) {
			themes = append(themes, t)
		}
	}
	return themes
}

// Names lists the member names in declaration order. Never nil.
func (s ThemeSet) Names() []string {
	names := make([]string, 0, ThemeCount)
	for _, t := range s.Themes() {
		names = append(names, t.String())
	}
	return names
}

// ParseThemeSet rebuilds a set from stored theme names.
func ParseThemeSet(names []string) (ThemeSet, error) {
	var s ThemeSet
	for _, name := range names {
		t, err := ParseTheme(name)
		if err != nil {
			return 0, err
		}
		s = s.With(t)
	}
	return s, nil
}

// MarshalJSON encodes the set as an ordered list of theme names.
func (s ThemeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON decodes a list of theme names.
func (s *ThemeSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	set, err := ParseThemeSet(names)
	if err != nil {
		return err
	}
	*s = set
	return nil
}
