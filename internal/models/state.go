package models

import "encoding/json"

// Theme is the colour scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// GlassIntensity controls the translucency of the UI panels.
type GlassIntensity string

const (
	GlassDefault GlassIntensity = "default"
	GlassHigh    GlassIntensity = "high"
	GlassLow     GlassIntensity = "low"
)

// Valid reports whether g is a known intensity.
func (g GlassIntensity) Valid() bool {
	switch g {
	case GlassDefault, GlassHigh, GlassLow:
		return true
	}
	return false
}

// DefaultAccentColor is the accent used until the user picks one.
const DefaultAccentColor = "#8b5cf6"

// Preferences holds the display settings persisted next to the items.
type Preferences struct {
	CurrentTheme   Theme          `json:"currentTheme"`
	GlassIntensity GlassIntensity `json:"glassIntensity"`
	AccentColor    string         `json:"accentColor"`
}

// DefaultPreferences returns the preferences of a fresh install.
func DefaultPreferences() Preferences {
	return Preferences{
		CurrentTheme:   ThemeDark,
		GlassIntensity: GlassDefault,
		AccentColor:    DefaultAccentColor,
	}
}

// State is the complete persisted record: the collection in insertion order
// plus the preferences, flattened into one JSON object.
type State struct {
	Items []MediaItem `json:"items"`
	Preferences
}

// NewState returns an empty collection with default preferences.
func NewState() State {
	return State{Items: []MediaItem{}, Preferences: DefaultPreferences()}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	items := make([]MediaItem, len(s.Items))
	for i, it := range s.Items {
		items[i] = it.Clone()
	}
	s.Items = items
	return s
}

// UnmarshalJSON fills any missing preference with its default so that older
// or partial records still load.
func (s *State) UnmarshalJSON(data []byte) error {
	type plain State
	out := plain(NewState())
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	def := DefaultPreferences()
	if !out.CurrentTheme.Valid() {
		out.CurrentTheme = def.CurrentTheme
	}
	if !out.GlassIntensity.Valid() {
		out.GlassIntensity = def.GlassIntensity
	}
	if out.AccentColor == "" {
		out.AccentColor = def.AccentColor
	}
	if out.Items == nil {
		out.Items = []MediaItem{}
	}
	*s = State(out)
	return nil
}
