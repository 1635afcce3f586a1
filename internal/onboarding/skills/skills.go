// Package skills keeps the set of skill tags a user lists on their profile.
package skills

import (
	"encoding/json"
	"math/rand/v2"
	"slices"
	"strings"

	pstrings "onboarding/pkg/platform/strings"
)

// Palette is the fixed set of tag colours.
var Palette = []string{"sky", "emerald", "amber", "rose", "violet", "slate"}

// Set is a set of unique skill names. Names are trimmed; empty names are ignored.
type Set struct {
	names map[string]struct{}
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{names: make(map[string]struct{})}
}

// Add inserts name. Adding a name already present is a no-op.
func (s *Set) Add(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	if _, ok := s.names[name]; ok {
		return false
	}
	s.names[name] = struct{}{}
	return true
}

// AddList inserts every entry of a comma-separated list and returns how many
// were new.
func (s *Set) AddList(list string) int {
	added := 0
	for _, name := range pstrings.SplitList(list, ",") {
		if s.Add(name) {
			added++
		}
	}
	return added
}

// Remove deletes name. Removing an absent name is a no-op.
func (s *Set) Remove(name string) bool {
	name = strings.TrimSpace(name)
	if _, ok := s.names[name]; !ok {
		return false
	}
	delete(s.names, name)
	return true
}

// Has reports whether name is in the set.
func (s *Set) Has(name string) bool {
	_, ok := s.names[strings.TrimSpace(name)]
	return ok
}

// Len returns the number of skills.
func (s *Set) Len() int { return len(s.names) }

// Names returns the skills in lexical order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.names))
	for name := range s.names {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Tag is a skill ready for display.
type Tag struct {
	Name  string
	Color string
}

// Tags pairs each skill with a colour drawn at random from Palette. Colours
// are cosmetic and vary between renders.
func (s *Set) Tags() []Tag {
	names := s.Names()
	tags := make([]Tag, len(names))
	for i, name := range names {
		tags[i] = Tag{Name: name, Color: Palette[rand.IntN(len(Palette))]}
	}
	return tags
}

// MarshalJSON encodes the set as a sorted array.
func (s *Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON decodes an array of names.
func (s *Set) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	s.names = make(map[string]struct{}, len(names))
	for _, name := range names {
		s.Add(name)
	}
	return nil
}
