// Package disclosure tracks which collapsible form sections are open.
// Panels are independent: opening one never closes another.
package disclosure

import "encoding/json"

// PanelID names one collapsible section.
type PanelID string

const (
	PanelExperience PanelID = "experience"
	PanelEducation  PanelID = "education"
	PanelProjects   PanelID = "projects"
	PanelSkills     PanelID = "skills"
)

// Panels lists every section in display order.
var Panels = []PanelID{PanelExperience, PanelEducation, PanelProjects, PanelSkills}

// ParsePanelID validates a panel name from a request.
func ParsePanelID(s string) (PanelID, bool) {
	for _, id := range Panels {
		if string(id) == s {
			return id, true
		}
	}
	return "", false
}

// Set holds the expanded/collapsed state of each panel. Every panel starts collapsed.
type Set struct {
	open map[PanelID]bool
}

// NewSet returns a set with every panel collapsed.
func NewSet() *Set {
	return &Set{open: make(map[PanelID]bool)}
}

// Toggle flips one panel and returns its new state.
func (s *Set) Toggle(id PanelID) bool {
	s.open[id] = !s.open[id]
	return s.open[id]
}

// Expanded reports whether the panel content is visible.
func (s *Set) Expanded(id PanelID) bool {
	return s.open[id]
}

// MarshalJSON encodes the set as {"experience": true, ...} for every known panel.
func (s *Set) MarshalJSON() ([]byte, error) {
	out := make(map[PanelID]bool, len(Panels))
	for _, id := range Panels {
		out[id] = s.open[id]
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores panel state, ignoring unknown panels.
func (s *Set) UnmarshalJSON(data []byte) error {
	var in map[PanelID]bool
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.open = make(map[PanelID]bool, len(Panels))
	for _, id := range Panels {
		s.open[id] = in[id]
	}
	return nil
}
