// Package session tracks progress through the qualified cases of one
// listing scan. State is a value: operations return an updated copy.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/antzucaro/matchr"

	"github.com/ppiankov/estatescout/internal/model"
)

// NameMatchThreshold is the Jaro-Winkler similarity above which a listing
// decedent and a detail-page decedent are taken to be the same person
const NameMatchThreshold = 0.85

// Status is the outcome of one case
type Status string

const (
	StatusExtracted Status = "extracted"
	StatusSkipped   Status = "skipped" // Could not navigate
	StatusFailed    Status = "failed"
)

// Outcome records what happened to one qualified case
type Outcome struct {
	CaseNumber string    `json:"caseNumber"`
	Status     Status    `json:"status"`
	Quality    int       `json:"quality,omitempty"`
	NameMatch  float64   `json:"nameMatch,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// State is the cursor over a scan's qualified cases
type State struct {
	Source   string                `json:"source"`
	Cases    []model.QualifiedCase `json:"cases"`
	Index    int                   `json:"index"` // Next case to process
	Outcomes []Outcome             `json:"outcomes"`
}

// New starts a session over cases
func New(source string, cases []model.QualifiedCase) State {
	return State{
		Source:   source,
		Cases:    slices.Clone(cases),
		Outcomes: []Outcome{},
	}
}

// Next returns the case at the cursor
func (s State) Next() (model.QualifiedCase, bool) {
	if s.Index < 0 || s.Index >= len(s.Cases) {
		return model.QualifiedCase{}, false
	}
	return s.Cases[s.Index], true
}

// Advance records the outcome of the current case and moves the cursor
func (s State) Advance(o Outcome) State {
	s.Outcomes = append(slices.Clone(s.Outcomes), o)
	s.Index++
	return s
}

// Done reports whether every case has been visited
func (s State) Done() bool {
	return s.Index >= len(s.Cases)
}

// Remaining is the number of cases not yet visited
func (s State) Remaining() int {
	return max(len(s.Cases)-s.Index, 0)
}

// Count tallies outcomes with the given status
func (s State) Count(status Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// NameSimilarity compares a listing decedent with the decedent found on the
// detail page, ignoring case and punctuation
func NameSimilarity(listing, detail string) float64 {
	a, b := normalizeName(listing), normalizeName(detail)
	if a == "" || b == "" {
		return 0
	}
	return matchr.JaroWinkler(a, b, false)
}

func normalizeName(name string) string {
	name = strings.ToUpper(name)
	name = strings.Map(func(r rune) rune {
		if r == ',' || r == '.' {
			return ' '
		}
		return r
	}, name)
	return strings.Join(strings.Fields(name), " ")
}

// Save writes the state as JSON, replacing path atomically
func Save(path string, s State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

// Load reads a saved state. A missing file is reported with os.ErrNotExist.
func Load(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("read session: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("parse session: %w", err)
	}
	if s.Index < 0 || s.Index > len(s.Cases) {
		return State{}, errors.New("parse session: cursor out of range")
	}
	return s, nil
}
