// Package model defines the tiered memory data types.
package model

import "time"

// TimeFormat is the layout used for every persisted timestamp (ISO-8601 UTC).
const TimeFormat = "2006-01-02T15:04:05Z"

// CurrentVersion is the document version written by this package.
const CurrentVersion = 1

// DefaultImportance is assigned to entries that do not carry one.
const DefaultImportance = 3

// Entry is one remembered fact.
type Entry struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	Category   string `json:"category"`
	Importance int    `json:"importance"`
	ExpiresAt  string `json:"expires_at,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// Tier is a bucket of entries sharing a retention convention.
// Order carries no meaning.
type Tier []Entry

// Get returns the entry with the given id.
func (t Tier) Get(id string) (Entry, bool) {
	for _, e := range t {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// TierName identifies one of the four tiers. The value doubles as the JSON key.
type TierName string

const (
	CoreMemory TierName = "core_memory"
	LongTerm   TierName = "long_term"
	MediumTerm TierName = "medium_term"
	ShortTerm  TierName = "short_term"
)

// TierNames lists the tiers in canonical order.
var TierNames = []TierName{CoreMemory, LongTerm, MediumTerm, ShortTerm}

// LongLived reports whether the tier follows long-lived defaults.
func (n TierName) LongLived() bool {
	return n != ShortTerm
}

// Metadata describes the document as a whole.
type Metadata struct {
	Version    int               `json:"version"`
	CreatedAt  string            `json:"created_at"`
	LastUpdate string            `json:"last_update"`
	Summary    map[string]string `json:"summary"`
}

// MemoryState is the full persisted snapshot for one identity.
type MemoryState struct {
	CoreMemory Tier     `json:"core_memory"`
	LongTerm   Tier     `json:"long_term"`
	MediumTerm Tier     `json:"medium_term"`
	ShortTerm  Tier     `json:"short_term"`
	Metadata   Metadata `json:"metadata"`
}

// NewState returns an empty state stamped with now.
func NewState(now time.Time) *MemoryState {
	ts := FormatTime(now)
	return &MemoryState{
		CoreMemory: Tier{},
		LongTerm:   Tier{},
		MediumTerm: Tier{},
		ShortTerm:  Tier{},
		Metadata: Metadata{
			Version:    CurrentVersion,
			CreatedAt:  ts,
			LastUpdate: ts,
			Summary:    map[string]string{},
		},
	}
}

// Tier returns a pointer to the named tier, or nil for an unknown name.
func (s *MemoryState) Tier(name TierName) *Tier {
	switch name {
	case CoreMemory:
		return &s.CoreMemory
	case LongTerm:
		return &s.LongTerm
	case MediumTerm:
		return &s.MediumTerm
	case ShortTerm:
		return &s.ShortTerm
	}
	return nil
}

// Normalize replaces nil collections and a zero version left behind by
// decoding a sparse document, so the state re-encodes with the full shape.
func (s *MemoryState) Normalize() {
	for _, name := range TierNames {
		if t := s.Tier(name); *t == nil {
			*t = Tier{}
		}
	}
	if s.Metadata.Summary == nil {
		s.Metadata.Summary = map[string]string{}
	}
	if s.Metadata.Version == 0 {
		s.Metadata.Version = CurrentVersion
	}
}

// Len returns the total number of entries across all tiers.
func (s *MemoryState) Len() int {
	n := 0
	for _, name := range TierNames {
		n += len(*s.Tier(name))
	}
	return n
}

// FormatTime renders t in the persisted timestamp layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}
