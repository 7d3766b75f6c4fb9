package store

import (
	"github.com/rcliao/memtier/internal/model"
)

// Stats summarizes a memory document.
type Stats struct {
	Identity    string      `json:"identity"`
	Version     int         `json:"version"`
	CreatedAt   string      `json:"created_at"`
	LastUpdate  string      `json:"last_update"`
	Total       int         `json:"total"`
	SummaryKeys int         `json:"summary_keys"`
	Tiers       []TierStats `json:"tiers"`
}

// TierStats holds per-tier counts.
type TierStats struct {
	Tier       model.TierName `json:"tier"`
	Count      int            `json:"count"`
	WithExpiry int            `json:"with_expiry"`
	Categories map[string]int `json:"categories"`
}

// StatsFor computes statistics for state.
func StatsFor(identity string, state *model.MemoryState) *Stats {
	st := &Stats{
		Identity:    identity,
		Version:     state.Metadata.Version,
		CreatedAt:   state.Metadata.CreatedAt,
		LastUpdate:  state.Metadata.LastUpdate,
		SummaryKeys: len(state.Metadata.Summary),
	}
	for _, name := range model.TierNames {
		ts := TierStats{Tier: name, Categories: map[string]int{}}
		for _, e := range *state.Tier(name) {
			ts.Count++
			ts.Categories[e.Category]++
			if e.ExpiresAt != "" {
				ts.WithExpiry++
			}
		}
		st.Total += ts.Count
		st.Tiers = append(st.Tiers, ts)
	}
	return st
}
