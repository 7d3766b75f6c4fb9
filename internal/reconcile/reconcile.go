// Package reconcile merges model-proposed deltas into tiered memory.
//
// The Reconciler is single-threaded and does no locking; callers must
// serialize load-modify-save for a given identity.
package reconcile

import (
	"strings"
	"time"

	"github.com/rcliao/memtier/internal/model"
)

// Counts tallies the effect of a delta on one tier.
type Counts struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// Total is the number of applied operations.
func (c Counts) Total() int {
	return c.Added + c.Updated + c.Deleted
}

// Tier defaults by kind.
const (
	LongLivedCategory  = "fact"
	ShortLivedCategory = "task"
	LongLivedPrefix    = "lt"
	ShortLivedPrefix   = "st"
)

// Reconciler applies deltas to tiers.
type Reconciler struct {
	IDs IDGenerator
}

// New returns a Reconciler using ULID-suffixed synthesized ids.
func New() *Reconciler {
	return &Reconciler{IDs: NewULIDGenerator()}
}

// index keeps entries by id while remembering first-seen order.
type index struct {
	keys []string
	byID map[string]model.Entry
}

func newIndex(t model.Tier) *index {
	ix := &index{byID: make(map[string]model.Entry, len(t))}
	for _, e := range t {
		if e.ID == "" {
			continue
		}
		ix.put(e)
	}
	return ix
}

func (ix *index) put(e model.Entry) {
	if _, ok := ix.byID[e.ID]; !ok {
		ix.keys = append(ix.keys, e.ID)
	}
	ix.byID[e.ID] = e
}

func (ix *index) entries() model.Tier {
	out := make(model.Tier, 0, len(ix.byID))
	for _, k := range ix.keys {
		if e, ok := ix.byID[k]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Tier applies d to t in place and reports what changed.
func (r *Reconciler) Tier(t *model.Tier, d model.TierDelta, longLived bool, now time.Time) Counts {
	var c Counts
	ts := model.FormatTime(now)
	ix := newIndex(*t)

	category, prefix := ShortLivedCategory, ShortLivedPrefix
	if longLived {
		category, prefix = LongLivedCategory, LongLivedPrefix
	}

	for _, u := range d.Upsert {
		content := strings.TrimSpace(u.Content)
		if content == "" {
			continue
		}
		e := model.Entry{
			ID:         u.ID,
			Content:    content,
			Category:   u.Category,
			Importance: model.DefaultImportance,
			ExpiresAt:  u.ExpiresAt,
			CreatedAt:  u.CreatedAt,
			UpdatedAt:  ts,
		}
		if e.Category == "" {
			e.Category = category
		}
		if u.Importance != nil {
			e.Importance = *u.Importance
		}
		if e.ID == "" {
			e.ID = r.newID(prefix, now)
		}

		if prev, ok := ix.byID[e.ID]; ok {
			if e.CreatedAt == "" {
				e.CreatedAt = prev.CreatedAt
			}
			c.Updated++
		} else {
			if e.CreatedAt == "" {
				e.CreatedAt = ts
			}
			c.Added++
		}
		ix.put(e)
	}

	for _, id := range d.Delete {
		if _, ok := ix.byID[id]; !ok {
			continue
		}
		delete(ix.byID, id)
		c.Deleted++
	}

	*t = ix.entries()
	return c
}

func (r *Reconciler) newID(prefix string, now time.Time) string {
	gen := r.IDs
	if gen == nil {
		gen = SecondsGenerator{}
	}
	return gen.NewID(prefix, now)
}

// Apply reconciles every tier of s against d, merges the summary and
// stamps the update time.
func (r *Reconciler) Apply(s *model.MemoryState, d *model.Delta, now time.Time) *Report {
	s.Normalize()
	rep := &Report{Timestamp: model.FormatTime(now)}
	for _, name := range model.TierNames {
		counts := r.Tier(s.Tier(name), d.For(name), name.LongLived(), now)
		rep.Tiers = append(rep.Tiers, TierReport{Tier: name, Counts: counts})
	}

	if d != nil && len(d.Summary) > 0 {
		for k, v := range d.Summary {
			s.Metadata.Summary[k] = v
		}
		rep.Highlights = Highlights(d.Summary)
	}
	s.Metadata.LastUpdate = rep.Timestamp
	return rep
}
