package model

// EntryUpsert is an insert-or-update instruction for one entry.
// Zero-valued string fields and a nil Importance mean "absent".
type EntryUpsert struct {
	ID         string
	Content    string
	Category   string
	Importance *int
	ExpiresAt  string
	CreatedAt  string // explicit created_at; normally system-managed
}

// TierDelta holds the operations proposed for a single tier.
type TierDelta struct {
	Upsert []EntryUpsert
	Delete []string
}

// Empty reports whether d carries no operations.
func (d TierDelta) Empty() bool {
	return len(d.Upsert) == 0 && len(d.Delete) == 0
}

// Delta is a proposed change set for a whole MemoryState.
type Delta struct {
	Summary map[string]string
	Tiers   map[TierName]TierDelta

	// Skipped counts upsert/delete items dropped while converting the raw
	// document because they were structurally invalid.
	Skipped int
}

// For returns the operations for the named tier (empty when absent).
func (d *Delta) For(name TierName) TierDelta {
	if d == nil || d.Tiers == nil {
		return TierDelta{}
	}
	return d.Tiers[name]
}
