package reconcile

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDGenerator synthesizes ids for upserts that arrive without one.
type IDGenerator interface {
	NewID(prefix string, now time.Time) string
}

// ULIDGenerator yields "{prefix}-{unix-seconds}-{ulid}". The ULID suffix is
// monotonic, so ids minted within the same second stay distinct.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewULIDGenerator returns a generator seeded from the wall clock.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (g *ULIDGenerator) NewID(prefix string, now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(now), g.entropy)
	return fmt.Sprintf("%s-%d-%s", prefix, now.Unix(), id.String())
}

// SecondsGenerator yields the legacy "{prefix}-{unix-seconds}" form. Two
// id-less upserts in the same second share an id, so the second one
// overwrites the first.
type SecondsGenerator struct{}

func (SecondsGenerator) NewID(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%d", prefix, now.Unix())
}
