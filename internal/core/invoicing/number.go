package invoicing

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Generator produces invoice numbers of the form INV-YYYYMMDD-NNNN. The
// four digit suffix is random, so numbers are unique only with high
// probability; the store keeps a unique index to catch collisions.
type Generator struct {
	Now      func() time.Time
	Location *time.Location

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewGenerator(loc *time.Location, seed int64) *Generator {
	return &Generator{Now: time.Now, Location: loc, rnd: rand.New(rand.NewSource(seed))}
}

func (g *Generator) Next() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	t := now()
	if g.Location != nil {
		t = t.In(g.Location)
	}
	g.mu.Lock()
	if g.rnd == nil {
		g.rnd = rand.New(rand.NewSource(t.UnixNano()))
	}
	suffix := g.rnd.Intn(9000) + 1000
	g.mu.Unlock()
	return fmt.Sprintf("INV-%s-%04d", t.Format("20060102"), suffix)
}
