package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
)

// fakeExpirer hands out due giveaways until they are expired once.
type fakeExpirer struct {
	mu      sync.Mutex
	pending []*dg.Giveaway
	expired map[dg.ID]int
	block   chan struct{}
	entered chan struct{}
	fail    error
}

func newFakeExpirer(gs ...*dg.Giveaway) *fakeExpirer {
	return &fakeExpirer{pending: gs, expired: make(map[dg.ID]int)}
}

func (f *fakeExpirer) Due() []*dg.Giveaway {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*dg.Giveaway, 0, len(f.pending))
	for _, g := range f.pending {
		if f.expired[g.ID] == 0 {
			out = append(out, g)
		}
	}
	return out
}

func (f *fakeExpirer) Expire(_ context.Context, g *dg.Giveaway) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired[g.ID]++
	return f.fail
}

func (f *fakeExpirer) count(id dg.ID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expired[id]
}

func TestTickExpiresDueGiveawaysOnce(t *testing.T) {
	a := &dg.Giveaway{ID: dg.NewID()}
	b := &dg.Giveaway{ID: dg.NewID()}
	exp := newFakeExpirer(a, b)
	w := NewExpiryWorker(exp, time.Second, zerolog.Nop())

	assert.Equal(t, 2, w.Tick(context.Background()))
	assert.Equal(t, 0, w.Tick(context.Background()))
	assert.Equal(t, 1, exp.count(a.ID))
	assert.Equal(t, 1, exp.count(b.ID))
}

func TestTickContinuesAfterFailure(t *testing.T) {
	exp := newFakeExpirer(&dg.Giveaway{ID: dg.NewID()}, &dg.Giveaway{ID: dg.NewID()})
	exp.fail = errors.New("database is locked")
	w := NewExpiryWorker(exp, time.Second, zerolog.Nop())

	assert.Equal(t, 2, w.Tick(context.Background()))
	assert.Empty(t, exp.Due())
}

func TestTickDoesNotOverlap(t *testing.T) {
	g := &dg.Giveaway{ID: dg.NewID()}
	exp := newFakeExpirer(g)
	exp.block = make(chan struct{})
	exp.entered = make(chan struct{}, 1)
	w := NewExpiryWorker(exp, time.Second, zerolog.Nop())

	done := make(chan int)
	go func() { done <- w.Tick(context.Background()) }()
	<-exp.entered

	assert.Equal(t, -1, w.Tick(context.Background()))
	close(exp.block)
	assert.Equal(t, 1, <-done)
	assert.Equal(t, 1, exp.count(g.ID))
}

func TestStartAndStop(t *testing.T) {
	g := &dg.Giveaway{ID: dg.NewID()}
	exp := newFakeExpirer(g)
	w := NewExpiryWorker(exp, time.Second, zerolog.Nop())

	require.NoError(t, w.Start(context.Background()))
	require.Eventually(t, func() bool { return exp.count(g.ID) == 1 }, 5*time.Second, 50*time.Millisecond)
	w.Stop()
	assert.Equal(t, 1, exp.count(g.ID))
}
