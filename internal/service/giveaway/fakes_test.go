package giveaway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog"

	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
)

const (
	testGuild   snowflake.ID = 1000
	testChannel snowflake.ID = 2000
	testStaff   snowflake.ID = 3000
)

var errBoom = errors.New("boom")

type memoryRepo struct {
	mu    sync.Mutex
	items map[dg.ID]*dg.Giveaway
	saves int
	fail  error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[dg.ID]*dg.Giveaway)}
}

func (r *memoryRepo) CreateOrUpdate(ctx context.Context, g *dg.Giveaway) error {
	return r.CreateOrUpdateAll(ctx, []*dg.Giveaway{g})
}

func (r *memoryRepo) CreateOrUpdateAll(_ context.Context, gs []*dg.Giveaway) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	for _, g := range gs {
		r.items[g.ID] = g.Clone()
	}
	r.saves++
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id dg.ID) (*dg.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return g.Clone(), nil
}

func (r *memoryRepo) LoadAll(context.Context) ([]*dg.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*dg.Giveaway, 0, len(r.items))
	for _, g := range r.items {
		out = append(out, g.Clone())
	}
	return out, nil
}

func (r *memoryRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// directory answers membership from a fixed table; absent users are not members.
type directory struct {
	mu      sync.Mutex
	members map[snowflake.ID][]snowflake.ID
	fail    map[snowflake.ID]bool
	// lookups counts calls that may reach the network.
	lookups int
}

func newDirectory(userIDs ...snowflake.ID) *directory {
	d := &directory{members: make(map[snowflake.ID][]snowflake.ID), fail: make(map[snowflake.ID]bool)}
	for _, id := range userIDs {
		d.members[id] = nil
	}
	return d
}

func (d *directory) Member(_ context.Context, _, userID snowflake.ID) (dg.Member, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookups++
	if d.fail[userID] {
		return dg.Member{}, false, errBoom
	}
	roles, ok := d.members[userID]
	if !ok {
		return dg.Member{}, false, nil
	}
	return dg.Member{UserID: userID, RoleIDs: roles}, true, nil
}

func (d *directory) CachedMember(_, userID snowflake.ID) (dg.Member, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	roles, ok := d.members[userID]
	if !ok {
		return dg.Member{}, false
	}
	return dg.Member{UserID: userID, RoleIDs: roles}, true
}

func (d *directory) lookupCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lookups
}

// exclusions serves lookups from users/roles; Reload replaces them with
// the stored lists, like the registry does.
type exclusions struct {
	users map[snowflake.ID]bool
	roles map[snowflake.ID]bool

	storedUsers map[snowflake.ID]bool
	reloaded    []snowflake.ID
}

func newExclusions() *exclusions {
	return &exclusions{
		users:       make(map[snowflake.ID]bool),
		roles:       make(map[snowflake.ID]bool),
		storedUsers: make(map[snowflake.ID]bool),
	}
}

func (e *exclusions) Reload(_ context.Context, guildID snowflake.ID) error {
	e.users = make(map[snowflake.ID]bool, len(e.storedUsers))
	for id := range e.storedUsers {
		e.users[id] = true
	}
	e.reloaded = append(e.reloaded, guildID)
	return nil
}

func (e *exclusions) IsUserExcluded(_, userID snowflake.ID) bool { return e.users[userID] }

func (e *exclusions) AnyRoleExcluded(_ snowflake.ID, roleIDs []snowflake.ID) bool {
	for _, id := range roleIDs {
		if e.roles[id] {
			return true
		}
	}
	return false
}

type notifier struct {
	mu        sync.Mutex
	announced int
	refreshed int
	logs      int
	ended     []View
	failAll   bool
}

func (n *notifier) Announce(context.Context, View) (snowflake.ID, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAll {
		return 0, errBoom
	}
	n.announced++
	return 777, nil
}

func (n *notifier) RefreshAnnouncement(context.Context, View) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAll {
		return errBoom
	}
	n.refreshed++
	return nil
}

func (n *notifier) PostLog(context.Context, View) (snowflake.ID, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAll {
		return 0, errBoom
	}
	return 888, nil
}

func (n *notifier) RefreshLog(context.Context, View) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAll {
		return errBoom
	}
	n.logs++
	return nil
}

func (n *notifier) LogEnded(_ context.Context, v View) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ended = append(n.ended, v)
	if n.failAll {
		return errBoom
	}
	return nil
}

func (n *notifier) endedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.ended)
}

// firstPicker always draws the first remaining candidate.
type firstPicker struct{}

func (firstPicker) Intn(int) int { return 0 }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	repo       *memoryRepo
	members    *directory
	exclusions *exclusions
	notifier   *notifier
	clock      *clock
	tracker    *Tracker
	svc        *Service
}

func newHarness(memberIDs ...snowflake.ID) *harness {
	h := &harness{
		repo:       newMemoryRepo(),
		members:    newDirectory(memberIDs...),
		exclusions: newExclusions(),
		notifier:   &notifier{},
		clock:      &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		tracker:    NewTracker(),
	}
	h.svc = h.build()
	return h
}

// build wires a service over the harness collaborators, as a restart would.
func (h *harness) build() *Service {
	log := zerolog.Nop()
	return NewService(
		NewStore(h.repo, nil, log),
		h.tracker,
		NewValidator(h.members, h.exclusions, log),
		h.notifier,
		log,
		WithClock(h.clock.Now),
		WithPicker(firstPicker{}),
		WithExclusionLoader(h.exclusions),
	)
}

func (h *harness) options() CreateOptions {
	return CreateOptions{
		GuildID:     testGuild,
		ChannelID:   testChannel,
		CreatorID:   testStaff,
		Title:       "Steam key",
		Description: "One key for Halo Infinite",
		WinnerCount: 1,
		EndTime:     h.clock.Now().Add(time.Hour),
	}
}
