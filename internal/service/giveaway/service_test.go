package giveaway

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/open-builders/giveaway-discord-bot/internal/common/errors"
	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
)

// start creates, registers and announces a giveaway.
func (h *harness) start(t *testing.T, opts CreateOptions) *dg.Giveaway {
	t.Helper()
	ctx := context.Background()
	g, err := h.svc.Create(ctx, opts)
	require.NoError(t, err)
	require.NoError(t, h.svc.Register(ctx, g.ID))
	g, err = h.svc.Announce(ctx, g.ID)
	require.NoError(t, err)
	return g
}

func (h *harness) join(t *testing.T, g *dg.Giveaway, users ...snowflake.ID) {
	t.Helper()
	for _, u := range users {
		res, err := h.svc.Join(context.Background(), g.GuildID, g.ID, u)
		require.NoError(t, err)
		require.Equal(t, dg.JoinResultJoined, res)
	}
}

func (h *harness) restart(t *testing.T) {
	t.Helper()
	h.tracker = NewTracker()
	h.svc = h.build()
	require.NoError(t, h.svc.Load(context.Background()))
}

func TestCreateValidation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateOptions)
		field  string
	}{
		{"blank title", func(o *CreateOptions) { o.Title = "  " }, "Title"},
		{"blank description", func(o *CreateOptions) { o.Description = "" }, "Description"},
		{"long title", func(o *CreateOptions) { o.Title = strings.Repeat("x", 256) }, "Title"},
		{"zero winners", func(o *CreateOptions) { o.WinnerCount = 0 }, "WinnerCount"},
		{"missing channel", func(o *CreateOptions) { o.ChannelID = 0 }, "ChannelID"},
		{"bad image", func(o *CreateOptions) { o.ImageURI = "cat.png" }, "ImageURI"},
		{"end in the past", func(o *CreateOptions) { o.EndTime = h.clock.Now().Add(-time.Second) }, "end_time"},
		{"end now", func(o *CreateOptions) { o.EndTime = h.clock.Now() }, "end_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := h.options()
			tt.mutate(&opts)
			_, err := h.svc.Create(ctx, opts)
			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.True(t, appErr.IsValidation())
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
	assert.Zero(t, h.repo.saveCount(), "invalid giveaways are never persisted")
}

func TestCreateDoesNotRegister(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	g, err := h.svc.Create(ctx, h.options())
	require.NoError(t, err)
	assert.False(t, g.ID.IsZero())
	assert.Equal(t, h.clock.Now(), g.StartTime)
	assert.Empty(t, h.svc.ListActive(testGuild))

	_, err = h.svc.Join(ctx, testGuild, g.ID, 42)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeGiveawayNotActive))
}

func TestAnnounceStoresMessageIDs(t *testing.T) {
	h := newHarness()
	g := h.start(t, h.options())

	assert.Equal(t, snowflake.ID(777), g.MessageID)
	assert.Equal(t, snowflake.ID(888), g.LogMessageID)
	stored, err := h.repo.GetByID(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(777), stored.MessageID)
}

func TestAnnounceFailure(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	g, err := h.svc.Create(ctx, h.options())
	require.NoError(t, err)

	h.notifier.failAll = true
	_, err = h.svc.Announce(ctx, g.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDiscordAPI))
}

func TestJoin(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	g := h.start(t, h.options())

	h.join(t, g, 10)
	res, err := h.svc.Join(ctx, testGuild, g.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, dg.JoinResultAlreadyJoined, res)

	got, err := h.svc.Get(ctx, testGuild, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{10}, got.Entrants)

	_, err = h.svc.Join(ctx, 999, g.ID, 11)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeGiveawayWrongGuild))

	_, err = h.svc.Join(ctx, testGuild, dg.NewID(), 11)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeGiveawayNotFound))
}

func TestJoinRejectedOnceExpired(t *testing.T) {
	h := newHarness()
	g := h.start(t, h.options())

	h.clock.Advance(2 * time.Hour)
	_, err := h.svc.Join(context.Background(), testGuild, g.ID, 10)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeGiveawayExpired))
}

func TestJoinRollsBackOnPersistenceFailure(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	g := h.start(t, h.options())

	h.repo.fail = errBoom
	_, err := h.svc.Join(ctx, testGuild, g.ID, 10)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseError))

	got, err := h.svc.Get(ctx, testGuild, g.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Entrants)
}

func TestExpireIsIdempotent(t *testing.T) {
	h := newHarness(10, 11, 12)
	ctx := context.Background()
	opts := h.options()
	opts.WinnerCount = 2
	g := h.start(t, opts)
	h.join(t, g, 10, 11, 12)

	assert.Empty(t, h.svc.Due())
	h.clock.Advance(time.Hour)
	due := h.svc.Due()
	require.Len(t, due, 1)

	require.NoError(t, h.svc.Expire(ctx, due[0]))
	savesAfterFirst := h.repo.saveCount()
	require.NoError(t, h.svc.Expire(ctx, due[0]))

	assert.Equal(t, savesAfterFirst, h.repo.saveCount(), "second pass must not select or persist")
	assert.Equal(t, 1, h.notifier.endedCount())
	assert.Empty(t, h.svc.Due())

	got, err := h.svc.Get(ctx, testGuild, g.ID)
	require.NoError(t, err)
	assert.True(t, got.EndHandled)
	// First draw takes 10, whose slot is refilled by the last entrant.
	assert.Equal(t, []snowflake.ID{10, 12}, got.WinnerIDs)
}

func TestConcurrentExpireRunsOnce(t *testing.T) {
	h := newHarness(10)
	g := h.start(t, h.options())
	h.join(t, g, 10)
	h.clock.Advance(time.Hour)
	due := h.svc.Due()
	require.Len(t, due, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.svc.Expire(context.Background(), due[0])
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, h.notifier.endedCount())
}

func TestExpireSurvivesRenderingFailures(t *testing.T) {
	h := newHarness(10)
	ctx := context.Background()
	g := h.start(t, h.options())
	h.join(t, g, 10)

	h.notifier.failAll = true
	h.clock.Advance(time.Hour)
	for _, d := range h.svc.Due() {
		require.NoError(t, h.svc.Expire(ctx, d))
	}

	stored, err := h.repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, stored.EndHandled)
	assert.Equal(t, []snowflake.ID{10}, stored.WinnerIDs)
}

func TestExcludedAfterJoinIsSkippedButKept(t *testing.T) {
	h := newHarness(10, 11)
	ctx := context.Background()
	g := h.start(t, h.options())
	h.join(t, g, 10, 11)

	h.exclusions.users[10] = true
	h.clock.Advance(time.Hour)
	for _, d := range h.svc.Due() {
		require.NoError(t, h.svc.Expire(ctx, d))
	}

	v, err := h.svc.Information(ctx, testGuild, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{10, 11}, v.Giveaway.Entrants)
	assert.Equal(t, []snowflake.ID{11}, v.Giveaway.WinnerIDs)
	assert.Equal(t, 1, v.ExcludedEntrants)
	assert.False(t, v.Active)
	require.Len(t, h.notifier.ended, 1)
	assert.Equal(t, 1, h.notifier.ended[0].ExcludedEntrants)
}

func TestManualEnd(t *testing.T) {
	h := newHarness(10)
	ctx := context.Background()
	g := h.start(t, h.options())
	h.join(t, g, 10)

	h.clock.Advance(10 * time.Minute)
	ended, err := h.svc.End(ctx, testGuild, g.ID)
	require.NoError(t, err)
	assert.True(t, ended.EndHandled)
	assert.Equal(t, h.clock.Now(), ended.EndTime)
	assert.Empty(t, ended.WinnerIDs, "manual end selects no winners")
	assert.Equal(t, 1, h.notifier.endedCount())

	_, err = h.svc.End(ctx, testGuild, g.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeGiveawayNotActive))

	h.clock.Advance(time.Hour)
	assert.Empty(t, h.svc.Due())
}

func TestRedraw(t *testing.T) {
	h := newHarness(10, 11, 12, 13)
	ctx := context.Background()
	opts := h.options()
	opts.WinnerCount = 2
	g := h.start(t, opts)
	h.join(t, g, 10, 11, 12, 13)

	_, _, err := h.svc.Redraw(ctx, testGuild, g.ID, "")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeGiveawayActive))

	h.clock.Advance(time.Hour)
	for _, d := range h.svc.Due() {
		require.NoError(t, h.svc.Expire(ctx, d))
	}

	redrawn, invalid, err := h.svc.Redraw(ctx, testGuild, g.ID, "  11 not-an-id  ")
	require.NoError(t, err)
	assert.Equal(t, []string{"not-an-id"}, invalid)
	require.Len(t, redrawn.WinnerIDs, 2)
	assert.Equal(t, snowflake.ID(11), redrawn.WinnerIDs[0])
	assert.Equal(t, snowflake.ID(10), redrawn.WinnerIDs[1])
	assert.Equal(t, 1, h.notifier.endedCount(), "redraw does not repeat the expiry log")
}

func TestRedrawReportsIneligibleKeep(t *testing.T) {
	h := newHarness(10, 11)
	ctx := context.Background()
	g := h.start(t, h.options())
	h.join(t, g, 10, 11)
	_, err := h.svc.End(ctx, testGuild, g.ID)
	require.NoError(t, err)

	// 12 parses but is not a guild member.
	redrawn, invalid, err := h.svc.Redraw(ctx, testGuild, g.ID, "12 11")
	require.NoError(t, err)
	assert.Equal(t, []string{"12"}, invalid)
	assert.Equal(t, []snowflake.ID{11}, redrawn.WinnerIDs)
}

func TestSetWinnerCount(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	g := h.start(t, h.options())

	_, err := h.svc.SetWinnerCount(ctx, testGuild, g.ID, 1)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeWinnersUnchanged))

	_, err = h.svc.SetWinnerCount(ctx, testGuild, g.ID, 0)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	updated, err := h.svc.SetWinnerCount(ctx, testGuild, g.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.WinnerCount)

	_, err = h.svc.End(ctx, testGuild, g.ID)
	require.NoError(t, err)
	_, err = h.svc.SetWinnerCount(ctx, testGuild, g.ID, 3)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeGiveawayNotActive))
}

func TestRemoveDeparted(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	a := h.start(t, h.options())
	b := h.start(t, h.options())
	c := h.start(t, h.options())
	h.join(t, a, 10, 11)
	h.join(t, b, 10)
	h.join(t, c, 11)
	_, err := h.svc.End(ctx, testGuild, b.ID)
	require.NoError(t, err)

	saves := h.repo.saveCount()
	n, err := h.svc.RemoveDeparted(ctx, testGuild, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "ended giveaways keep their entrants")
	assert.Equal(t, saves+1, h.repo.saveCount(), "one batch write")

	got, err := h.svc.Get(ctx, testGuild, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{11}, got.Entrants)
	got, err = h.svc.Get(ctx, testGuild, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{10}, got.Entrants)

	n, err = h.svc.RemoveDeparted(ctx, testGuild, 12)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRemoveDepartedRollsBack(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	a := h.start(t, h.options())
	h.join(t, a, 10, 11)

	h.repo.fail = errBoom
	_, err := h.svc.RemoveDeparted(ctx, testGuild, 10)
	require.Error(t, err)

	got, err := h.svc.Get(ctx, testGuild, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{10, 11}, got.Entrants)
}

func TestStateSurvivesRestart(t *testing.T) {
	h := newHarness(10, 11)
	ctx := context.Background()
	ended := h.start(t, h.options())
	h.join(t, ended, 10, 11)
	running := h.start(t, h.options())
	h.join(t, running, 11)

	h.clock.Advance(30 * time.Minute)
	_, err := h.svc.End(ctx, testGuild, ended.ID)
	require.NoError(t, err)
	before, err := h.svc.Get(ctx, testGuild, ended.ID)
	require.NoError(t, err)

	h.restart(t)

	after, err := h.svc.Get(ctx, testGuild, ended.ID)
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.Entrants, after.Entrants)
	assert.Equal(t, before.WinnerIDs, after.WinnerIDs)
	assert.True(t, after.EndHandled)

	active := h.svc.ListActive(testGuild)
	require.Len(t, active, 1)
	assert.Equal(t, running.ID, active[0].ID)
	assert.Equal(t, []snowflake.ID{11}, active[0].Entrants)
}

func TestActiveImpliesNotHandled(t *testing.T) {
	h := newHarness(10)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		g := h.start(t, h.options())
		h.join(t, g, 10)
	}
	h.clock.Advance(time.Hour)
	for _, d := range h.svc.Due()[:2] {
		require.NoError(t, h.svc.Expire(ctx, d))
	}

	for _, g := range h.svc.ListActive(testGuild) {
		assert.False(t, g.EndHandled)
	}
	assert.Len(t, h.svc.ListActive(testGuild), 1)
	assert.Equal(t, map[snowflake.ID]int{testGuild: 1}, h.svc.ActiveCounts())
}

func TestRestartLoadsExclusionsBeforeExpiry(t *testing.T) {
	h := newHarness(42, 43)
	ctx := context.Background()
	g := h.start(t, h.options())
	h.join(t, g, 42)

	// Process restarts with an empty exclusion mirror while the giveaway
	// expires; user 42 was excluded before the restart.
	h.exclusions = newExclusions()
	h.exclusions.storedUsers[42] = true
	h.clock.Advance(2 * time.Hour)
	h.restart(t)

	assert.Equal(t, []snowflake.ID{testGuild}, h.exclusions.reloaded)
	due := h.svc.Due()
	require.Len(t, due, 1)
	require.NoError(t, h.svc.Expire(ctx, due[0]))

	got, err := h.svc.Get(ctx, testGuild, g.ID)
	require.NoError(t, err)
	assert.Empty(t, got.WinnerIDs)
	assert.True(t, got.EndHandled)
}

func TestJoinDoesNotResolveMembers(t *testing.T) {
	users := make([]snowflake.ID, 200)
	for i := range users {
		users[i] = snowflake.ID(100 + i)
	}
	h := newHarness(users...)
	g := h.start(t, h.options())

	h.join(t, g, users...)
	assert.Zero(t, h.members.lookupCount())

	h.clock.Advance(time.Hour)
	for _, d := range h.svc.Due() {
		require.NoError(t, h.svc.Expire(context.Background(), d))
	}
	assert.Equal(t, 1, h.members.lookupCount(), "one lookup for the single winner drawn")
}
