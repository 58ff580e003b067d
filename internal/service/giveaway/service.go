package giveaway

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/open-builders/giveaway-discord-bot/internal/common/errors"
	"github.com/open-builders/giveaway-discord-bot/internal/common/validation"
	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
	"github.com/open-builders/giveaway-discord-bot/internal/utils/random"
)

// refreshConcurrency bounds concurrent log message refreshes after a member leaves.
const refreshConcurrency = 4

// CreateOptions describes a new giveaway.
type CreateOptions struct {
	GuildID     snowflake.ID `validate:"required"`
	ChannelID   snowflake.ID `validate:"required"`
	CreatorID   snowflake.ID `validate:"required"`
	Title       string       `validate:"notblank,max=255"`
	Description string       `validate:"notblank,max=4000"`
	ImageURI    string       `validate:"omitempty,http_url"`
	WinnerCount int          `validate:"gte=1"`
	EndTime     time.Time    `validate:"required"`
}

// Service contains the giveaway lifecycle rules.
type Service struct {
	store      *Store
	tracker    *Tracker
	locks      *recordLocks
	validator  *Validator
	selector   *Selector
	notifier   Notifier
	exclusions ExclusionLoader
	validate   *validation.Validator
	log        zerolog.Logger
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithExclusionLoader makes Load read the exclusion lists of every guild
// with an active giveaway before anything can expire.
func WithExclusionLoader(l ExclusionLoader) Option {
	return func(s *Service) { s.exclusions = l }
}

// WithPicker replaces the crypto/rand based winner picker.
func WithPicker(p random.Picker) Option {
	return func(s *Service) { s.selector = NewSelector(s.validator, p) }
}

func NewService(store *Store, tracker *Tracker, validator *Validator, notifier Notifier, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		tracker:   tracker,
		locks:     newRecordLocks(),
		validator: validator,
		selector:  NewSelector(validator, nil),
		notifier:  notifier,
		validate:  validation.New(),
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fills the store from the repository, tracks every giveaway that has
// not been handled yet and loads the exclusions of their guilds. Run once
// before the expiry worker starts.
func (s *Service) Load(ctx context.Context) error {
	gs, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	active := s.tracker.Load(gs)

	if s.exclusions != nil {
		for guildID := range s.tracker.Counts() {
			if err := s.exclusions.Reload(ctx, guildID); err != nil {
				return err
			}
		}
	}
	s.log.Info().Int("total", len(gs)).Int("active", active).Msg("Giveaways loaded")
	return nil
}

// Create validates the options and persists a new giveaway. The result is
// not active until it is registered and announced.
func (s *Service) Create(ctx context.Context, opts CreateOptions) (*dg.Giveaway, error) {
	opts.Title = strings.TrimSpace(opts.Title)
	opts.Description = strings.TrimSpace(opts.Description)
	opts.ImageURI = strings.TrimSpace(opts.ImageURI)
	if err := s.validate.ValidateStruct(opts); err != nil {
		return nil, err
	}

	now := s.now()
	if !opts.EndTime.After(now) {
		return nil, apperrors.NewValidationError("end_time", "must be in the future")
	}

	g := &dg.Giveaway{
		ID:          dg.NewID(),
		GuildID:     opts.GuildID,
		ChannelID:   opts.ChannelID,
		CreatorID:   opts.CreatorID,
		Title:       opts.Title,
		Description: opts.Description,
		ImageURI:    opts.ImageURI,
		StartTime:   now,
		EndTime:     opts.EndTime,
		WinnerCount: opts.WinnerCount,
		Entrants:    []snowflake.ID{},
		WinnerIDs:   []snowflake.ID{},
	}
	if err := s.store.Save(ctx, g); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("giveaway_id", g.ID.String()).
		Str("guild_id", g.GuildID.String()).
		Str("creator_id", g.CreatorID.String()).
		Time("end_time", g.EndTime).
		Int("winner_count", g.WinnerCount).
		Msg("Giveaway created")
	return g.Clone(), nil
}

// Register makes a created giveaway active.
func (s *Service) Register(ctx context.Context, id dg.ID) error {
	g, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if g == nil {
		return apperrors.NewGiveawayNotFoundError(id.String())
	}

	unlock := s.locks.Lock(g.ID)
	defer unlock()
	if g.EndHandled {
		return apperrors.NewStateError(apperrors.ErrCodeGiveawayNotActive, g.ID.String(), "Giveaway has already ended")
	}
	s.tracker.Add(g)
	return nil
}

// Announce posts the public message and the log channel copy, then stores
// both message ids.
func (s *Service) Announce(ctx context.Context, id dg.ID) (*dg.Giveaway, error) {
	g, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, apperrors.NewGiveawayNotFoundError(id.String())
	}

	unlock := s.locks.Lock(g.ID)
	defer unlock()

	v := s.view(g)
	msgID, err := s.notifier.Announce(ctx, v)
	if err != nil {
		return nil, apperrors.NewDiscordAPIError("announce giveaway", err)
	}
	g.MessageID = msgID

	v = s.view(g)
	if logID, err := s.notifier.PostLog(ctx, v); err != nil {
		s.log.Warn().Err(err).Str("giveaway_id", g.ID.String()).Msg("Failed to post giveaway to log channel")
	} else {
		g.LogMessageID = logID
	}

	if err := s.store.Save(ctx, g); err != nil {
		return nil, err
	}
	return g.Clone(), nil
}

// Join adds the user to the entrants of an active giveaway.
func (s *Service) Join(ctx context.Context, guildID snowflake.ID, id dg.ID, userID snowflake.ID) (dg.JoinResult, error) {
	g, err := s.lookup(ctx, guildID, id)
	if err != nil {
		return 0, err
	}

	unlock := s.locks.Lock(g.ID)
	defer unlock()

	if !s.tracker.IsActive(g) {
		return 0, apperrors.NewStateError(apperrors.ErrCodeGiveawayNotActive, g.ID.String(), "This giveaway has ended")
	}
	if g.IsExpired(s.now()) {
		return 0, apperrors.NewStateError(apperrors.ErrCodeGiveawayExpired, g.ID.String(), "This giveaway has ended")
	}
	if g.HasEntrant(userID) {
		return dg.JoinResultAlreadyJoined, nil
	}

	g.Entrants = append(g.Entrants, userID)
	if err := s.store.Save(ctx, g); err != nil {
		g.RemoveEntrant(userID)
		return 0, err
	}

	s.log.Debug().
		Str("giveaway_id", g.ID.String()).
		Str("user_id", userID.String()).
		Int("entrants", len(g.Entrants)).
		Msg("User joined giveaway")
	s.refreshLog(ctx, s.view(g))
	return dg.JoinResultJoined, nil
}

// RemoveDeparted drops a user who left the guild from every active giveaway
// there. Affected records are persisted in one batch. It returns how many
// giveaways changed.
func (s *Service) RemoveDeparted(ctx context.Context, guildID, userID snowflake.ID) (int, error) {
	active := s.tracker.ListActive(guildID)
	slices.SortFunc(active, func(a, b *dg.Giveaway) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})

	type change struct {
		g    *dg.Giveaway
		prev []snowflake.ID
	}
	var changes []change
	var unlocks []func()
	release := func() {
		for _, unlock := range unlocks {
			unlock()
		}
		unlocks = nil
	}
	defer release()

	for _, g := range active {
		unlocks = append(unlocks, s.locks.Lock(g.ID))
		if !s.tracker.IsActive(g) || !g.HasEntrant(userID) {
			continue
		}
		prev := slices.Clone(g.Entrants)
		g.RemoveEntrant(userID)
		changes = append(changes, change{g: g, prev: prev})
	}
	if len(changes) == 0 {
		return 0, nil
	}

	batch := make([]*dg.Giveaway, len(changes))
	for i, c := range changes {
		batch[i] = c.g
	}
	if err := s.store.SaveAll(ctx, batch); err != nil {
		for _, c := range changes {
			c.g.Entrants = c.prev
		}
		return 0, err
	}

	views := make([]View, len(batch))
	for i, g := range batch {
		views[i] = s.view(g)
	}
	release()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(refreshConcurrency)
	for _, v := range views {
		eg.Go(func() error {
			s.refreshLog(egCtx, v)
			return nil
		})
	}
	_ = eg.Wait()

	s.log.Info().
		Str("guild_id", guildID.String()).
		Str("user_id", userID.String()).
		Int("giveaways", len(batch)).
		Msg("Departed member removed from giveaways")
	return len(batch), nil
}

// Due returns the active giveaways whose end time has passed.
func (s *Service) Due() []*dg.Giveaway {
	return s.tracker.Due(s.now())
}

// Expire runs the end-of-giveaway workflow once. A giveaway that was
// already handled is skipped. Once claimed, failures are logged and never
// undo the claim.
func (s *Service) Expire(ctx context.Context, g *dg.Giveaway) error {
	unlock := s.locks.Lock(g.ID)
	defer unlock()

	if !s.tracker.Claim(g) {
		return nil
	}

	g.WinnerIDs = s.selector.Select(ctx, g, nil)
	log := s.log.With().Str("giveaway_id", g.ID.String()).Logger()

	var saveErr error
	if saveErr = s.store.Save(ctx, g); saveErr != nil {
		log.Error().Err(saveErr).Msg("Failed to persist giveaway result")
	}

	v := s.view(g)
	log.Info().
		Int("entrants", len(g.Entrants)).
		Int("excluded", v.ExcludedEntrants).
		Int("winners", len(g.WinnerIDs)).
		Int("winner_count", g.WinnerCount).
		Msg("Giveaway expired")

	s.render(ctx, v, true)
	return saveErr
}

// End finishes an active giveaway immediately. Manual ends select no winners.
func (s *Service) End(ctx context.Context, guildID snowflake.ID, id dg.ID) (*dg.Giveaway, error) {
	g, err := s.lookup(ctx, guildID, id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(g.ID)
	defer unlock()

	if !s.tracker.ClaimAt(g, s.now()) {
		return nil, apperrors.NewStateError(apperrors.ErrCodeGiveawayNotActive, g.ID.String(), "Giveaway is not active")
	}
	g.WinnerIDs = []snowflake.ID{}

	saveErr := s.store.Save(ctx, g)
	if saveErr != nil {
		s.log.Error().Err(saveErr).Str("giveaway_id", g.ID.String()).Msg("Failed to persist ended giveaway")
	}

	s.log.Info().Str("giveaway_id", g.ID.String()).Msg("Giveaway ended manually")
	s.render(ctx, s.view(g), true)
	return g.Clone(), saveErr
}

// Redraw picks new winners for an ended giveaway. keepRaw holds
// whitespace-separated user ids to keep as winners; tokens that do not
// parse or whose user is not eligible are returned as invalid.
func (s *Service) Redraw(ctx context.Context, guildID snowflake.ID, id dg.ID, keepRaw string) (*dg.Giveaway, []string, error) {
	g, err := s.lookup(ctx, guildID, id)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.locks.Lock(g.ID)
	defer unlock()

	if s.tracker.IsActive(g) {
		return nil, nil, apperrors.NewStateError(apperrors.ErrCodeGiveawayActive, g.ID.String(), "Giveaway is still active")
	}

	var keep []snowflake.ID
	var invalid []string
	for _, token := range strings.Fields(keepRaw) {
		userID, err := snowflake.Parse(token)
		if err != nil || !s.validator.Valid(ctx, g.GuildID, userID) {
			invalid = append(invalid, token)
			continue
		}
		keep = append(keep, userID)
	}

	prev := g.WinnerIDs
	g.WinnerIDs = s.selector.Select(ctx, g, keep)
	if err := s.store.Save(ctx, g); err != nil {
		g.WinnerIDs = prev
		return nil, nil, err
	}

	s.log.Info().
		Str("giveaway_id", g.ID.String()).
		Int("kept", len(keep)).
		Int("invalid", len(invalid)).
		Int("winners", len(g.WinnerIDs)).
		Msg("Giveaway redrawn")
	s.render(ctx, s.view(g), false)
	return g.Clone(), invalid, nil
}

// SetWinnerCount changes the winner count of an active giveaway.
func (s *Service) SetWinnerCount(ctx context.Context, guildID snowflake.ID, id dg.ID, count int) (*dg.Giveaway, error) {
	if count < 1 {
		return nil, apperrors.NewValidationError("winners", "must be at least 1")
	}
	g, err := s.lookup(ctx, guildID, id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(g.ID)
	defer unlock()

	if !s.tracker.IsActive(g) {
		return nil, apperrors.NewStateError(apperrors.ErrCodeGiveawayNotActive, g.ID.String(), "Giveaway is not active")
	}
	if g.WinnerCount == count {
		return nil, apperrors.NewStateError(apperrors.ErrCodeWinnersUnchanged, g.ID.String(),
			"Giveaway already has that winner count").WithDetail("winner_count", count)
	}

	prev := g.WinnerCount
	g.WinnerCount = count
	if err := s.store.Save(ctx, g); err != nil {
		g.WinnerCount = prev
		return nil, err
	}

	s.log.Info().
		Str("giveaway_id", g.ID.String()).
		Int("from", prev).
		Int("to", count).
		Msg("Winner count changed")
	s.render(ctx, s.view(g), false)
	return g.Clone(), nil
}

// Get returns a snapshot of the giveaway.
func (s *Service) Get(ctx context.Context, guildID snowflake.ID, id dg.ID) (*dg.Giveaway, error) {
	g, err := s.lookup(ctx, guildID, id)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(g.ID)
	defer unlock()
	return g.Clone(), nil
}

// Information returns the information view of the giveaway.
func (s *Service) Information(ctx context.Context, guildID snowflake.ID, id dg.ID) (View, error) {
	g, err := s.lookup(ctx, guildID, id)
	if err != nil {
		return View{}, err
	}
	unlock := s.locks.Lock(g.ID)
	defer unlock()
	return s.view(g), nil
}

// ListActive returns snapshots of the guild's active giveaways.
func (s *Service) ListActive(guildID snowflake.ID) []*dg.Giveaway {
	active := s.tracker.ListActive(guildID)
	out := make([]*dg.Giveaway, 0, len(active))
	for _, g := range active {
		unlock := s.locks.Lock(g.ID)
		out = append(out, g.Clone())
		unlock()
	}
	return out
}

// ActiveCounts returns the number of active giveaways per guild.
func (s *Service) ActiveCounts() map[snowflake.ID]int {
	return s.tracker.Counts()
}

func (s *Service) lookup(ctx context.Context, guildID snowflake.ID, id dg.ID) (*dg.Giveaway, error) {
	g, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, apperrors.NewGiveawayNotFoundError(id.String())
	}
	if g.GuildID != guildID {
		return nil, apperrors.NewWrongGuildError(id.String())
	}
	return g, nil
}

// view builds a detached snapshot. Callers hold the record lock.
func (s *Service) view(g *dg.Giveaway) View {
	return View{
		Giveaway:         g.Clone(),
		ExcludedEntrants: s.validator.CountExcluded(g),
		Active:           s.tracker.IsActive(g),
	}
}

// render refreshes the public and log messages, posting the expiry outcome
// first when ended is set. Failures are logged.
func (s *Service) render(ctx context.Context, v View, ended bool) {
	log := s.log.With().Str("giveaway_id", v.Giveaway.ID.String()).Logger()
	if ended {
		if err := s.notifier.LogEnded(ctx, v); err != nil {
			log.Warn().Err(err).Msg("Failed to log giveaway result")
		}
	}
	if err := s.notifier.RefreshAnnouncement(ctx, v); err != nil {
		log.Warn().Err(err).Msg("Failed to update giveaway message")
	}
	s.refreshLog(ctx, v)
}

func (s *Service) refreshLog(ctx context.Context, v View) {
	if err := s.notifier.RefreshLog(ctx, v); err != nil {
		s.log.Warn().Err(err).Str("giveaway_id", v.Giveaway.ID.String()).Msg("Failed to update giveaway log message")
	}
}
