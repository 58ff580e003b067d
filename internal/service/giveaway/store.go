package giveaway

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	apperrors "github.com/open-builders/giveaway-discord-bot/internal/common/errors"
	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
)

// Store owns the canonical giveaway records: one shared pointer per ID,
// persisted through the repository and mirrored to an optional cache.
type Store struct {
	repo  dg.Repository
	cache Cache
	log   zerolog.Logger

	mu    sync.RWMutex
	items map[dg.ID]*dg.Giveaway
}

// NewStore creates a store. cache may be nil.
func NewStore(repo dg.Repository, cache Cache, log zerolog.Logger) *Store {
	return &Store{
		repo:  repo,
		cache: cache,
		log:   log,
		items: make(map[dg.ID]*dg.Giveaway),
	}
}

// Load reads every persisted giveaway into memory and returns them.
func (s *Store) Load(ctx context.Context) ([]*dg.Giveaway, error) {
	gs, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load giveaways", err)
	}

	s.mu.Lock()
	s.items = make(map[dg.ID]*dg.Giveaway, len(gs))
	for _, g := range gs {
		s.items[g.ID] = g
	}
	s.mu.Unlock()
	return gs, nil
}

// Get returns the shared record, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, id dg.ID) (*dg.Giveaway, error) {
	s.mu.RLock()
	g, ok := s.items[id]
	s.mu.RUnlock()
	if ok {
		return g, nil
	}

	g = s.cached(ctx, id)
	if g == nil {
		var err error
		if g, err = s.repo.GetByID(ctx, id); err != nil {
			return nil, apperrors.NewDatabaseError("get giveaway", err)
		}
		if g == nil {
			return nil, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[id]; ok {
		return existing, nil
	}
	s.items[id] = g
	return g, nil
}

// Save persists the record and makes it the shared copy for its ID.
// Callers hold the record lock.
func (s *Store) Save(ctx context.Context, g *dg.Giveaway) error {
	if err := s.repo.CreateOrUpdate(ctx, g); err != nil {
		return apperrors.NewDatabaseError("save giveaway", err)
	}
	s.track(g)
	s.mirror(ctx, g)
	return nil
}

// SaveAll persists a batch in one transaction.
func (s *Store) SaveAll(ctx context.Context, gs []*dg.Giveaway) error {
	if len(gs) == 0 {
		return nil
	}
	if err := s.repo.CreateOrUpdateAll(ctx, gs); err != nil {
		return apperrors.NewDatabaseError("save giveaways", err)
	}
	for _, g := range gs {
		s.track(g)
		s.mirror(ctx, g)
	}
	return nil
}

func (s *Store) track(g *dg.Giveaway) {
	s.mu.Lock()
	s.items[g.ID] = g
	s.mu.Unlock()
}

// cached reads the snapshot; cache failures fall back to the repository.
func (s *Store) cached(ctx context.Context, id dg.ID) *dg.Giveaway {
	if s.cache == nil {
		return nil
	}
	g, err := s.cache.Get(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("giveaway_id", id.String()).Msg("Failed to read cached giveaway")
		return nil
	}
	return g
}

func (s *Store) mirror(ctx context.Context, g *dg.Giveaway) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, g); err != nil {
		s.log.Warn().Err(err).Str("giveaway_id", g.ID.String()).Msg("Failed to cache giveaway")
	}
}
