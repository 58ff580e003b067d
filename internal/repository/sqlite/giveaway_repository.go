package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/disgoorg/snowflake/v2"

	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
)

// GiveawayRepository persists giveaways with their entrants and winners.
type GiveawayRepository struct {
	db *sql.DB
}

func NewGiveawayRepository(db *sql.DB) *GiveawayRepository { return &GiveawayRepository{db: db} }

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

// CreateOrUpdate upserts the giveaway and replaces its entrant and winner rows in one transaction.
func (r *GiveawayRepository) CreateOrUpdate(ctx context.Context, g *dg.Giveaway) error {
	return r.CreateOrUpdateAll(ctx, []*dg.Giveaway{g})
}

// CreateOrUpdateAll writes a batch of giveaways in a single transaction.
func (r *GiveawayRepository) CreateOrUpdateAll(ctx context.Context, gs []*dg.Giveaway) (err error) {
	if len(gs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, g := range gs {
		if err = upsert(ctx, tx, g); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func upsert(ctx context.Context, tx *sql.Tx, g *dg.Giveaway) error {
	const qGiveaway = `
	INSERT INTO giveaways (id, guild_id, channel_id, creator_id, title, description, image_uri,
		start_time, end_time, winner_count, end_handled, message_id, log_message_id)
	VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
	ON CONFLICT (id) DO UPDATE SET
		channel_id = excluded.channel_id,
		title = excluded.title,
		description = excluded.description,
		image_uri = excluded.image_uri,
		end_time = excluded.end_time,
		winner_count = excluded.winner_count,
		end_handled = excluded.end_handled,
		message_id = excluded.message_id,
		log_message_id = excluded.log_message_id`
	if _, err := tx.ExecContext(ctx, qGiveaway,
		g.ID, int64(g.GuildID), int64(g.ChannelID), int64(g.CreatorID), g.Title, g.Description, g.ImageURI,
		toMillis(g.StartTime), toMillis(g.EndTime), g.WinnerCount, g.EndHandled, int64(g.MessageID), int64(g.LogMessageID),
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM giveaway_entrants WHERE giveaway_id = ?`, g.ID); err != nil {
		return err
	}
	for i, userID := range g.Entrants {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO giveaway_entrants (giveaway_id, position, user_id) VALUES (?,?,?)`,
			g.ID, i, int64(userID)); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM giveaway_winners WHERE giveaway_id = ?`, g.ID); err != nil {
		return err
	}
	for i, userID := range g.WinnerIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO giveaway_winners (giveaway_id, place, user_id) VALUES (?,?,?)`,
			g.ID, i+1, int64(userID)); err != nil {
			return err
		}
	}
	return nil
}

const selectGiveaway = `
	SELECT id, guild_id, channel_id, creator_id, title, description, image_uri,
		start_time, end_time, winner_count, end_handled, message_id, log_message_id
	FROM giveaways`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGiveaway(row rowScanner) (*dg.Giveaway, error) {
	var (
		g                             dg.Giveaway
		guildID, channelID, creatorID int64
		start, end                    int64
		messageID, logMessageID       int64
	)
	if err := row.Scan(&g.ID, &guildID, &channelID, &creatorID, &g.Title, &g.Description, &g.ImageURI,
		&start, &end, &g.WinnerCount, &g.EndHandled, &messageID, &logMessageID); err != nil {
		return nil, err
	}
	g.GuildID = snowflake.ID(guildID)
	g.ChannelID = snowflake.ID(channelID)
	g.CreatorID = snowflake.ID(creatorID)
	g.StartTime = fromMillis(start)
	g.EndTime = fromMillis(end)
	g.MessageID = snowflake.ID(messageID)
	g.LogMessageID = snowflake.ID(logMessageID)
	g.Entrants = []snowflake.ID{}
	g.WinnerIDs = []snowflake.ID{}
	return &g, nil
}

// GetByID returns the giveaway or nil when it does not exist.
func (r *GiveawayRepository) GetByID(ctx context.Context, id dg.ID) (*dg.Giveaway, error) {
	g, err := scanGiveaway(r.db.QueryRowContext(ctx, selectGiveaway+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	byID := map[dg.ID]*dg.Giveaway{g.ID: g}
	if err := r.loadMembers(ctx, byID, ` WHERE giveaway_id = ?`, id); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadAll returns every persisted giveaway, ended ones included.
func (r *GiveawayRepository) LoadAll(ctx context.Context) ([]*dg.Giveaway, error) {
	rows, err := r.db.QueryContext(ctx, selectGiveaway+` ORDER BY start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*dg.Giveaway
	byID := make(map[dg.ID]*dg.Giveaway)
	for rows.Next() {
		g, err := scanGiveaway(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
		byID[g.ID] = g
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_ = rows.Close()
	if err := r.loadMembers(ctx, byID, ""); err != nil {
		return nil, err
	}
	return out, nil
}

// loadMembers fills entrants and winners for the giveaways in byID.
// Each result set must be closed before the next query: the pool has one connection.
func (r *GiveawayRepository) loadMembers(ctx context.Context, byID map[dg.ID]*dg.Giveaway, where string, args ...any) error {
	err := r.scanPairs(ctx, `SELECT giveaway_id, user_id FROM giveaway_entrants`+where+` ORDER BY giveaway_id, position`, args,
		func(g *dg.Giveaway, userID snowflake.ID) { g.Entrants = append(g.Entrants, userID) }, byID)
	if err != nil {
		return err
	}
	return r.scanPairs(ctx, `SELECT giveaway_id, user_id FROM giveaway_winners`+where+` ORDER BY giveaway_id, place`, args,
		func(g *dg.Giveaway, userID snowflake.ID) { g.WinnerIDs = append(g.WinnerIDs, userID) }, byID)
}

func (r *GiveawayRepository) scanPairs(ctx context.Context, q string, args []any, apply func(*dg.Giveaway, snowflake.ID), byID map[dg.ID]*dg.Giveaway) error {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id     dg.ID
			userID int64
		)
		if err := rows.Scan(&id, &userID); err != nil {
			return err
		}
		if g, ok := byID[id]; ok {
			apply(g, snowflake.ID(userID))
		}
	}
	return rows.Err()
}
