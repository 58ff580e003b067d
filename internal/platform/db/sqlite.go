package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/open-builders/giveaway-discord-bot/internal/platform/retry"
)

const schema = `
CREATE TABLE IF NOT EXISTS giveaways (
	id             BLOB PRIMARY KEY,
	guild_id       INTEGER NOT NULL,
	channel_id     INTEGER NOT NULL,
	creator_id     INTEGER NOT NULL,
	title          TEXT NOT NULL,
	description    TEXT NOT NULL,
	image_uri      TEXT NOT NULL DEFAULT '',
	start_time     INTEGER NOT NULL,
	end_time       INTEGER NOT NULL,
	winner_count   INTEGER NOT NULL,
	end_handled    INTEGER NOT NULL DEFAULT 0,
	message_id     INTEGER NOT NULL DEFAULT 0,
	log_message_id INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_giveaways_active ON giveaways (end_handled, guild_id);

CREATE TABLE IF NOT EXISTS giveaway_entrants (
	giveaway_id BLOB NOT NULL REFERENCES giveaways (id),
	position    INTEGER NOT NULL,
	user_id     INTEGER NOT NULL,
	PRIMARY KEY (giveaway_id, user_id)
);

CREATE TABLE IF NOT EXISTS giveaway_winners (
	giveaway_id BLOB NOT NULL REFERENCES giveaways (id),
	place       INTEGER NOT NULL,
	user_id     INTEGER NOT NULL,
	PRIMARY KEY (giveaway_id, place)
);

CREATE TABLE IF NOT EXISTS excluded_users (
	guild_id        INTEGER NOT NULL,
	user_id         INTEGER NOT NULL,
	staff_member_id INTEGER NOT NULL,
	reason          TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (guild_id, user_id)
);

CREATE TABLE IF NOT EXISTS excluded_roles (
	guild_id        INTEGER NOT NULL,
	role_id         INTEGER NOT NULL,
	staff_member_id INTEGER NOT NULL,
	reason          TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (guild_id, role_id)
);
`

// Open opens (creating if needed) the SQLite database at path and applies the schema.
func Open(ctx context.Context, log zerolog.Logger, path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty sqlite path")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)

	if err := retry.Do(ctx, log, "sqlite", 5, db.PingContext); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	log.Info().Str("path", cleanPath).Msg("SQLite database ready")
	return db, nil
}
