package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration - один шаг схемы. Name пишется в schema_migrations и не должен меняться.
type Migration struct {
	Name string
	Up   string
}

// Migrations is the ordered schema history.
var Migrations = []Migration{
	{
		Name: "0001_create_tournaments",
		Up: `
			CREATE TABLE IF NOT EXISTS tournaments (
				id            SERIAL PRIMARY KEY,
				name          VARCHAR(255) NOT NULL,
				status        VARCHAR(32) NOT NULL DEFAULT 'registration',
				current_stage INT NOT NULL DEFAULT 0,
				start_date    TIMESTAMPTZ NOT NULL,
				created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE TABLE IF NOT EXISTS stages (
				id            SERIAL PRIMARY KEY,
				tournament_id INT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
				stage_index   INT NOT NULL,
				format        VARCHAR(32) NOT NULL,
				status        VARCHAR(32) NOT NULL DEFAULT 'pending',
				settings      JSONB NOT NULL DEFAULT '{}',
				CONSTRAINT stages_tournament_index_key UNIQUE (tournament_id, stage_index)
			);
			CREATE TABLE IF NOT EXISTS teams (
				id            SERIAL PRIMARY KEY,
				tournament_id INT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
				name          VARCHAR(255) NOT NULL,
				seed          INT NULL,
				registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				withdrawn     BOOLEAN NOT NULL DEFAULT FALSE,
				CONSTRAINT teams_tournament_name_key UNIQUE (tournament_id, name)
			);`,
	},
	{
		Name: "0002_create_matches",
		Up: `
			CREATE TABLE IF NOT EXISTS matches (
				id                SERIAL PRIMARY KEY,
				tournament_id     INT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
				stage_index       INT NOT NULL,
				bracket_match_uid VARCHAR(64) NOT NULL,
				side              VARCHAR(32) NOT NULL,
				group_label       VARCHAR(16) NOT NULL DEFAULT '',
				round             INT NOT NULL,
				order_in_round    INT NOT NULL,
				label             VARCHAR(32) NOT NULL DEFAULT '',
				slots_json        JSONB NOT NULL,
				best_of           INT NOT NULL,
				status            VARCHAR(32) NOT NULL DEFAULT 'pending',
				score_a           INT NULL,
				score_b           INT NULL,
				winner_team_id    INT NULL REFERENCES teams(id),
				winner_to_uid     VARCHAR(64) NULL,
				winner_to_slot    INT NULL,
				loser_to_uid      VARCHAR(64) NULL,
				loser_to_slot     INT NULL,
				terminal          BOOLEAN NOT NULL DEFAULT FALSE,
				scheduled_at      TIMESTAMPTZ NULL,
				updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				CONSTRAINT matches_stage_uid_key UNIQUE (tournament_id, stage_index, bracket_match_uid)
			);
			CREATE INDEX IF NOT EXISTS idx_matches_scheduled_at ON matches(scheduled_at);`,
	},
	{
		Name: "0003_create_draws_availability_corrections",
		Up: `
			CREATE TABLE IF NOT EXISTS draws (
				id               SERIAL PRIMARY KEY,
				tournament_id    INT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
				stage_index      INT NOT NULL,
				seed             CHAR(64) NOT NULL,
				group_count      INT NOT NULL,
				assignments_json JSONB NOT NULL,
				created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				CONSTRAINT draws_tournament_stage_key UNIQUE (tournament_id, stage_index)
			);
			CREATE TABLE IF NOT EXISTS availability (
				id            SERIAL PRIMARY KEY,
				tournament_id INT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
				match_uid     VARCHAR(64) NOT NULL,
				team_id       INT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
				slot_start    TIMESTAMPTZ NOT NULL,
				CONSTRAINT availability_slot_key UNIQUE (tournament_id, match_uid, team_id, slot_start)
			);
			CREATE TABLE IF NOT EXISTS corrections (
				id              SERIAL PRIMARY KEY,
				tournament_id   INT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
				match_uid       VARCHAR(64) NOT NULL,
				previous_winner INT NULL,
				new_winner      INT NULL,
				previous_scores INT[] NOT NULL,
				new_scores      INT[] NOT NULL,
				note            TEXT NOT NULL DEFAULT '',
				created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);`,
	},
	{
		Name: "0004_unique_team_seed",
		Up: `
			CREATE UNIQUE INDEX IF NOT EXISTS teams_tournament_seed_key
				ON teams (tournament_id, seed) WHERE seed IS NOT NULL;`,
	},
}

// Migrate применяет ещё не выполненные миграции, каждую в своей транзакции.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	for _, m := range Migrations {
		var applied bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, m.Name).Scan(&applied)
		if err != nil {
			return fmt.Errorf("failed to check migration %s: %w", m.Name, err)
		}
		if applied {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return err
		}
		logger.Info("migration applied", slog.String("name", m.Name))
	}
	return nil
}

func apply(ctx context.Context, db *sql.DB, m Migration) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", m.Name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, m.Up); err != nil {
		return fmt.Errorf("migration %s failed: %w", m.Name, err)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, m.Name); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", m.Name, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", m.Name, err)
	}
	return nil
}
