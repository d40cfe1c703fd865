package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/lib/pq"
)

type CorrectionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournamentID int, c *models.Correction) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Correction, error)
}

type postgresCorrectionRepository struct {
	db *sql.DB
}

func NewPostgresCorrectionRepository(db *sql.DB) CorrectionRepository {
	return &postgresCorrectionRepository{db: db}
}

func (r *postgresCorrectionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func scoreArray(scores [2]*int) []sql.NullInt64 {
	return []sql.NullInt64{nullInt(scores[0]), nullInt(scores[1])}
}

func scorePair(values []sql.NullInt64) [2]*int {
	var out [2]*int
	for i := 0; i < len(values) && i < 2; i++ {
		out[i] = intPtr(values[i])
	}
	return out
}

func (r *postgresCorrectionRepository) Create(ctx context.Context, exec SQLExecutor, tournamentID int, c *models.Correction) error {
	query := `
		INSERT INTO corrections (tournament_id, match_uid, previous_winner, new_winner, previous_scores, new_scores, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		tournamentID, c.MatchUID, nullInt(c.PreviousWinner), nullInt(c.NewWinner),
		pq.Array(scoreArray(c.PreviousScores)), pq.Array(scoreArray(c.NewScores)), c.Note, c.At,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to save correction for %s: %w", c.MatchUID, err)
	}
	c.TournamentID = tournamentID
	return nil
}

func (r *postgresCorrectionRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Correction, error) {
	query := `
		SELECT id, tournament_id, match_uid, previous_winner, new_winner, previous_scores, new_scores, note, created_at
		FROM corrections
		WHERE tournament_id = $1
		ORDER BY created_at, id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list corrections for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	corrections := make([]models.Correction, 0)
	for rows.Next() {
		var (
			c                  models.Correction
			prevWinner, winner sql.NullInt64
			prev, next         []sql.NullInt64
		)
		err := rows.Scan(&c.ID, &c.TournamentID, &c.MatchUID, &prevWinner, &winner,
			pq.Array(&prev), pq.Array(&next), &c.Note, &c.At)
		if err != nil {
			return nil, fmt.Errorf("failed to scan correction row: %w", err)
		}
		c.PreviousWinner, c.NewWinner = intPtr(prevWinner), intPtr(winner)
		c.PreviousScores, c.NewScores = scorePair(prev), scorePair(next)
		corrections = append(corrections, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating correction rows: %w", err)
	}
	return corrections, nil
}
