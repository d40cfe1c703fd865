package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

var (
	ErrDrawNotFound = errors.New("draw not found")
	ErrDrawExists   = errors.New("draw for this stage already exists")
)

type DrawRepository interface {
	Create(ctx context.Context, exec SQLExecutor, record *models.DrawRecord) error
	GetByStage(ctx context.Context, exec SQLExecutor, tournamentID, stageIndex int) (*models.DrawRecord, error)
}

type postgresDrawRepository struct {
	db *sql.DB
}

func NewPostgresDrawRepository(db *sql.DB) DrawRepository {
	return &postgresDrawRepository{db: db}
}

func (r *postgresDrawRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresDrawRepository) Create(ctx context.Context, exec SQLExecutor, record *models.DrawRecord) error {
	assignments, err := json.Marshal(record.Assignments)
	if err != nil {
		return fmt.Errorf("failed to encode draw assignments: %w", err)
	}
	query := `
		INSERT INTO draws (tournament_id, stage_index, seed, group_count, assignments_json)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err = r.getExecutor(exec).QueryRowContext(ctx, query,
		record.TournamentID, record.StageIndex, record.Seed, record.GroupCount, assignments,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgUniqueViolation {
			return ErrDrawExists
		}
		return fmt.Errorf("failed to save draw: %w", err)
	}
	return nil
}

func (r *postgresDrawRepository) GetByStage(ctx context.Context, exec SQLExecutor, tournamentID, stageIndex int) (*models.DrawRecord, error) {
	query := `
		SELECT id, tournament_id, stage_index, seed, group_count, assignments_json, created_at
		FROM draws
		WHERE tournament_id = $1 AND stage_index = $2`

	var (
		d   models.DrawRecord
		raw []byte
	)
	err := r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, stageIndex).Scan(
		&d.ID, &d.TournamentID, &d.StageIndex, &d.Seed, &d.GroupCount, &raw, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDrawNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &d.Assignments); err != nil {
		return nil, fmt.Errorf("failed to decode draw assignments: %w", err)
	}
	return &d, nil
}
