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
	ErrStageNotFound = errors.New("stage not found")
	ErrStageConflict = errors.New("stage with this index already exists")
)

type StageRepository interface {
	Create(ctx context.Context, exec SQLExecutor, stage *models.Stage) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Stage, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, tournamentID, stageIndex int, status models.StageStatus) error
}

type postgresStageRepository struct {
	db *sql.DB
}

func NewPostgresStageRepository(db *sql.DB) StageRepository {
	return &postgresStageRepository{db: db}
}

func (r *postgresStageRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStageRepository) Create(ctx context.Context, exec SQLExecutor, stage *models.Stage) error {
	settings, err := json.Marshal(models.SettingsOf(*stage))
	if err != nil {
		return fmt.Errorf("failed to encode stage settings: %w", err)
	}
	query := `
		INSERT INTO stages (tournament_id, stage_index, format, status, settings)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err = r.getExecutor(exec).QueryRowContext(ctx, query,
		stage.TournamentID, stage.Index, stage.Format, stage.Status, settings,
	).Scan(&stage.ID)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgUniqueViolation {
			return ErrStageConflict
		}
		return fmt.Errorf("failed to create stage: %w", err)
	}
	return nil
}

func (r *postgresStageRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Stage, error) {
	query := `
		SELECT id, tournament_id, stage_index, format, status, settings
		FROM stages
		WHERE tournament_id = $1
		ORDER BY stage_index`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	stages := make([]models.Stage, 0)
	for rows.Next() {
		var (
			s   models.Stage
			raw []byte
		)
		if err := rows.Scan(&s.ID, &s.TournamentID, &s.Index, &s.Format, &s.Status, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan stage row: %w", err)
		}
		settings, err := models.ParseStageSettings(raw)
		if err != nil {
			return nil, fmt.Errorf("stage %d of tournament %d: %w", s.Index, tournamentID, err)
		}
		settings.Apply(&s)
		stages = append(stages, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stage rows: %w", err)
	}
	return stages, nil
}

func (r *postgresStageRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, tournamentID, stageIndex int, status models.StageStatus) error {
	query := `UPDATE stages SET status = $1 WHERE tournament_id = $2 AND stage_index = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, status, tournamentID, stageIndex)
	if err != nil {
		return fmt.Errorf("failed to update stage %d status: %w", stageIndex, err)
	}
	return checkAffectedRows(result, ErrStageNotFound)
}
