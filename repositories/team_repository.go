package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameConflict = errors.New("team name already taken in this tournament")
	ErrTeamSeedConflict = errors.New("team seed already taken in this tournament")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Team, error)
	MarkWithdrawn(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (tournament_id, name, seed)
		VALUES ($1, $2, $3)
		RETURNING id, registered_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query, team.TournamentID, team.Name, nullInt(team.Seed)).
		Scan(&team.ID, &team.RegisteredAt)
	if err != nil {
		if code, constraint := pgErrorCode(err); code == pgUniqueViolation {
			switch constraint {
			case "teams_tournament_name_key":
				return ErrTeamNameConflict
			case "teams_tournament_seed_key":
				return ErrTeamSeedConflict
			}
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Team, error) {
	query := `
		SELECT id, tournament_id, name, seed, registered_at, withdrawn
		FROM teams
		WHERE tournament_id = $1
		ORDER BY registered_at, id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var (
			t    models.Team
			seed sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.TournamentID, &t.Name, &seed, &t.RegisteredAt, &t.Withdrawn); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		t.Seed = intPtr(seed)
		teams = append(teams, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team rows: %w", err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) MarkWithdrawn(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) error {
	query := `UPDATE teams SET withdrawn = TRUE WHERE tournament_id = $1 AND id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, teamID)
	if err != nil {
		return fmt.Errorf("failed to withdraw team %d: %w", teamID, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
