package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

type AvailabilityRepository interface {
	// Add игнорирует повторную отправку того же слота.
	Add(ctx context.Context, exec SQLExecutor, pref *models.Availability) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Availability, error)
}

type postgresAvailabilityRepository struct {
	db *sql.DB
}

func NewPostgresAvailabilityRepository(db *sql.DB) AvailabilityRepository {
	return &postgresAvailabilityRepository{db: db}
}

func (r *postgresAvailabilityRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresAvailabilityRepository) Add(ctx context.Context, exec SQLExecutor, pref *models.Availability) error {
	query := `
		INSERT INTO availability (tournament_id, match_uid, team_id, slot_start)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT availability_slot_key DO NOTHING`

	_, err := r.getExecutor(exec).ExecContext(ctx, query, pref.TournamentID, pref.MatchUID, pref.TeamID, pref.Start)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to save availability: %w", err)
	}
	return nil
}

func (r *postgresAvailabilityRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Availability, error) {
	query := `
		SELECT id, tournament_id, match_uid, team_id, slot_start
		FROM availability
		WHERE tournament_id = $1
		ORDER BY slot_start, id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	prefs := make([]models.Availability, 0)
	for rows.Next() {
		var a models.Availability
		if err := rows.Scan(&a.ID, &a.TournamentID, &a.MatchUID, &a.TeamID, &a.Start); err != nil {
			return nil, fmt.Errorf("failed to scan availability row: %w", err)
		}
		prefs = append(prefs, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating availability rows: %w", err)
	}
	return prefs, nil
}
