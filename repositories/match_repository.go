package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound    = errors.New("match not found")
	ErrMatchInvalidTeam = errors.New("match references an unknown team")
)

type MatchRepository interface {
	// SaveAll вставляет или обновляет матчи по (tournament_id, stage_index, uid).
	SaveAll(ctx context.Context, exec SQLExecutor, tournamentID int, matches []*models.Match) error
	ListByStage(ctx context.Context, exec SQLExecutor, tournamentID, stageIndex int) ([]*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error)
	DeleteByUIDs(ctx context.Context, exec SQLExecutor, tournamentID, stageIndex int, uids []string) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, tournament_id, stage_index, bracket_match_uid, side, group_label, round, order_in_round,
	label, slots_json, best_of, status, score_a, score_b, winner_team_id,
	winner_to_uid, winner_to_slot, loser_to_uid, loser_to_slot, terminal, scheduled_at, updated_at`

// matchRow - плоское представление матча для одной строки таблицы.
type matchRow struct {
	slots        []byte
	scoreA       sql.NullInt64
	scoreB       sql.NullInt64
	winner       sql.NullInt64
	winnerToUID  sql.NullString
	winnerToSlot sql.NullInt64
	loserToUID   sql.NullString
	loserToSlot  sql.NullInt64
	scheduledAt  sql.NullTime
}

func encodeMatch(m *models.Match) (matchRow, error) {
	slots, err := json.Marshal(m.Slots)
	if err != nil {
		return matchRow{}, fmt.Errorf("failed to encode slots of %s: %w", m.UID, err)
	}
	row := matchRow{
		slots:  slots,
		scoreA: nullInt(m.Scores[0]),
		scoreB: nullInt(m.Scores[1]),
		winner: nullInt(m.WinnerID),
	}
	if m.WinnerTo != nil {
		row.winnerToUID = sql.NullString{String: m.WinnerTo.MatchUID, Valid: true}
		row.winnerToSlot = sql.NullInt64{Int64: int64(m.WinnerTo.Slot), Valid: true}
	}
	if m.LoserTo != nil {
		row.loserToUID = sql.NullString{String: m.LoserTo.MatchUID, Valid: true}
		row.loserToSlot = sql.NullInt64{Int64: int64(m.LoserTo.Slot), Valid: true}
	}
	if m.ScheduledAt != nil {
		row.scheduledAt = sql.NullTime{Time: *m.ScheduledAt, Valid: true}
	}
	return row, nil
}

func (row matchRow) decode(m *models.Match) error {
	if err := json.Unmarshal(row.slots, &m.Slots); err != nil {
		return fmt.Errorf("failed to decode slots of %s: %w", m.UID, err)
	}
	m.Scores = [2]*int{intPtr(row.scoreA), intPtr(row.scoreB)}
	m.WinnerID = intPtr(row.winner)
	m.WinnerTo, m.LoserTo, m.ScheduledAt = nil, nil, nil
	if row.winnerToUID.Valid {
		m.WinnerTo = &models.Link{MatchUID: row.winnerToUID.String, Slot: int(row.winnerToSlot.Int64)}
	}
	if row.loserToUID.Valid {
		m.LoserTo = &models.Link{MatchUID: row.loserToUID.String, Slot: int(row.loserToSlot.Int64)}
	}
	if row.scheduledAt.Valid {
		at := row.scheduledAt.Time
		m.ScheduledAt = &at
	}
	return nil
}

func (r *postgresMatchRepository) SaveAll(ctx context.Context, exec SQLExecutor, tournamentID int, matches []*models.Match) error {
	query := `
		INSERT INTO matches (
			tournament_id, stage_index, bracket_match_uid, side, group_label, round, order_in_round,
			label, slots_json, best_of, status, score_a, score_b, winner_team_id,
			winner_to_uid, winner_to_slot, loser_to_uid, loser_to_slot, terminal, scheduled_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW())
		ON CONFLICT (tournament_id, stage_index, bracket_match_uid) DO UPDATE SET
			slots_json = EXCLUDED.slots_json,
			label = EXCLUDED.label,
			status = EXCLUDED.status,
			score_a = EXCLUDED.score_a,
			score_b = EXCLUDED.score_b,
			winner_team_id = EXCLUDED.winner_team_id,
			winner_to_uid = EXCLUDED.winner_to_uid,
			winner_to_slot = EXCLUDED.winner_to_slot,
			loser_to_uid = EXCLUDED.loser_to_uid,
			loser_to_slot = EXCLUDED.loser_to_slot,
			terminal = EXCLUDED.terminal,
			scheduled_at = EXCLUDED.scheduled_at,
			updated_at = NOW()
		RETURNING id, updated_at`

	executor := r.getExecutor(exec)
	for _, m := range matches {
		row, err := encodeMatch(m)
		if err != nil {
			return err
		}
		var updatedAt time.Time
		err = executor.QueryRowContext(ctx, query,
			tournamentID, m.StageIndex, m.UID, m.Side, m.Group, m.Round, m.Order,
			m.Label, row.slots, m.BestOf, m.Status, row.scoreA, row.scoreB, row.winner,
			row.winnerToUID, row.winnerToSlot, row.loserToUID, row.loserToSlot, m.Terminal, row.scheduledAt,
		).Scan(&m.ID, &updatedAt)
		if err != nil {
			if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
				return fmt.Errorf("%w: %s", ErrMatchInvalidTeam, m.UID)
			}
			return fmt.Errorf("failed to save match %s: %w", m.UID, err)
		}
		m.TournamentID = tournamentID
		m.UpdatedAt = updatedAt
	}
	return nil
}

func (r *postgresMatchRepository) ListByStage(ctx context.Context, exec SQLExecutor, tournamentID, stageIndex int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 AND stage_index = $2`
	return r.list(ctx, exec, query, tournamentID, stageIndex)
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`
	return r.list(ctx, exec, query, tournamentID)
}

func (r *postgresMatchRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query+` ORDER BY stage_index, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var (
			m   models.Match
			row matchRow
		)
		err := rows.Scan(
			&m.ID, &m.TournamentID, &m.StageIndex, &m.UID, &m.Side, &m.Group, &m.Round, &m.Order,
			&m.Label, &row.slots, &m.BestOf, &m.Status, &row.scoreA, &row.scoreB, &row.winner,
			&row.winnerToUID, &row.winnerToSlot, &row.loserToUID, &row.loserToSlot, &m.Terminal,
			&row.scheduledAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		if err := row.decode(&m); err != nil {
			return nil, err
		}
		matches = append(matches, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) DeleteByUIDs(ctx context.Context, exec SQLExecutor, tournamentID, stageIndex int, uids []string) error {
	if len(uids) == 0 {
		return nil
	}
	query := `DELETE FROM matches WHERE tournament_id = $1 AND stage_index = $2 AND bracket_match_uid = ANY($3)`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, stageIndex, pq.Array(uids))
	if err != nil {
		return fmt.Errorf("failed to delete matches %v: %w", uids, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
