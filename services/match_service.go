package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/progression"
	"github.com/Dosada05/tournament-engine/realtime"
	"github.com/Dosada05/tournament-engine/repositories"
)

// stageState - загруженный в транзакции этап с восстановленной сеткой.
type stageState struct {
	tournament *models.Tournament
	stage      *models.Stage
	next       *models.Stage
	bracket    *brackets.Bracket
}

// loadState restores the bracket of a stage, the current one when stageIndex is nil.
func (s *tournamentService) loadState(ctx context.Context, tx repositories.SQLExecutor, tournamentID int, stageIndex *int) (*stageState, error) {
	t, err := s.loadTournament(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	index := t.CurrentStage
	if stageIndex != nil {
		index = *stageIndex
	}
	stage, next, err := stageOf(t, index)
	if err != nil {
		return nil, err
	}
	if stage.Status == models.StageStatusPending {
		return nil, fmt.Errorf("%w: stage %d", ErrStageNotStarted, index)
	}
	matches, err := s.repos.Matches.ListByStage(ctx, tx, tournamentID, index)
	if err != nil {
		return nil, err
	}
	b, err := brackets.Restore(index, stage.Format, matches, withdrawnIDs(t.Teams))
	if err != nil {
		return nil, fmt.Errorf("stored bracket of stage %d is inconsistent: %w", index, err)
	}
	return &stageState{tournament: t, stage: stage, next: next, bracket: b}, nil
}

func (s *tournamentService) StartMatch(ctx context.Context, tournamentID int, matchUID string) (*TransitionResult, error) {
	return s.transition(ctx, tournamentID, "start", func(c *progression.Controller, _ *stageState) (progression.Outcome, error) {
		return c.StartMatch(matchUID)
	})
}

func (s *tournamentService) ReportResult(ctx context.Context, tournamentID int, matchUID string, input ResultInput) (*TransitionResult, error) {
	return s.transition(ctx, tournamentID, "result", func(c *progression.Controller, _ *stageState) (progression.Outcome, error) {
		return c.ApplyResult(matchUID, input.ScoreA, input.ScoreB)
	})
}

func (s *tournamentService) ForfeitMatch(ctx context.Context, tournamentID int, matchUID string, input ForfeitInput) (*TransitionResult, error) {
	return s.transition(ctx, tournamentID, "forfeit", func(c *progression.Controller, _ *stageState) (progression.Outcome, error) {
		return c.Forfeit(matchUID, input.WinnerID)
	})
}

func (s *tournamentService) DisputeMatch(ctx context.Context, tournamentID int, matchUID string) (*TransitionResult, error) {
	return s.transition(ctx, tournamentID, "dispute", func(c *progression.Controller, _ *stageState) (progression.Outcome, error) {
		return c.Dispute(matchUID)
	})
}

func (s *tournamentService) ResolveDispute(ctx context.Context, tournamentID int, matchUID string, input ResolveInput) (*TransitionResult, error) {
	return s.transition(ctx, tournamentID, "resolve", func(c *progression.Controller, _ *stageState) (progression.Outcome, error) {
		return c.ResolveDispute(matchUID, input.ScoreA, input.ScoreB, input.Note)
	})
}

// WithdrawTeam marks the team withdrawn for the rest of the tournament and
// settles its open matches in the current stage.
func (s *tournamentService) WithdrawTeam(ctx context.Context, tournamentID, teamID int) (*TransitionResult, error) {
	result := &TransitionResult{}
	fx := &effects{}
	err := s.withTournament(ctx, tournamentID, func(ctx context.Context, tx repositories.SQLExecutor) error {
		t, err := s.loadTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		team, ok := models.TeamIndex(t.Teams)[teamID]
		if !ok {
			return fmt.Errorf("%w: team %d in tournament %d", ErrTeamNotFound, teamID, tournamentID)
		}
		if team.Withdrawn {
			return nil
		}
		// сетка восстанавливается до отметки в БД, иначе Withdraw увидит команду уже выбывшей
		var st *stageState
		if t.Status == models.StatusActive {
			if st, err = s.loadState(ctx, tx, tournamentID, nil); err != nil {
				return err
			}
		}
		if err := s.repos.Teams.MarkWithdrawn(ctx, tx, tournamentID, teamID); err != nil {
			return err
		}
		if st == nil || st.stage.Status != models.StageStatusActive {
			return nil
		}
		for i := range st.tournament.Teams {
			if st.tournament.Teams[i].ID == teamID {
				st.tournament.Teams[i].Withdrawn = true
			}
		}
		outcome, err := progression.New(st.bracket).WithClock(s.now).Withdraw(teamID)
		if errors.Is(err, models.ErrTeamNotInBracket) {
			return nil
		}
		if err != nil {
			return err
		}
		return s.apply(ctx, tx, st, outcome, result, fx)
	})
	if err != nil {
		return nil, err
	}
	s.flush(ctx, tournamentID, fx)
	s.logger.Info("team withdrawn",
		slog.Int("tournament_id", tournamentID),
		slog.Int("team_id", teamID),
		slog.Int("matches_changed", len(result.Changed)),
		slog.Int("reports", len(result.Reports)))
	return result, nil
}

// transition runs one progression operation on the current stage.
func (s *tournamentService) transition(
	ctx context.Context,
	tournamentID int,
	op string,
	fn func(c *progression.Controller, st *stageState) (progression.Outcome, error),
) (*TransitionResult, error) {
	result := &TransitionResult{}
	fx := &effects{}
	err := s.withTournament(ctx, tournamentID, func(ctx context.Context, tx repositories.SQLExecutor) error {
		st, err := s.loadState(ctx, tx, tournamentID, nil)
		if err != nil {
			return err
		}
		outcome, err := fn(progression.New(st.bracket).WithClock(s.now), st)
		if err != nil {
			return err
		}
		return s.apply(ctx, tx, st, outcome, result, fx)
	})
	if err != nil {
		s.logger.Warn("match operation rejected",
			slog.String("op", op), slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return nil, err
	}
	s.flush(ctx, tournamentID, fx)
	s.logger.Info("match operation applied",
		slog.String("op", op),
		slog.Int("tournament_id", tournamentID),
		slog.Int("matches_changed", len(result.Changed)),
		slog.Bool("stage_complete", result.StageComplete))
	return result, nil
}

// apply persists an outcome and completes the stage when it was decided.
func (s *tournamentService) apply(ctx context.Context, tx repositories.SQLExecutor, st *stageState, outcome progression.Outcome, result *TransitionResult, fx *effects) error {
	t := st.tournament
	removed := make(map[string]bool, len(outcome.Removed))
	for _, uid := range outcome.Removed {
		removed[uid] = true
	}
	changed := make([]*models.Match, 0, len(outcome.Changed))
	for _, m := range outcome.Changed {
		if !removed[m.UID] {
			changed = append(changed, m)
		}
	}
	if err := s.repos.Matches.SaveAll(ctx, tx, t.ID, changed); err != nil {
		return err
	}
	if err := s.repos.Matches.DeleteByUIDs(ctx, tx, t.ID, st.stage.Index, outcome.Removed); err != nil {
		return err
	}
	if outcome.Correction != nil {
		if err := s.repos.Corrections.Create(ctx, tx, t.ID, outcome.Correction); err != nil {
			return err
		}
		fx.snapshot(&BracketView{TournamentID: t.ID, Stage: *st.stage, Matches: st.bracket.Matches,
			Corrections: []models.Correction{*outcome.Correction}}, "correction")
	}
	for _, r := range outcome.Reports {
		s.logger.Warn("match needs attention",
			slog.Int("tournament_id", t.ID), slog.String("match_uid", r.MatchUID), slog.String("reason", r.Reason))
	}

	result.Outcome = outcome
	fx.publish(realtime.EventMatchUpdated, outcome)
	if !outcome.StageComplete || st.stage.Status == models.StageStatusCompleted {
		return nil
	}
	return s.completeStage(ctx, tx, st, result, fx)
}

// completeStage closes the stage and builds the next one. When the next
// stage cannot be built from the result the tournament stays on the finished
// stage and the reason is reported.
func (s *tournamentService) completeStage(ctx context.Context, tx repositories.SQLExecutor, st *stageState, result *TransitionResult, fx *effects) error {
	t := st.tournament
	if err := s.repos.Stages.UpdateStatus(ctx, tx, t.ID, st.stage.Index, models.StageStatusCompleted); err != nil {
		return err
	}
	st.stage.Status = models.StageStatusCompleted

	completed := map[string]interface{}{"stage_index": st.stage.Index}
	if st.stage.Format.IsElimination() {
		completed["placements"] = brackets.Placements(st.bracket)
	}
	fx.publish(realtime.EventStageCompleted, completed)
	fx.snapshot(&BracketView{TournamentID: t.ID, Stage: *st.stage, Matches: st.bracket.Matches, Complete: true}, "completed")

	if st.next == nil {
		s.logger.Info("tournament completed", slog.Int("tournament_id", t.ID))
		return s.repos.Tournaments.UpdateProgress(ctx, tx, t.ID, models.StatusCompleted, st.stage.Index)
	}

	b, err := s.prepareStage(ctx, tx, t, st.next)
	if err != nil {
		if errors.Is(err, models.ErrInvalidStageConfig) || errors.Is(err, models.ErrInsufficientEntrants) {
			s.logger.Error("next stage could not be generated",
				slog.Int("tournament_id", t.ID), slog.Int("stage_index", st.next.Index), slog.Any("error", err))
			result.Reports = append(result.Reports, progression.Report{
				Reason: fmt.Sprintf("stage %d could not be generated: %v", st.next.Index, err),
			})
			return nil
		}
		return err
	}
	view, err := s.saveStage(ctx, tx, t, st.next, b, fx)
	if err != nil {
		return err
	}
	result.Advanced = view
	return nil
}
