package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/realtime"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/scheduling"
)

func (s *tournamentService) AutoSchedule(ctx context.Context, tournamentID int, cfg scheduling.CadenceConfig) (*ScheduleResult, error) {
	return s.schedule(ctx, tournamentID, "cadence", func(ctx context.Context, tx repositories.SQLExecutor, st *stageState) (scheduling.Plan, error) {
		return scheduling.AutoSchedule(st.bracket.Matches, cfg)
	})
}

func (s *tournamentService) PlanSchedule(ctx context.Context, tournamentID int, cfg scheduling.AvailabilityConfig) (*ScheduleResult, error) {
	return s.schedule(ctx, tournamentID, "availability", func(ctx context.Context, tx repositories.SQLExecutor, st *stageState) (scheduling.Plan, error) {
		prefs, err := s.repos.Availability.ListByTournament(ctx, tx, tournamentID)
		if err != nil {
			return scheduling.Plan{}, err
		}
		return scheduling.PlanAvailability(st.bracket.Matches, prefs, cfg)
	})
}

// schedule plans the current stage, stores the assigned times and re-checks
// the whole tournament for conflicts.
func (s *tournamentService) schedule(
	ctx context.Context,
	tournamentID int,
	mode string,
	plan func(ctx context.Context, tx repositories.SQLExecutor, st *stageState) (scheduling.Plan, error),
) (*ScheduleResult, error) {
	result := &ScheduleResult{}
	fx := &effects{}
	err := s.withTournament(ctx, tournamentID, func(ctx context.Context, tx repositories.SQLExecutor) error {
		st, err := s.loadState(ctx, tx, tournamentID, nil)
		if err != nil {
			return err
		}
		p, err := plan(ctx, tx, st)
		if err != nil {
			return err
		}
		changed := p.Apply(st.bracket.Matches)
		if err := s.repos.Matches.SaveAll(ctx, tx, tournamentID, changed); err != nil {
			return err
		}
		all, err := s.repos.Matches.ListByTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		result.Plan = p
		result.Conflicts = scheduling.DetectConflicts(all, scheduling.DefaultMatchDuration)

		if len(changed) > 0 {
			fx.publish(realtime.EventBracketUpdated, map[string]interface{}{
				"stage_index": st.stage.Index,
				"assignments": p.Assignments,
			})
		}
		if len(result.Conflicts) > 0 {
			fx.publish(realtime.EventScheduleConflicts, result.Conflicts)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.flush(ctx, tournamentID, fx)
	s.logger.Info("schedule planned",
		slog.String("mode", mode),
		slog.Int("tournament_id", tournamentID),
		slog.Int("assigned", len(result.Assignments)),
		slog.Int("unschedulable", len(result.Unschedulable)),
		slog.Int("conflicts", len(result.Conflicts)))
	return result, nil
}

// SubmitAvailability records the start times a team can play a match.
func (s *tournamentService) SubmitAvailability(ctx context.Context, tournamentID int, input AvailabilityInput) error {
	if input.MatchUID == "" || len(input.Slots) == 0 {
		return fmt.Errorf("%w: match_uid and at least one slot are required", ErrValidationFailed)
	}
	return s.withTournament(ctx, tournamentID, func(ctx context.Context, tx repositories.SQLExecutor) error {
		st, err := s.loadState(ctx, tx, tournamentID, nil)
		if err != nil {
			return err
		}
		if _, ok := models.TeamIndex(st.tournament.Teams)[input.TeamID]; !ok {
			return fmt.Errorf("%w: team %d in tournament %d", ErrTeamNotFound, input.TeamID, tournamentID)
		}
		m, err := st.bracket.Match(input.MatchUID)
		if err != nil {
			return err
		}
		if m.Resolved() {
			return fmt.Errorf("%w: match %s is already %s", models.ErrInvalidTransition, m.UID, m.Status)
		}
		if m.Ready() && !m.Involves(input.TeamID) {
			return fmt.Errorf("%w: team %d does not play match %s", ErrValidationFailed, input.TeamID, m.UID)
		}
		for _, at := range input.Slots {
			pref := models.Availability{TournamentID: tournamentID, MatchUID: m.UID, TeamID: input.TeamID, Start: at}
			if err := s.repos.Availability.Add(ctx, tx, &pref); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *tournamentService) Conflicts(ctx context.Context, tournamentID int) ([]scheduling.Conflict, error) {
	if _, err := s.getTournament(ctx, nil, tournamentID); err != nil {
		return nil, err
	}
	matches, err := s.repos.Matches.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	conflicts := scheduling.DetectConflicts(matches, scheduling.DefaultMatchDuration)
	if conflicts == nil {
		conflicts = []scheduling.Conflict{}
	}
	return conflicts, nil
}
