package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/draw"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/progression"
	"github.com/Dosada05/tournament-engine/random"
	"github.com/Dosada05/tournament-engine/realtime"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/standings"
	"github.com/Dosada05/tournament-engine/storage"
	"golang.org/x/sync/errgroup"
)

// effects собирает события и архивные объекты, которые уходят наружу только после коммита.
type effects struct {
	events    []realtime.WebSocketMessage
	snapshots []storage.BracketSnapshot
	draws     []models.DrawRecord
}

func (fx *effects) publish(eventType string, payload interface{}) {
	fx.events = append(fx.events, realtime.WebSocketMessage{Type: eventType, Payload: payload})
}

func (fx *effects) snapshot(view *BracketView, reason string) {
	fx.snapshots = append(fx.snapshots, storage.BracketSnapshot{
		TournamentID: view.TournamentID,
		StageIndex:   view.Stage.Index,
		Format:       view.Stage.Format,
		Reason:       reason,
		Matches:      view.Matches,
		Corrections:  view.Corrections,
	})
}

// flush публикует события и пишет архив. Ошибки архива не откатывают операцию.
func (s *tournamentService) flush(ctx context.Context, tournamentID int, fx *effects) {
	for _, e := range fx.events {
		s.publisher.Publish(tournamentID, e.Type, e.Payload)
	}
	if s.archive == nil {
		return
	}
	for _, record := range fx.draws {
		if _, err := s.archive.ArchiveDraw(ctx, record); err != nil {
			s.logger.Error("failed to archive draw",
				slog.Int("tournament_id", tournamentID), slog.Int("stage_index", record.StageIndex), slog.Any("error", err))
		}
	}
	for _, snap := range fx.snapshots {
		if _, err := s.archive.ArchiveBracket(ctx, snap); err != nil {
			s.logger.Error("failed to archive bracket snapshot",
				slog.Int("tournament_id", tournamentID), slog.Int("stage_index", snap.StageIndex), slog.Any("error", err))
		}
	}
}

func stageOf(t *models.Tournament, index int) (*models.Stage, *models.Stage, error) {
	stage, next := t.StageAt(index)
	if stage == nil {
		return nil, nil, fmt.Errorf("%w: stage %d of tournament %d", ErrStageNotFound, index, t.ID)
	}
	return stage, next, nil
}

func (s *tournamentService) RunDraw(ctx context.Context, tournamentID, stageIndex int, input DrawInput) (*models.DrawRecord, error) {
	var record models.DrawRecord
	fx := &effects{}
	err := s.withTournament(ctx, tournamentID, func(ctx context.Context, tx repositories.SQLExecutor) error {
		t, err := s.loadTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		stage, _, err := stageOf(t, stageIndex)
		if err != nil {
			return err
		}
		if stage.Format != models.FormatRoundRobin {
			return ErrDrawNotApplicable
		}
		if stage.Status != models.StageStatusPending {
			return ErrStageAlreadyGenerated
		}
		if _, err := s.repos.Draws.GetByStage(ctx, tx, tournamentID, stageIndex); err == nil {
			return ErrDrawAlreadyExists
		} else if !errors.Is(err, repositories.ErrDrawNotFound) {
			return err
		}

		upper, lower, err := s.entrants(ctx, tx, t, stage)
		if err != nil {
			return err
		}
		teams := append(upper, lower...)
		if err := stage.Validate(len(teams), nil); err != nil {
			return err
		}

		var result draw.Result
		if input.Seed != "" {
			result, err = draw.Replay(teams, input.Pots, stage.GroupCount, input.Seed)
		} else {
			var seed random.Seed
			if seed, err = random.NewSeed(); err != nil {
				return err
			}
			result, err = draw.RunDraw(teams, input.Pots, stage.GroupCount, seed)
		}
		if err != nil {
			return err
		}

		record = result.Record(tournamentID, stageIndex)
		if err := s.repos.Draws.Create(ctx, tx, &record); err != nil {
			if errors.Is(err, repositories.ErrDrawExists) {
				return ErrDrawAlreadyExists
			}
			return err
		}
		fx.draws = append(fx.draws, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.flush(ctx, tournamentID, fx)
	s.logger.Info("draw completed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("stage_index", stageIndex),
		slog.String("seed", record.Seed),
		slog.Int("groups", record.GroupCount))
	return &record, nil
}

func (s *tournamentService) GenerateStage(ctx context.Context, tournamentID, stageIndex int) (*BracketView, error) {
	var view *BracketView
	fx := &effects{}
	err := s.withTournament(ctx, tournamentID, func(ctx context.Context, tx repositories.SQLExecutor) error {
		t, err := s.loadTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		stage, _, err := stageOf(t, stageIndex)
		if err != nil {
			return err
		}
		b, err := s.prepareStage(ctx, tx, t, stage)
		if err != nil {
			return err
		}
		view, err = s.saveStage(ctx, tx, t, stage, b, fx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.flush(ctx, tournamentID, fx)
	s.logger.Info("stage generated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("stage_index", stageIndex),
		slog.String("format", string(view.Stage.Format)),
		slog.Int("matches", len(view.Matches)))
	return view, nil
}

// AdvanceStage closes a decided stage and builds the next one. Match
// operations do this on their own; this entry point retries an advancement
// that was skipped.
func (s *tournamentService) AdvanceStage(ctx context.Context, tournamentID, stageIndex int) (*BracketView, error) {
	var view *BracketView
	fx := &effects{}
	err := s.withTournament(ctx, tournamentID, func(ctx context.Context, tx repositories.SQLExecutor) error {
		st, err := s.loadState(ctx, tx, tournamentID, &stageIndex)
		if err != nil {
			return err
		}
		if st.next == nil {
			return fmt.Errorf("%w: stage %d is the last stage", ErrValidationFailed, stageIndex)
		}
		if !progression.StageComplete(st.bracket) {
			return fmt.Errorf("%w: stage %d is still being played", ErrStageNotReady, stageIndex)
		}
		if st.stage.Status != models.StageStatusCompleted {
			if err := s.repos.Stages.UpdateStatus(ctx, tx, tournamentID, stageIndex, models.StageStatusCompleted); err != nil {
				return err
			}
			st.stage.Status = models.StageStatusCompleted
		}
		b, err := s.prepareStage(ctx, tx, st.tournament, st.next)
		if err != nil {
			return err
		}
		view, err = s.saveStage(ctx, tx, st.tournament, st.next, b, fx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.flush(ctx, tournamentID, fx)
	return view, nil
}

// prepareStage only reads and computes: an engine error here leaves the
// transaction usable.
func (s *tournamentService) prepareStage(ctx context.Context, tx repositories.SQLExecutor, t *models.Tournament, stage *models.Stage) (*brackets.Bracket, error) {
	if stage.Status != models.StageStatusPending {
		return nil, ErrStageAlreadyGenerated
	}
	existing, err := s.repos.Matches.ListByStage(ctx, tx, t.ID, stage.Index)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrStageAlreadyGenerated
	}

	upper, lower, err := s.entrants(ctx, tx, t, stage)
	if err != nil {
		return nil, err
	}
	params := brackets.GenerateBracketParams{Stage: *stage, Teams: upper, Lower: lower}
	if stage.Format == models.FormatRoundRobin {
		record, err := s.repos.Draws.GetByStage(ctx, tx, t.ID, stage.Index)
		switch {
		case err == nil:
			params.Teams = append(upper, lower...)
			params.Lower = nil
			params.Groups = drawnGroups(record, params.Teams)
		case !errors.Is(err, repositories.ErrDrawNotFound):
			return nil, err
		}
	}
	return brackets.BuildBracket(ctx, params)
}

func (s *tournamentService) saveStage(ctx context.Context, tx repositories.SQLExecutor, t *models.Tournament, stage *models.Stage, b *brackets.Bracket, fx *effects) (*BracketView, error) {
	if err := s.repos.Matches.SaveAll(ctx, tx, t.ID, b.Matches); err != nil {
		return nil, err
	}
	if err := s.repos.Stages.UpdateStatus(ctx, tx, t.ID, stage.Index, models.StageStatusActive); err != nil {
		return nil, err
	}
	if err := s.repos.Tournaments.UpdateProgress(ctx, tx, t.ID, models.StatusActive, stage.Index); err != nil {
		return nil, err
	}
	stage.Status = models.StageStatusActive
	t.Status, t.CurrentStage = models.StatusActive, stage.Index

	view := &BracketView{TournamentID: t.ID, Stage: *stage, Matches: b.Matches}
	fx.publish(realtime.EventBracketUpdated, view)
	fx.snapshot(view, "generated")
	return view, nil
}

// drawnGroups drops teams that left after the draw.
func drawnGroups(record *models.DrawRecord, teams []models.Team) []models.Group {
	active := models.TeamIndex(teams)
	groups := record.Groups()
	for i := range groups {
		kept := groups[i].TeamIDs[:0]
		for _, id := range groups[i].TeamIDs {
			if _, ok := active[id]; ok {
				kept = append(kept, id)
			}
		}
		groups[i].TeamIDs = kept
	}
	return groups
}

// entrants returns the seeded field of a stage. The first stage takes every
// active team; a later stage takes the advancers of the finished group stage
// before it, split into upper and lower only for a double elimination stage.
func (s *tournamentService) entrants(ctx context.Context, tx repositories.SQLExecutor, t *models.Tournament, stage *models.Stage) (upper, lower []models.Team, err error) {
	prev, _ := t.StageAt(stage.Index - 1)
	if prev == nil {
		return models.OrderTeams(activeTeams(t.Teams)), nil, nil
	}
	if prev.Status != models.StageStatusCompleted {
		return nil, nil, fmt.Errorf("%w: stage %d", ErrStageNotReady, prev.Index)
	}
	matches, err := s.repos.Matches.ListByStage(ctx, tx, t.ID, prev.Index)
	if err != nil {
		return nil, nil, err
	}
	groups := standings.ComputeGroupStandings(standings.GroupsOf(matches), t.Teams, matches)
	adv, err := standings.ComputeAdvancement(groups, *prev)
	if err != nil {
		return nil, nil, err
	}

	upperRows, lowerRows := adv.Upper, adv.Lower
	if stage.Format != models.FormatDoubleElimination || len(lowerRows) == 0 {
		upperRows = append(append([]models.Standing(nil), upperRows...), lowerRows...)
		lowerRows = nil
	}
	upper = reseed(activeTeams(standings.SeedTeams(upperRows, t.Teams)))
	if len(lowerRows) > 0 {
		lower = reseed(activeTeams(standings.SeedTeams(lowerRows, t.Teams)))
	}
	return upper, lower, nil
}

func activeTeams(teams []models.Team) []models.Team {
	out := make([]models.Team, 0, len(teams))
	for _, t := range teams {
		if !t.Withdrawn {
			out = append(out, t)
		}
	}
	return out
}

func reseed(teams []models.Team) []models.Team {
	for i := range teams {
		seed := i + 1
		teams[i].Seed = &seed
	}
	return teams
}

func (s *tournamentService) Bracket(ctx context.Context, tournamentID int, stageIndex *int) (*BracketView, error) {
	t, err := s.loadTournamentParallel(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	index := t.CurrentStage
	if stageIndex != nil {
		index = *stageIndex
	}
	stage, _, err := stageOf(t, index)
	if err != nil {
		return nil, err
	}

	var (
		matches     []*models.Match
		corrections []models.Correction
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matches, err = s.repos.Matches.ListByStage(gCtx, nil, tournamentID, index)
		return err
	})
	g.Go(func() error {
		var err error
		corrections, err = s.repos.Corrections.ListByTournament(gCtx, nil, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &BracketView{TournamentID: tournamentID, Stage: *stage, Matches: matches, Corrections: corrections}
	if len(matches) == 0 {
		return view, nil
	}
	b, err := brackets.Restore(index, stage.Format, matches, withdrawnIDs(t.Teams))
	if err != nil {
		return nil, fmt.Errorf("stored bracket of stage %d is inconsistent: %w", index, err)
	}
	view.Matches = b.Matches
	view.Complete = progression.StageComplete(b)
	if stage.Format.IsElimination() {
		view.Placements = brackets.Placements(b)
	}
	return view, nil
}

func (s *tournamentService) Standings(ctx context.Context, tournamentID int, stageIndex *int) ([]standings.GroupStandings, error) {
	t, err := s.loadTournamentParallel(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	index := t.CurrentStage
	if stageIndex != nil {
		index = *stageIndex
	}
	stage, _, err := stageOf(t, index)
	if err != nil {
		return nil, err
	}
	if stage.Format != models.FormatRoundRobin {
		return nil, fmt.Errorf("%w: stage %d is not a round robin stage", ErrValidationFailed, index)
	}
	matches, err := s.repos.Matches.ListByStage(ctx, nil, tournamentID, index)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []standings.GroupStandings{}, nil
	}
	return standings.ComputeGroupStandings(standings.GroupsOf(matches), t.Teams, matches), nil
}

func withdrawnIDs(teams []models.Team) []int {
	var ids []int
	for _, t := range teams {
		if t.Withdrawn {
			ids = append(ids, t.ID)
		}
	}
	return ids
}
