package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/realtime"
	"github.com/Dosada05/tournament-engine/scheduling"
	"github.com/Dosada05/tournament-engine/standings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var startDate = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

func teamInputs(names ...string) []TeamInput {
	out := make([]TeamInput, len(names))
	for i, name := range names {
		seed := i + 1
		out[i] = TeamInput{Name: name, Seed: &seed}
	}
	return out
}

func stageInput(format models.StageFormat, settings string) StageInput {
	return StageInput{Format: format, Settings: json.RawMessage(settings)}
}

func createTournament(t *testing.T, env *testEnv, stages []StageInput, teams []TeamInput) *models.Tournament {
	t.Helper()
	tournament, err := env.svc.CreateTournament(context.Background(), CreateTournamentInput{
		Name:      "Spring Cup",
		StartDate: startDate,
		Stages:    stages,
		Teams:     teams,
	})
	require.NoError(t, err)
	return tournament
}

func nextPlayable(matches []*models.Match) *models.Match {
	for _, m := range matches {
		if m.Status == models.MatchStatusPending && m.Ready() {
			return m
		}
	}
	return nil
}

// playStage reports a win for the first slot of every playable match until
// the current stage is decided.
func playStage(t *testing.T, env *testEnv, tournamentID int) *TransitionResult {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 64; i++ {
		view, err := env.svc.Bracket(ctx, tournamentID, nil)
		require.NoError(t, err)
		m := nextPlayable(view.Matches)
		require.NotNil(t, m, "stage %d stalled without a playable match", view.Stage.Index)

		res, err := env.svc.ReportResult(ctx, tournamentID, m.UID, ResultInput{ScoreA: (m.BestOf + 1) / 2})
		require.NoError(t, err)
		if res.StageComplete {
			return res
		}
	}
	t.Fatal("stage did not complete")
	return nil
}

func TestCreateTournamentValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   CreateTournamentInput
		wantErr error
	}{
		{
			name:    "missing name",
			input:   CreateTournamentInput{StartDate: startDate, Stages: []StageInput{stageInput(models.FormatSingleElimination, `{}`)}},
			wantErr: ErrValidationFailed,
		},
		{
			name:    "no stages",
			input:   CreateTournamentInput{Name: "Cup", StartDate: startDate},
			wantErr: ErrValidationFailed,
		},
		{
			name: "elimination before groups",
			input: CreateTournamentInput{Name: "Cup", StartDate: startDate, Stages: []StageInput{
				stageInput(models.FormatSingleElimination, `{}`),
				stageInput(models.FormatRoundRobin, `{"group_count":1}`),
			}},
			wantErr: models.ErrInvalidStageConfig,
		},
		{
			name: "fractional count",
			input: CreateTournamentInput{Name: "Cup", StartDate: startDate, Stages: []StageInput{
				stageInput(models.FormatRoundRobin, `{"group_count":1.5}`),
			}},
			wantErr: models.ErrInvalidStageConfig,
		},
		{
			name: "too many groups for the field",
			input: CreateTournamentInput{Name: "Cup", StartDate: startDate, Teams: teamInputs("A", "B", "C"), Stages: []StageInput{
				stageInput(models.FormatRoundRobin, `{"group_count":2}`),
			}},
			wantErr: models.ErrInvalidStageConfig,
		},
		{
			name: "duplicate team",
			input: CreateTournamentInput{Name: "Cup", StartDate: startDate, Teams: teamInputs("A", "A"), Stages: []StageInput{
				stageInput(models.FormatSingleElimination, `{}`),
			}},
			wantErr: ErrTeamNameConflict,
		},
		{
			name: "repeated and negative seeds",
			input: CreateTournamentInput{Name: "Cup", StartDate: startDate, Teams: []TeamInput{
				{Name: "A", Seed: intPtr(1)}, {Name: "B", Seed: intPtr(1)}, {Name: "C", Seed: intPtr(-3)},
			}, Stages: []StageInput{stageInput(models.FormatSingleElimination, `{}`)}},
			wantErr: ErrValidationFailed,
		},
		{
			name: "repeated seed",
			input: CreateTournamentInput{Name: "Cup", StartDate: startDate, Teams: []TeamInput{
				{Name: "A", Seed: intPtr(2)}, {Name: "B"}, {Name: "C", Seed: intPtr(2)},
			}, Stages: []StageInput{stageInput(models.FormatSingleElimination, `{}`)}},
			wantErr: ErrValidationFailed,
		},
		{
			name: "zero seed",
			input: CreateTournamentInput{Name: "Cup", StartDate: startDate, Teams: []TeamInput{
				{Name: "A", Seed: intPtr(0)}, {Name: "B"},
			}, Stages: []StageInput{stageInput(models.FormatSingleElimination, `{}`)}},
			wantErr: ErrValidationFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreateTournament(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAddTeamSeeds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := createTournament(t, env,
		[]StageInput{stageInput(models.FormatSingleElimination, `{}`)},
		teamInputs("A", "B"))

	_, err := env.svc.AddTeam(ctx, tournament.ID, TeamInput{Name: "C", Seed: intPtr(2)})
	assert.ErrorIs(t, err, ErrTeamSeedConflict)
	_, err = env.svc.AddTeam(ctx, tournament.ID, TeamInput{Name: "C", Seed: intPtr(-1)})
	assert.ErrorIs(t, err, ErrValidationFailed)

	team, err := env.svc.AddTeam(ctx, tournament.ID, TeamInput{Name: "C", Seed: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, *team.Seed)
	for _, name := range []string{"D", "E"} {
		_, err := env.svc.AddTeam(ctx, tournament.ID, TeamInput{Name: name})
		require.NoError(t, err, "unseeded teams never collide")
	}

	got, err := env.svc.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, got.Teams, 5)
}

func TestCreateAndGetTournament(t *testing.T) {
	env := newTestEnv(t)
	created := createTournament(t, env,
		[]StageInput{stageInput(models.FormatSingleElimination, `{"third_place_match":true}`)},
		teamInputs("A", "B", "C", "D"))

	got, err := env.svc.GetTournament(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRegistration, got.Status)
	require.Len(t, got.Stages, 1)
	assert.Equal(t, 1, got.Stages[0].BestOf, "best_of defaults to 1")
	assert.True(t, got.Stages[0].ThirdPlaceMatch)
	assert.Len(t, got.Teams, 4)

	_, err = env.svc.GetTournament(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestSingleEliminationToChampion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := createTournament(t, env,
		[]StageInput{stageInput(models.FormatSingleElimination, `{}`)},
		teamInputs("A", "B", "C", "D"))

	view, err := env.svc.GenerateStage(ctx, tournament.ID, 0)
	require.NoError(t, err)
	assert.Len(t, view.Matches, 3)
	assert.Equal(t, models.StageStatusActive, view.Stage.Status)

	_, err = env.svc.GenerateStage(ctx, tournament.ID, 0)
	assert.ErrorIs(t, err, ErrStageAlreadyGenerated)
	_, err = env.svc.AddTeam(ctx, tournament.ID, TeamInput{Name: "Late"})
	assert.ErrorIs(t, err, ErrRegistrationClosed)

	res := playStage(t, env, tournament.ID)
	assert.Nil(t, res.Advanced)

	got, err := env.svc.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, models.StageStatusCompleted, got.Stages[0].Status)

	final, err := env.svc.Bracket(ctx, tournament.ID, nil)
	require.NoError(t, err)
	assert.True(t, final.Complete)
	require.NotEmpty(t, final.Placements)
	assert.Equal(t, 1, final.Placements[0].Place)

	assert.Contains(t, env.publisher.types(), realtime.EventBracketUpdated)
	assert.Contains(t, env.publisher.types(), realtime.EventStageCompleted)

	var reasons []string
	for _, snap := range env.archive.snapshots {
		reasons = append(reasons, snap.Reason)
	}
	assert.Equal(t, []string{"generated", "completed"}, reasons)
}

func TestMatchOperationErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := createTournament(t, env,
		[]StageInput{stageInput(models.FormatSingleElimination, `{}`)},
		teamInputs("A", "B", "C", "D"))

	_, err := env.svc.ReportResult(ctx, tournament.ID, "R1M1", ResultInput{ScoreA: 1})
	assert.ErrorIs(t, err, ErrStageNotStarted)

	view, err := env.svc.GenerateStage(ctx, tournament.ID, 0)
	require.NoError(t, err)
	m := nextPlayable(view.Matches)
	require.NotNil(t, m)

	_, err = env.svc.ReportResult(ctx, tournament.ID, m.UID, ResultInput{ScoreA: 1, ScoreB: 1})
	assert.ErrorIs(t, err, models.ErrInvalidScore)

	_, err = env.svc.ReportResult(ctx, tournament.ID, "nope", ResultInput{ScoreA: 1})
	assert.ErrorIs(t, err, models.ErrMatchNotFound)

	_, err = env.svc.ForfeitMatch(ctx, tournament.ID, m.UID, ForfeitInput{WinnerID: 424242})
	assert.ErrorIs(t, err, models.ErrTeamNotInBracket)

	started, err := env.svc.StartMatch(ctx, tournament.ID, m.UID)
	require.NoError(t, err)
	require.Len(t, started.Changed, 1)
	assert.Equal(t, models.MatchStatusOngoing, started.Changed[0].Status)

	_, err = env.svc.DisputeMatch(ctx, tournament.ID, m.UID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestDisputeAndResolveRecordsCorrection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := createTournament(t, env,
		[]StageInput{stageInput(models.FormatSingleElimination, `{}`)},
		teamInputs("A", "B", "C", "D"))
	view, err := env.svc.GenerateStage(ctx, tournament.ID, 0)
	require.NoError(t, err)
	m := nextPlayable(view.Matches)
	require.NotNil(t, m)

	_, err = env.svc.ReportResult(ctx, tournament.ID, m.UID, ResultInput{ScoreA: 1})
	require.NoError(t, err)
	disputed, err := env.svc.DisputeMatch(ctx, tournament.ID, m.UID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusDisputed, disputed.Changed[0].Status)

	resolved, err := env.svc.ResolveDispute(ctx, tournament.ID, m.UID, ResolveInput{ScoreB: 1, Note: "score was swapped"})
	require.NoError(t, err)
	require.NotNil(t, resolved.Correction)
	assert.Equal(t, "score was swapped", resolved.Correction.Note)

	after, err := env.svc.Bracket(ctx, tournament.ID, nil)
	require.NoError(t, err)
	for _, got := range after.Matches {
		if got.UID == m.UID {
			require.NotNil(t, got.WinnerID)
			assert.Equal(t, got.Slots[1].Team(), *got.WinnerID)
		}
	}
	assert.Len(t, after.Corrections, 1)
	assert.Len(t, env.store.corrections, 1)

	last := env.archive.snapshots[len(env.archive.snapshots)-1]
	assert.Equal(t, "correction", last.Reason)
}

func TestGroupStageAdvancesToPlayoff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := createTournament(t, env,
		[]StageInput{
			stageInput(models.FormatRoundRobin, `{"group_count":1,"upper_per_group":2,"legs":1}`),
			stageInput(models.FormatSingleElimination, `{}`),
		},
		teamInputs("A", "B", "C", "D"))

	view, err := env.svc.GenerateStage(ctx, tournament.ID, 0)
	require.NoError(t, err)
	assert.Len(t, view.Matches, 6)

	_, err = env.svc.GenerateStage(ctx, tournament.ID, 1)
	assert.ErrorIs(t, err, ErrStageNotReady)

	res := playStage(t, env, tournament.ID)
	require.NotNil(t, res.Advanced)
	assert.Equal(t, 1, res.Advanced.Stage.Index)
	require.Len(t, res.Advanced.Matches, 1)
	final := res.Advanced.Matches[0]
	require.True(t, final.Ready())
	assert.NotEqual(t, final.Slots[0].Team(), final.Slots[1].Team())

	table, err := env.svc.Standings(ctx, tournament.ID, intPtr(0))
	require.NoError(t, err)
	require.Len(t, table, 1)
	require.Len(t, table[0].Standings, 4)
	top := []int{table[0].Standings[0].TeamID, table[0].Standings[1].TeamID}
	assert.ElementsMatch(t, top, []int{final.Slots[0].Team(), final.Slots[1].Team()})

	got, err := env.svc.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStage)
	assert.Equal(t, models.StatusActive, got.Status)

	playStage(t, env, tournament.ID)
	got, err = env.svc.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

func TestRunDrawThenGenerate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := createTournament(t, env,
		[]StageInput{
			stageInput(models.FormatRoundRobin, `{"group_count":2,"upper_per_group":1}`),
			stageInput(models.FormatSingleElimination, `{}`),
		},
		teamInputs("A", "B", "C", "D", "E", "F"))

	_, err := env.svc.RunDraw(ctx, tournament.ID, 1, DrawInput{})
	assert.ErrorIs(t, err, ErrDrawNotApplicable)

	record, err := env.svc.RunDraw(ctx, tournament.ID, 0, DrawInput{})
	require.NoError(t, err)
	assert.NotEmpty(t, record.Seed)
	assert.Len(t, env.archive.draws, 1)

	_, err = env.svc.RunDraw(ctx, tournament.ID, 0, DrawInput{})
	assert.ErrorIs(t, err, ErrDrawAlreadyExists)

	view, err := env.svc.GenerateStage(ctx, tournament.ID, 0)
	require.NoError(t, err)
	drawn, played := record.Groups(), standings.GroupsOf(view.Matches)
	require.Len(t, played, len(drawn))
	for i := range drawn {
		assert.Equal(t, drawn[i].Label, played[i].Label)
		assert.ElementsMatch(t, drawn[i].TeamIDs, played[i].TeamIDs)
	}
}

func TestRunDrawReplaysSeed(t *testing.T) {
	ctx := context.Background()
	stages := []StageInput{stageInput(models.FormatRoundRobin, `{"group_count":2}`)}

	env := newTestEnv(t)
	first := createTournament(t, env, stages, teamInputs("A", "B", "C", "D"))
	original, err := env.svc.RunDraw(ctx, first.ID, 0, DrawInput{})
	require.NoError(t, err)

	replayEnv := newTestEnv(t)
	second := createTournament(t, replayEnv, stages, teamInputs("A", "B", "C", "D"))
	replayed, err := replayEnv.svc.RunDraw(ctx, second.ID, 0, DrawInput{Seed: original.Seed})
	require.NoError(t, err)

	assert.Equal(t, original.Seed, replayed.Seed)
	assert.Equal(t, original.Groups(), replayed.Groups())
}

func TestWithdrawTeamForfeitsOpenMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := createTournament(t, env,
		[]StageInput{stageInput(models.FormatSingleElimination, `{}`)},
		teamInputs("A", "B", "C", "D"))
	view, err := env.svc.GenerateStage(ctx, tournament.ID, 0)
	require.NoError(t, err)
	m := nextPlayable(view.Matches)
	require.NotNil(t, m)
	leaving, staying := m.Slots[0].Team(), m.Slots[1].Team()

	res, err := env.svc.WithdrawTeam(ctx, tournament.ID, leaving)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Changed)

	after, err := env.svc.Bracket(ctx, tournament.ID, nil)
	require.NoError(t, err)
	for _, got := range after.Matches {
		if got.UID == m.UID {
			assert.Equal(t, models.MatchStatusForfeited, got.Status)
			require.NotNil(t, got.WinnerID)
			assert.Equal(t, staying, *got.WinnerID)
		}
	}

	teams := env.store.teams[tournament.ID]
	for _, team := range teams {
		assert.Equal(t, team.ID == leaving, team.Withdrawn, "team %d", team.ID)
	}

	again, err := env.svc.WithdrawTeam(ctx, tournament.ID, leaving)
	require.NoError(t, err)
	assert.Empty(t, again.Changed)

	_, err = env.svc.WithdrawTeam(ctx, tournament.ID, 9999)
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestWithdrawBeforeStartExcludesTeam(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := createTournament(t, env,
		[]StageInput{stageInput(models.FormatSingleElimination, `{}`)},
		teamInputs("A", "B", "C", "D", "E"))
	leaving := tournament.Teams[4].ID

	_, err := env.svc.WithdrawTeam(ctx, tournament.ID, leaving)
	require.NoError(t, err)

	view, err := env.svc.GenerateStage(ctx, tournament.ID, 0)
	require.NoError(t, err)
	assert.Len(t, view.Matches, 3)
	for _, m := range view.Matches {
		assert.False(t, m.Involves(leaving))
	}
}

func TestAutoSchedulePublishesConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := createTournament(t, env,
		[]StageInput{stageInput(models.FormatRoundRobin, `{"group_count":1,"legs":1}`)},
		teamInputs("A", "B", "C", "D"))

	empty, err := env.svc.Conflicts(ctx, tournament.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = env.svc.GenerateStage(ctx, tournament.ID, 0)
	require.NoError(t, err)

	start := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	res, err := env.svc.AutoSchedule(ctx, tournament.ID, scheduling.CadenceConfig{
		Start: start, MatchesPerDay: 6, Gap: 30 * time.Minute,
	})
	require.NoError(t, err)
	assert.Len(t, res.Assignments, 6)
	assert.Equal(t, start, res.Assignments[0].At)
	assert.NotEmpty(t, res.Conflicts)
	assert.Contains(t, env.publisher.types(), realtime.EventScheduleConflicts)

	stored, err := env.svc.Conflicts(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Conflicts, stored)

	_, err = env.svc.AutoSchedule(ctx, tournament.ID, scheduling.CadenceConfig{Start: start})
	assert.ErrorIs(t, err, models.ErrInvalidScheduleConfig)
}

func TestAvailabilityPlanning(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := createTournament(t, env,
		[]StageInput{stageInput(models.FormatSingleElimination, `{}`)},
		teamInputs("A", "B", "C", "D"))
	view, err := env.svc.GenerateStage(ctx, tournament.ID, 0)
	require.NoError(t, err)
	m := nextPlayable(view.Matches)
	require.NotNil(t, m)

	slot := time.Date(2026, 7, 2, 18, 0, 0, 0, time.UTC)
	for _, s := range m.Slots {
		err := env.svc.SubmitAvailability(ctx, tournament.ID, AvailabilityInput{
			TeamID: s.Team(), MatchUID: m.UID, Slots: []time.Time{slot, slot.Add(time.Hour)},
		})
		require.NoError(t, err)
	}

	var outsider int
	for _, team := range tournament.Teams {
		if !m.Involves(team.ID) {
			outsider = team.ID
			break
		}
	}
	err = env.svc.SubmitAvailability(ctx, tournament.ID, AvailabilityInput{TeamID: outsider, MatchUID: m.UID, Slots: []time.Time{slot}})
	assert.ErrorIs(t, err, ErrValidationFailed)
	err = env.svc.SubmitAvailability(ctx, tournament.ID, AvailabilityInput{TeamID: outsider, MatchUID: m.UID})
	assert.ErrorIs(t, err, ErrValidationFailed)

	res, err := env.svc.PlanSchedule(ctx, tournament.ID, scheduling.AvailabilityConfig{Gap: time.Hour})
	require.NoError(t, err)
	require.Len(t, res.Assignments, 1)
	assert.Equal(t, m.UID, res.Assignments[0].MatchUID)
	assert.Equal(t, slot, res.Assignments[0].At)
	assert.Len(t, res.Unschedulable, 2)

	after, err := env.svc.Bracket(ctx, tournament.ID, nil)
	require.NoError(t, err)
	for _, got := range after.Matches {
		if got.UID == m.UID {
			require.NotNil(t, got.ScheduledAt)
			assert.True(t, slot.Equal(*got.ScheduledAt))
		}
	}
}

func TestGenerateWithTooFewTeams(t *testing.T) {
	env := newTestEnv(t)
	tournament := createTournament(t, env,
		[]StageInput{stageInput(models.FormatSingleElimination, `{}`)},
		teamInputs("Solo"))

	_, err := env.svc.GenerateStage(context.Background(), tournament.ID, 0)
	assert.ErrorIs(t, err, models.ErrInsufficientEntrants)

	got, err := env.svc.GetTournament(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRegistration, got.Status)
}

func TestBusyTournament(t *testing.T) {
	store := newMemoryStore()
	svc := NewTournamentService(store.repositories(), directTx{}, busyLocker{}, &recordingPublisher{}, nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.AddTeam(context.Background(), 1, TeamInput{Name: "A"})
	assert.ErrorIs(t, err, ErrTournamentBusy)
}

func TestListActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	stages := []StageInput{stageInput(models.FormatSingleElimination, `{}`)}
	started := createTournament(t, env, stages, teamInputs("A", "B"))
	createTournament(t, env, stages, teamInputs("C", "D"))

	_, err := env.svc.GenerateStage(ctx, started.ID, 0)
	require.NoError(t, err)

	active, err := env.svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, started.ID, active[0].ID)
}

func intPtr(v int) *int { return &v }
