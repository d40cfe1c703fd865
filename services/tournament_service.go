package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/locks"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/progression"
	"github.com/Dosada05/tournament-engine/realtime"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/scheduling"
	"github.com/Dosada05/tournament-engine/standings"
	"github.com/Dosada05/tournament-engine/storage"
	"golang.org/x/sync/errgroup"
)

type StageInput struct {
	Format   models.StageFormat `json:"format"`
	Settings json.RawMessage    `json:"settings"`
}

type TeamInput struct {
	Name string `json:"name"`
	Seed *int   `json:"seed,omitempty"`
}

type CreateTournamentInput struct {
	Name      string       `json:"name"`
	StartDate time.Time    `json:"start_date"`
	Stages    []StageInput `json:"stages"`
	Teams     []TeamInput  `json:"teams"`
}

type DrawInput struct {
	// Pots maps team ID to pot number. Empty means an unconstrained draw.
	Pots map[int]int `json:"pots,omitempty"`
	// Seed replays a previous draw when set.
	Seed string `json:"seed,omitempty"`
}

type ResultInput struct {
	ScoreA int `json:"score_a"`
	ScoreB int `json:"score_b"`
}

type ForfeitInput struct {
	WinnerID int `json:"winner_id"`
}

type ResolveInput struct {
	ScoreA int    `json:"score_a"`
	ScoreB int    `json:"score_b"`
	Note   string `json:"note"`
}

type AvailabilityInput struct {
	TeamID   int         `json:"team_id"`
	MatchUID string      `json:"match_uid"`
	Slots    []time.Time `json:"slots"`
}

// BracketView - сетка этапа вместе с производными данными.
type BracketView struct {
	TournamentID int                  `json:"tournament_id"`
	Stage        models.Stage         `json:"stage"`
	Matches      []*models.Match      `json:"matches"`
	Complete     bool                 `json:"complete"`
	Placements   []brackets.Placement `json:"placements,omitempty"`
	Corrections  []models.Correction  `json:"corrections,omitempty"`
	Reports      []progression.Report `json:"reports,omitempty"`
}

// TransitionResult is what a match operation returns: the engine outcome and
// the next stage when this operation completed the current one.
type TransitionResult struct {
	progression.Outcome
	Advanced *BracketView `json:"advanced,omitempty"`
}

type ScheduleResult struct {
	scheduling.Plan
	Conflicts []scheduling.Conflict `json:"conflicts,omitempty"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	AddTeam(ctx context.Context, tournamentID int, input TeamInput) (*models.Team, error)

	RunDraw(ctx context.Context, tournamentID, stageIndex int, input DrawInput) (*models.DrawRecord, error)
	GenerateStage(ctx context.Context, tournamentID, stageIndex int) (*BracketView, error)
	AdvanceStage(ctx context.Context, tournamentID, stageIndex int) (*BracketView, error)
	Bracket(ctx context.Context, tournamentID int, stageIndex *int) (*BracketView, error)
	Standings(ctx context.Context, tournamentID int, stageIndex *int) ([]standings.GroupStandings, error)

	StartMatch(ctx context.Context, tournamentID int, matchUID string) (*TransitionResult, error)
	ReportResult(ctx context.Context, tournamentID int, matchUID string, input ResultInput) (*TransitionResult, error)
	ForfeitMatch(ctx context.Context, tournamentID int, matchUID string, input ForfeitInput) (*TransitionResult, error)
	DisputeMatch(ctx context.Context, tournamentID int, matchUID string) (*TransitionResult, error)
	ResolveDispute(ctx context.Context, tournamentID int, matchUID string, input ResolveInput) (*TransitionResult, error)
	WithdrawTeam(ctx context.Context, tournamentID, teamID int) (*TransitionResult, error)

	AutoSchedule(ctx context.Context, tournamentID int, cfg scheduling.CadenceConfig) (*ScheduleResult, error)
	SubmitAvailability(ctx context.Context, tournamentID int, input AvailabilityInput) error
	PlanSchedule(ctx context.Context, tournamentID int, cfg scheduling.AvailabilityConfig) (*ScheduleResult, error)
	Conflicts(ctx context.Context, tournamentID int) ([]scheduling.Conflict, error)

	ListActive(ctx context.Context) ([]models.Tournament, error)
}

// Archiver keeps audit copies of draws and bracket snapshots.
type Archiver interface {
	ArchiveDraw(ctx context.Context, record models.DrawRecord) (string, error)
	ArchiveBracket(ctx context.Context, snapshot storage.BracketSnapshot) (string, error)
}

type Repositories struct {
	Tournaments  repositories.TournamentRepository
	Stages       repositories.StageRepository
	Teams        repositories.TeamRepository
	Matches      repositories.MatchRepository
	Draws        repositories.DrawRepository
	Availability repositories.AvailabilityRepository
	Corrections  repositories.CorrectionRepository
}

type tournamentService struct {
	repos     Repositories
	tx        repositories.Transactor
	locker    locks.Locker
	publisher realtime.Publisher
	archive   Archiver // nil, если архив не настроен
	logger    *slog.Logger
	now       func() time.Time
}

func NewTournamentService(
	repos Repositories,
	tx repositories.Transactor,
	locker locks.Locker,
	publisher realtime.Publisher,
	archive Archiver,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		repos:     repos,
		tx:        tx,
		locker:    locker,
		publisher: publisher,
		archive:   archive,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if input.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start_date is required", ErrValidationFailed)
	}
	stages, err := buildStages(input.Stages, len(input.Teams))
	if err != nil {
		return nil, err
	}
	seeds := make(map[int]bool, len(input.Teams))
	for _, t := range input.Teams {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("%w: team name is required", ErrValidationFailed)
		}
		if err := validateSeed(t.Seed); err != nil {
			return nil, err
		}
		if t.Seed != nil {
			if seeds[*t.Seed] {
				return nil, fmt.Errorf("%w: seed %d is given to more than one team", ErrValidationFailed, *t.Seed)
			}
			seeds[*t.Seed] = true
		}
	}

	tournament := &models.Tournament{
		Name:      name,
		Status:    models.StatusRegistration,
		StartDate: input.StartDate,
	}
	err = s.tx.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		if err := s.repos.Tournaments.Create(ctx, tx, tournament); err != nil {
			return err
		}
		for i := range stages {
			stages[i].TournamentID = tournament.ID
			if err := s.repos.Stages.Create(ctx, tx, &stages[i]); err != nil {
				return err
			}
		}
		for _, in := range input.Teams {
			team := models.Team{TournamentID: tournament.ID, Name: strings.TrimSpace(in.Name), Seed: in.Seed}
			if err := s.repos.Teams.Create(ctx, tx, &team); err != nil {
				return teamCreateError(err, team)
			}
			tournament.Teams = append(tournament.Teams, team)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	tournament.Stages = stages

	s.logger.Info("tournament created",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("stages", len(stages)),
		slog.Int("teams", len(tournament.Teams)))
	return tournament, nil
}

// buildStages parses stage settings and checks the chain of stages. Only the
// last stage may be an elimination bracket.
func buildStages(inputs []StageInput, teams int) ([]models.Stage, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one stage is required", ErrValidationFailed)
	}
	stages := make([]models.Stage, len(inputs))
	for i, in := range inputs {
		settings, err := models.ParseStageSettings(in.Settings)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		stages[i] = models.Stage{Index: i, Format: in.Format, Status: models.StageStatusPending}
		settings.Apply(&stages[i])
		if stages[i].BestOf == 0 {
			stages[i].BestOf = 1
		}
		if i < len(inputs)-1 && in.Format != models.FormatRoundRobin {
			return nil, fmt.Errorf("%w: stage %d: only the last stage may be %s",
				models.ErrInvalidStageConfig, i, in.Format)
		}
	}

	entering := teams
	for i := range stages {
		var next *models.Stage
		if i+1 < len(stages) {
			next = &stages[i+1]
		}
		if err := stages[i].Validate(entering, next); err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		if entering > 0 {
			entering = stages[i].AdvancingTotal(entering)
		}
	}
	return stages, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	return s.loadTournamentParallel(ctx, id)
}

func (s *tournamentService) AddTeam(ctx context.Context, tournamentID int, input TeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrValidationFailed)
	}
	if err := validateSeed(input.Seed); err != nil {
		return nil, err
	}
	team := &models.Team{TournamentID: tournamentID, Name: name, Seed: input.Seed}

	err := s.withTournament(ctx, tournamentID, func(ctx context.Context, tx repositories.SQLExecutor) error {
		t, err := s.getTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if t.Status != models.StatusRegistration {
			return ErrRegistrationClosed
		}
		if err := s.repos.Teams.Create(ctx, tx, team); err != nil {
			return teamCreateError(err, *team)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// validateSeed: seed либо не задан, либо положительный.
func validateSeed(seed *int) error {
	if seed != nil && *seed < 1 {
		return fmt.Errorf("%w: seed must be a positive integer, got %d", ErrValidationFailed, *seed)
	}
	return nil
}

func teamCreateError(err error, team models.Team) error {
	switch {
	case errors.Is(err, repositories.ErrTeamNameConflict):
		return fmt.Errorf("%w: %s", ErrTeamNameConflict, team.Name)
	case errors.Is(err, repositories.ErrTeamSeedConflict):
		return fmt.Errorf("%w: seed %d", ErrTeamSeedConflict, *team.Seed)
	}
	return err
}

func (s *tournamentService) ListActive(ctx context.Context) ([]models.Tournament, error) {
	return s.repos.Tournaments.ListByStatus(ctx, nil, models.StatusActive)
}

// withTournament выполняет fn под блокировкой турнира в одной транзакции.
func (s *tournamentService) withTournament(ctx context.Context, tournamentID int, fn func(ctx context.Context, tx repositories.SQLExecutor) error) error {
	err := locks.WithLock(ctx, s.locker, locks.TournamentKey(tournamentID), func(ctx context.Context) error {
		return s.tx.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
			return fn(ctx, tx)
		})
	})
	if errors.Is(err, locks.ErrLockTimeout) {
		return fmt.Errorf("%w: %v", ErrTournamentBusy, err)
	}
	return err
}

func (s *tournamentService) getTournament(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	t, err := s.repos.Tournaments.GetByID(ctx, exec, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}
	return t, nil
}

// loadTournament загружает турнир с этапами и командами последовательно, для транзакций.
func (s *tournamentService) loadTournament(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	t, err := s.getTournament(ctx, exec, id)
	if err != nil {
		return nil, err
	}
	if t.Stages, err = s.repos.Stages.ListByTournament(ctx, exec, id); err != nil {
		return nil, err
	}
	if t.Teams, err = s.repos.Teams.ListByTournament(ctx, exec, id); err != nil {
		return nil, err
	}
	return t, nil
}

// loadTournamentParallel is the read path: independent queries run on the pool concurrently.
func (s *tournamentService) loadTournamentParallel(ctx context.Context, id int) (*models.Tournament, error) {
	var (
		t      *models.Tournament
		stages []models.Stage
		teams  []models.Team
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = s.getTournament(gCtx, nil, id)
		return err
	})
	g.Go(func() error {
		var err error
		stages, err = s.repos.Stages.ListByTournament(gCtx, nil, id)
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = s.repos.Teams.ListByTournament(gCtx, nil, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	t.Stages, t.Teams = stages, teams
	return t, nil
}
