package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/locks"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/storage"
)

// memoryStore - in-memory реализация всех репозиториев для тестов сервиса.
type memoryStore struct {
	mu           sync.Mutex
	nextID       int
	tournaments  map[int]models.Tournament
	stages       map[int][]models.Stage
	teams        map[int][]models.Team
	matches      map[string]*models.Match
	draws        map[string]models.DrawRecord
	availability []models.Availability
	corrections  []models.Correction
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		tournaments: map[int]models.Tournament{},
		stages:      map[int][]models.Stage{},
		teams:       map[int][]models.Team{},
		matches:     map[string]*models.Match{},
		draws:       map[string]models.DrawRecord{},
	}
}

func (m *memoryStore) id() int {
	m.nextID++
	return m.nextID
}

func stageKey(tournamentID, stageIndex int) string {
	return fmt.Sprintf("%d/%d", tournamentID, stageIndex)
}

func matchKey(tournamentID, stageIndex int, uid string) string {
	return fmt.Sprintf("%d/%d/%s", tournamentID, stageIndex, uid)
}

func (m *memoryStore) repositories() Repositories {
	return Repositories{
		Tournaments:  memTournaments{m},
		Stages:       memStages{m},
		Teams:        memTeams{m},
		Matches:      memMatches{m},
		Draws:        memDraws{m},
		Availability: memAvailability{m},
		Corrections:  memCorrections{m},
	}
}

type memTournaments struct{ *memoryStore }

func (r memTournaments) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.id()
	t.CreatedAt = time.Now()
	r.tournaments[t.ID] = *t
	return nil
}

func (r memTournaments) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	t.Stages, t.Teams = nil, nil
	return &t, nil
}

func (r memTournaments) ListByStatus(_ context.Context, _ repositories.SQLExecutor, status models.TournamentStatus) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Tournament{}
	for _, t := range r.tournaments {
		if t.Status == status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memTournaments) UpdateProgress(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus, currentStage int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status, t.CurrentStage = status, currentStage
	r.tournaments[id] = t
	return nil
}

type memStages struct{ *memoryStore }

func (r memStages) Create(_ context.Context, _ repositories.SQLExecutor, s *models.Stage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.stages[s.TournamentID] {
		if existing.Index == s.Index {
			return repositories.ErrStageConflict
		}
	}
	s.ID = r.id()
	r.stages[s.TournamentID] = append(r.stages[s.TournamentID], *s)
	return nil
}

func (r memStages) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]models.Stage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Stage{}, r.stages[tournamentID]...), nil
}

func (r memStages) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, tournamentID, stageIndex int, status models.StageStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.stages[tournamentID] {
		if r.stages[tournamentID][i].Index == stageIndex {
			r.stages[tournamentID][i].Status = status
			return nil
		}
	}
	return repositories.ErrStageNotFound
}

type memTeams struct{ *memoryStore }

func (r memTeams) Create(_ context.Context, _ repositories.SQLExecutor, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.teams[team.TournamentID] {
		if existing.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
		if existing.Seed != nil && team.Seed != nil && *existing.Seed == *team.Seed {
			return repositories.ErrTeamSeedConflict
		}
	}
	team.ID = r.id()
	team.RegisteredAt = time.Date(2026, 1, 1, 0, 0, 0, team.ID, time.UTC)
	r.teams[team.TournamentID] = append(r.teams[team.TournamentID], *team)
	return nil
}

func (r memTeams) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Team{}, r.teams[tournamentID]...), nil
}

func (r memTeams) MarkWithdrawn(_ context.Context, _ repositories.SQLExecutor, tournamentID, teamID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.teams[tournamentID] {
		if r.teams[tournamentID][i].ID == teamID {
			r.teams[tournamentID][i].Withdrawn = true
			return nil
		}
	}
	return repositories.ErrTeamNotFound
}

type memMatches struct{ *memoryStore }

func (r memMatches) SaveAll(_ context.Context, _ repositories.SQLExecutor, tournamentID int, matches []*models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range matches {
		key := matchKey(tournamentID, m.StageIndex, m.UID)
		if existing, ok := r.matches[key]; ok {
			m.ID = existing.ID
		} else {
			m.ID = r.id()
		}
		m.TournamentID = tournamentID
		r.matches[key] = m.Clone()
	}
	return nil
}

func (r memMatches) list(filter func(*models.Match) bool) []*models.Match {
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if filter(m) {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memMatches) ListByStage(_ context.Context, _ repositories.SQLExecutor, tournamentID, stageIndex int) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(m *models.Match) bool {
		return m.TournamentID == tournamentID && m.StageIndex == stageIndex
	}), nil
}

func (r memMatches) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(m *models.Match) bool { return m.TournamentID == tournamentID }), nil
}

func (r memMatches) DeleteByUIDs(_ context.Context, _ repositories.SQLExecutor, tournamentID, stageIndex int, uids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, uid := range uids {
		key := matchKey(tournamentID, stageIndex, uid)
		if _, ok := r.matches[key]; !ok {
			return repositories.ErrMatchNotFound
		}
		delete(r.matches, key)
	}
	return nil
}

type memDraws struct{ *memoryStore }

func (r memDraws) Create(_ context.Context, _ repositories.SQLExecutor, record *models.DrawRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := stageKey(record.TournamentID, record.StageIndex)
	if _, ok := r.draws[key]; ok {
		return repositories.ErrDrawExists
	}
	record.ID = r.id()
	r.draws[key] = *record
	return nil
}

func (r memDraws) GetByStage(_ context.Context, _ repositories.SQLExecutor, tournamentID, stageIndex int) (*models.DrawRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.draws[stageKey(tournamentID, stageIndex)]
	if !ok {
		return nil, repositories.ErrDrawNotFound
	}
	return &record, nil
}

type memAvailability struct{ *memoryStore }

func (r memAvailability) Add(_ context.Context, _ repositories.SQLExecutor, pref *models.Availability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pref.ID = r.id()
	r.availability = append(r.availability, *pref)
	return nil
}

func (r memAvailability) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]models.Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Availability{}
	for _, a := range r.availability {
		if a.TournamentID == tournamentID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memCorrections struct{ *memoryStore }

func (r memCorrections) Create(_ context.Context, _ repositories.SQLExecutor, tournamentID int, c *models.Correction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.id()
	c.TournamentID = tournamentID
	r.corrections = append(r.corrections, *c)
	return nil
}

func (r memCorrections) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]models.Correction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Correction{}
	for _, c := range r.corrections {
		if c.TournamentID == tournamentID {
			out = append(out, c)
		}
	}
	return out, nil
}

// directTx выполняет функцию без транзакции.
type directTx struct{}

func (directTx) WithinTx(_ context.Context, fn func(tx repositories.SQLExecutor) error) error {
	return fn(nil)
}

type publishedEvent struct {
	TournamentID int
	Type         string
	Payload      interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(tournamentID int, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{TournamentID: tournamentID, Type: eventType, Payload: payload})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingArchive struct {
	draws     []models.DrawRecord
	snapshots []storage.BracketSnapshot
}

func (a *recordingArchive) ArchiveDraw(_ context.Context, record models.DrawRecord) (string, error) {
	a.draws = append(a.draws, record)
	return "", nil
}

func (a *recordingArchive) ArchiveBracket(_ context.Context, snapshot storage.BracketSnapshot) (string, error) {
	a.snapshots = append(a.snapshots, snapshot)
	return "", nil
}

type busyLocker struct{}

func (busyLocker) Acquire(_ context.Context, key string) (locks.Lock, error) {
	return nil, fmt.Errorf("%w: %s", locks.ErrLockTimeout, key)
}

type testEnv struct {
	store     *memoryStore
	publisher *recordingPublisher
	archive   *recordingArchive
	svc       TournamentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:     newMemoryStore(),
		publisher: &recordingPublisher{},
		archive:   &recordingArchive{},
	}
	svc := NewTournamentService(
		env.store.repositories(),
		directTx{},
		locks.NewLocalLocker(),
		env.publisher,
		env.archive,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	svc.(*tournamentService).now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }
	env.svc = svc
	return env
}
