package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

// Archive keeps immutable JSON copies of draws and bracket snapshots so a
// draw can be audited and replayed after the fact.
type Archive struct {
	uploader FileUploader
	now      func() time.Time
}

func NewArchive(uploader FileUploader) *Archive {
	return &Archive{uploader: uploader, now: time.Now}
}

// BracketSnapshot - содержимое архивного снимка сетки.
type BracketSnapshot struct {
	TournamentID int                 `json:"tournament_id"`
	StageIndex   int                 `json:"stage_index"`
	Format       models.StageFormat  `json:"format"`
	Reason       string              `json:"reason"`
	TakenAt      time.Time           `json:"taken_at"`
	Matches      []*models.Match     `json:"matches"`
	Corrections  []models.Correction `json:"corrections,omitempty"`
}

func DrawKey(tournamentID, stageIndex int) string {
	return fmt.Sprintf("tournaments/%d/draws/stage-%d.json", tournamentID, stageIndex)
}

func SnapshotKey(tournamentID, stageIndex int, at time.Time) string {
	return fmt.Sprintf("tournaments/%d/brackets/stage-%d/%s.json", tournamentID, stageIndex, at.UTC().Format("20060102T150405.000000000Z"))
}

// ArchiveDraw uploads the draw record and returns its public URL, if any.
func (a *Archive) ArchiveDraw(ctx context.Context, record models.DrawRecord) (string, error) {
	return a.put(ctx, DrawKey(record.TournamentID, record.StageIndex), record)
}

func (a *Archive) ArchiveBracket(ctx context.Context, snapshot BracketSnapshot) (string, error) {
	if snapshot.TakenAt.IsZero() {
		snapshot.TakenAt = a.now()
	}
	return a.put(ctx, SnapshotKey(snapshot.TournamentID, snapshot.StageIndex, snapshot.TakenAt), snapshot)
}

func (a *Archive) put(ctx context.Context, key string, v interface{}) (string, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode archive object %s: %w", key, err)
	}
	result, err := a.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	return result.Location, nil
}
