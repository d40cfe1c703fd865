package repositories

import (
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchRow_EncodeDecode(t *testing.T) {
	a, b := 2, 1
	winner := 10
	at := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	m := &models.Match{
		UID:         "WB-R1M1",
		Slots:       [2]models.Slot{models.TeamSlot(10), models.TeamSlot(20)},
		Scores:      [2]*int{&a, &b},
		WinnerID:    &winner,
		WinnerTo:    &models.Link{MatchUID: "WB-R2M1", Slot: 0},
		LoserTo:     &models.Link{MatchUID: "LB-R1M1", Slot: 1},
		ScheduledAt: &at,
	}

	row, err := encodeMatch(m)
	require.NoError(t, err)

	var decoded models.Match
	decoded.UID = m.UID
	require.NoError(t, row.decode(&decoded))

	assert.Equal(t, m.Slots, decoded.Slots)
	assert.Equal(t, 2, *decoded.Scores[0])
	assert.Equal(t, 1, *decoded.Scores[1])
	assert.Equal(t, 10, *decoded.WinnerID)
	assert.Equal(t, *m.WinnerTo, *decoded.WinnerTo)
	assert.Equal(t, *m.LoserTo, *decoded.LoserTo)
	assert.True(t, at.Equal(*decoded.ScheduledAt))
}

func TestMatchRow_PendingHasNulls(t *testing.T) {
	m := &models.Match{
		UID:   "R2M1",
		Slots: [2]models.Slot{models.PendingSlot("R1M1", models.OutcomeWinner), models.PendingSlot("R1M2", models.OutcomeWinner)},
	}
	row, err := encodeMatch(m)
	require.NoError(t, err)

	assert.False(t, row.scoreA.Valid)
	assert.False(t, row.winner.Valid)
	assert.False(t, row.winnerToUID.Valid)
	assert.False(t, row.scheduledAt.Valid)

	var decoded models.Match
	require.NoError(t, row.decode(&decoded))
	assert.Nil(t, decoded.WinnerTo)
	assert.Nil(t, decoded.Scores[0])
	assert.Equal(t, "R1M2", decoded.Slots[1].From.MatchUID)
}

func TestScorePair(t *testing.T) {
	one := 1
	pair := scorePair(scoreArray([2]*int{&one, nil}))
	require.NotNil(t, pair[0])
	assert.Equal(t, 1, *pair[0])
	assert.Nil(t, pair[1])
}
