package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusRegistration TournamentStatus = "registration"
	StatusActive       TournamentStatus = "active"
	StatusCompleted    TournamentStatus = "completed"
	StatusCanceled     TournamentStatus = "canceled"
)

// Tournament представляет турнир.
type Tournament struct {
	ID           int              `json:"id" db:"id"`
	Name         string           `json:"name" db:"name"`
	Status       TournamentStatus `json:"status" db:"status"`
	CurrentStage int              `json:"current_stage" db:"current_stage"`
	StartDate    time.Time        `json:"start_date" db:"start_date"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Stages []Stage `json:"stages,omitempty" db:"-"`
	Teams  []Team  `json:"teams,omitempty" db:"-"`
}

// StageAt returns the stage with the given index and the one following it.
func (t *Tournament) StageAt(index int) (stage *Stage, next *Stage) {
	for i := range t.Stages {
		if t.Stages[i].Index == index {
			stage = &t.Stages[i]
		}
		if t.Stages[i].Index == index+1 {
			next = &t.Stages[i]
		}
	}
	return stage, next
}
