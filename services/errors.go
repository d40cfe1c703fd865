package services

import "errors"

// Общие ошибки, используемые в сервисах и маппинге HTTP.
// Ошибки движка (models.Err*) проходят через сервис обёрнутыми через %w.
var (
	ErrValidationFailed = errors.New("validation failed")

	ErrTournamentNotFound = errors.New("tournament not found")
	ErrStageNotFound      = errors.New("stage not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrDrawNotFound       = errors.New("draw not found")

	// Ошибки состояния турнира
	ErrRegistrationClosed    = errors.New("tournament registration is closed")
	ErrStageAlreadyGenerated = errors.New("stage bracket is already generated")
	ErrStageNotReady         = errors.New("previous stage is not completed yet")
	ErrStageNotStarted       = errors.New("stage bracket is not generated yet")
	ErrDrawAlreadyExists     = errors.New("draw for this stage already exists")
	ErrDrawNotApplicable     = errors.New("draw is only held for round robin stages")
	ErrTeamNameConflict      = errors.New("team name is already in use")
	ErrTeamSeedConflict      = errors.New("team seed is already in use")
	ErrTournamentBusy        = errors.New("tournament is being modified, try again")
)
