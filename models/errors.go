package models

import "errors"

// Ошибки движка сетки. Сервисный слой оборачивает их через %w.
var (
	ErrInsufficientEntrants  = errors.New("not enough entrants to build a bracket (minimum 2)")
	ErrInvalidStageConfig    = errors.New("invalid stage configuration")
	ErrInvalidScore          = errors.New("score is not valid for the match format")
	ErrUnresolvedSlot        = errors.New("match has no resolved downstream slot")
	ErrMatchNotFound         = errors.New("match not found in bracket")
	ErrMatchNotReady         = errors.New("match participants are not determined yet")
	ErrInvalidTransition     = errors.New("invalid match status transition")
	ErrCorrectionBlocked     = errors.New("correction would rewrite an already resolved downstream match")
	ErrTeamNotInBracket      = errors.New("team does not take part in this bracket")
	ErrInvalidScheduleConfig = errors.New("invalid scheduling configuration")
)
