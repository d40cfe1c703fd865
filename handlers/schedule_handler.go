package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Dosada05/tournament-engine/scheduling"
	"github.com/Dosada05/tournament-engine/services"
)

type ScheduleHandler struct {
	tournamentService services.TournamentService
}

func NewScheduleHandler(ts services.TournamentService) *ScheduleHandler {
	return &ScheduleHandler{tournamentService: ts}
}

// AutoScheduleRequest - интервалы в минутах, как их вводит организатор.
type AutoScheduleRequest struct {
	Start         time.Time `json:"start"`
	MatchesPerDay int       `json:"matches_per_day"`
	GapMinutes    int       `json:"gap_minutes"`
}

type PlanScheduleRequest struct {
	GapMinutes int `json:"gap_minutes"`
}

func (h *ScheduleHandler) respond(w http.ResponseWriter, r *http.Request, result *services.ScheduleResult, err error) {
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"schedule": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AutoScheduleHandler godoc
// @Summary Расписание по шагу
// @Tags schedule
// @Description Назначает время всем несыгранным матчам текущего этапа: start, start+gap, ... по matches_per_day в день.
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body AutoScheduleRequest true "Начало, матчей в день, интервал в минутах"
// @Success 200 {object} map[string]interface{} "Назначения и найденные конфликты"
// @Failure 422 {object} map[string]string "Некорректные параметры"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/schedule/auto [post]
func (h *ScheduleHandler) AutoScheduleHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input AutoScheduleRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.GapMinutes < 0 {
		unprocessableResponse(w, r, errors.New("gap_minutes must not be negative"))
		return
	}

	result, err := h.tournamentService.AutoSchedule(r.Context(), tournamentID, scheduling.CadenceConfig{
		Start:         input.Start,
		MatchesPerDay: input.MatchesPerDay,
		Gap:           time.Duration(input.GapMinutes) * time.Minute,
	})
	h.respond(w, r, result, err)
}

// SubmitAvailabilityHandler godoc
// @Summary Отправить доступное время команды
// @Tags schedule
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body services.AvailabilityInput true "Команда, матч и варианты времени начала"
// @Success 201 {object} map[string]interface{} "Сохранено"
// @Failure 409 {object} map[string]string "Матч уже сыгран"
// @Failure 422 {object} map[string]string "Команда не играет этот матч"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/availability [post]
func (h *ScheduleHandler) SubmitAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.AvailabilityInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.SubmitAvailability(r.Context(), tournamentID, input); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"message": "availability recorded"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PlanScheduleHandler godoc
// @Summary Расписание по доступности
// @Tags schedule
// @Description Выбирает самое раннее общее время обеих команд с учётом интервала между матчами команды.
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body PlanScheduleRequest false "Минимальный интервал в минутах"
// @Success 200 {object} map[string]interface{} "Назначения и матчи без времени"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/schedule/plan [post]
func (h *ScheduleHandler) PlanScheduleHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input PlanScheduleRequest
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.GapMinutes < 0 {
		unprocessableResponse(w, r, errors.New("gap_minutes must not be negative"))
		return
	}

	result, err := h.tournamentService.PlanSchedule(r.Context(), tournamentID, scheduling.AvailabilityConfig{
		Gap: time.Duration(input.GapMinutes) * time.Minute,
	})
	h.respond(w, r, result, err)
}

// ConflictsHandler godoc
// @Summary Конфликты расписания
// @Tags schedule
// @Description Пары матчей одной команды, начинающихся ближе чем через час.
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{} "Список конфликтов"
// @Router /tournaments/{tournamentID}/schedule/conflicts [get]
func (h *ScheduleHandler) ConflictsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conflicts, err := h.tournamentService.Conflicts(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"conflicts": conflicts}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
