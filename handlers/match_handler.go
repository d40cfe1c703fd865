package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-engine/services"
	"github.com/go-chi/chi/v5"
)

type MatchHandler struct {
	tournamentService services.TournamentService
}

func NewMatchHandler(ts services.TournamentService) *MatchHandler {
	return &MatchHandler{tournamentService: ts}
}

// matchParams читает tournamentID и matchUID из пути.
func matchParams(r *http.Request) (int, string, error) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		return 0, "", err
	}
	uid := chi.URLParam(r, "matchUID")
	if uid == "" {
		return 0, "", errMissingMatchUID
	}
	return tournamentID, uid, nil
}

func (h *MatchHandler) respond(w http.ResponseWriter, r *http.Request, result *services.TransitionResult, err error) {
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StartHandler godoc
// @Summary Начать матч
// @Tags matches
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param matchUID path string true "Match UID, e.g. R1M1 or LB-R2M1"
// @Success 200 {object} map[string]interface{} "Матч идёт"
// @Failure 409 {object} map[string]string "Участники ещё не определены"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/matches/{matchUID}/start [post]
func (h *MatchHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, uid, err := matchParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	result, err := h.tournamentService.StartMatch(r.Context(), tournamentID, uid)
	h.respond(w, r, result, err)
}

// ResultHandler godoc
// @Summary Внести результат матча
// @Tags matches
// @Description Победитель проходит дальше по сетке, проигравший уходит в нижнюю сетку или выбывает.
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param matchUID path string true "Match UID"
// @Param body body services.ResultInput true "Счёт"
// @Success 200 {object} map[string]interface{} "Изменённые матчи и следующий этап, если он начался"
// @Failure 409 {object} map[string]string "Матч уже завершён"
// @Failure 422 {object} map[string]string "Счёт не соответствует формату best-of"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/matches/{matchUID}/result [post]
func (h *MatchHandler) ResultHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, uid, err := matchParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.ResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	result, err := h.tournamentService.ReportResult(r.Context(), tournamentID, uid, input)
	h.respond(w, r, result, err)
}

// ForfeitHandler godoc
// @Summary Техническая победа
// @Tags matches
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param matchUID path string true "Match UID"
// @Param body body services.ForfeitInput true "Победитель"
// @Success 200 {object} map[string]interface{} "Изменённые матчи"
// @Failure 422 {object} map[string]string "Команда не играет этот матч"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/matches/{matchUID}/forfeit [post]
func (h *MatchHandler) ForfeitHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, uid, err := matchParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.ForfeitInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	result, err := h.tournamentService.ForfeitMatch(r.Context(), tournamentID, uid, input)
	h.respond(w, r, result, err)
}

// DisputeHandler godoc
// @Summary Оспорить результат
// @Tags matches
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param matchUID path string true "Match UID"
// @Success 200 {object} map[string]interface{} "Матч помечен спорным"
// @Failure 409 {object} map[string]string "Оспорить можно только завершённый матч"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/matches/{matchUID}/dispute [post]
func (h *MatchHandler) DisputeHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, uid, err := matchParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	result, err := h.tournamentService.DisputeMatch(r.Context(), tournamentID, uid)
	h.respond(w, r, result, err)
}

// ResolveHandler godoc
// @Summary Закрыть спор
// @Tags matches
// @Description Смена победителя разрешена, пока зависящие матчи не сыграны. Исправление сохраняется в журнале.
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param matchUID path string true "Match UID"
// @Param body body services.ResolveInput true "Итоговый счёт и комментарий"
// @Success 200 {object} map[string]interface{} "Изменённые матчи и запись исправления"
// @Failure 409 {object} map[string]string "Зависящий матч уже сыгран"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/matches/{matchUID}/resolve [post]
func (h *MatchHandler) ResolveHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, uid, err := matchParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.ResolveInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	result, err := h.tournamentService.ResolveDispute(r.Context(), tournamentID, uid, input)
	h.respond(w, r, result, err)
}
