package handlers

import (
	"context"
	"net/http"

	"github.com/Dosada05/tournament-engine/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
	}
}

// CreateHandler godoc
// @Summary Создать турнир
// @Tags tournaments
// @Description Создает турнир с цепочкой этапов и начальным списком команд. Настройки этапа проверяются сразу.
// @Accept json
// @Produce json
// @Param body body services.CreateTournamentInput true "Название, дата старта, этапы и команды"
// @Success 201 {object} map[string]interface{} "Турнир создан"
// @Failure 400 {object} map[string]string "Некорректный JSON"
// @Failure 409 {object} map[string]string "Повторяющееся имя команды"
// @Failure 422 {object} map[string]string "Некорректная конфигурация этапов"
// @Security BearerAuth
// @Router /tournaments [post]
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler godoc
// @Summary Получить турнир
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{} "Турнир с этапами и командами"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Router /tournaments/{tournamentID} [get]
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AddTeamHandler godoc
// @Summary Зарегистрировать команду
// @Tags teams
// @Description Доступно только пока турнир в статусе registration.
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body services.TeamInput true "Имя и необязательный посев"
// @Success 201 {object} map[string]interface{} "Команда добавлена"
// @Failure 409 {object} map[string]string "Регистрация закрыта или имя занято"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/teams [post]
func (h *TournamentHandler) AddTeamHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.TeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.tournamentService.AddTeam(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// WithdrawTeamHandler godoc
// @Summary Снять команду с турнира
// @Tags teams
// @Description Открытые матчи команды в текущем этапе засчитываются сопернику.
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param teamID path int true "Team ID"
// @Success 200 {object} map[string]interface{} "Изменённые матчи"
// @Failure 404 {object} map[string]string "Команда не найдена"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/teams/{teamID}/withdraw [post]
func (h *TournamentHandler) WithdrawTeamHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.tournamentService.WithdrawTeam(r.Context(), tournamentID, teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RunDrawHandler godoc
// @Summary Провести жеребьёвку групп
// @Tags stages
// @Description Распределяет команды по группам этапа round robin. Переданный seed воспроизводит прошлую жеребьёвку.
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param stageIndex path int true "Stage index, from 0"
// @Param body body services.DrawInput false "Корзины и seed"
// @Success 201 {object} map[string]interface{} "Результат жеребьёвки"
// @Failure 409 {object} map[string]string "Жеребьёвка уже проведена"
// @Failure 422 {object} map[string]string "Этап не round robin или корзины некорректны"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/stages/{stageIndex}/draw [post]
func (h *TournamentHandler) RunDrawHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageIndex, err := getStageIndexFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.DrawInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	record, err := h.tournamentService.RunDraw(r.Context(), tournamentID, stageIndex, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"draw": record, "groups": record.Groups()}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateStageHandler godoc
// @Summary Сгенерировать сетку этапа
// @Tags stages
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param stageIndex path int true "Stage index, from 0"
// @Success 201 {object} map[string]interface{} "Сетка этапа"
// @Failure 409 {object} map[string]string "Сетка уже создана или предыдущий этап не завершён"
// @Failure 422 {object} map[string]string "Недостаточно участников"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/stages/{stageIndex}/generate [post]
func (h *TournamentHandler) GenerateStageHandler(w http.ResponseWriter, r *http.Request) {
	h.stageOperation(w, r, h.tournamentService.GenerateStage)
}

// AdvanceStageHandler godoc
// @Summary Перевести турнир на следующий этап
// @Tags stages
// @Description Повторяет переход, если автоматический переход после последнего матча не удался.
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param stageIndex path int true "Index of the finished stage"
// @Success 201 {object} map[string]interface{} "Сетка следующего этапа"
// @Failure 409 {object} map[string]string "Этап ещё идёт"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/stages/{stageIndex}/advance [post]
func (h *TournamentHandler) AdvanceStageHandler(w http.ResponseWriter, r *http.Request) {
	h.stageOperation(w, r, h.tournamentService.AdvanceStage)
}

func (h *TournamentHandler) stageOperation(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, tournamentID, stageIndex int) (*services.BracketView, error),
) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageIndex, err := getStageIndexFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := op(r.Context(), tournamentID, stageIndex)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"bracket": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// BracketHandler godoc
// @Summary Сетка этапа
// @Tags stages
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param stage query int false "Stage index, current stage by default"
// @Success 200 {object} map[string]interface{} "Матчи, места и исправления"
// @Failure 404 {object} map[string]string "Турнир или этап не найден"
// @Router /tournaments/{tournamentID}/bracket [get]
func (h *TournamentHandler) BracketHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageIndex, err := stageQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.tournamentService.Bracket(r.Context(), tournamentID, stageIndex)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StandingsHandler godoc
// @Summary Таблицы групп
// @Tags stages
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param stage query int false "Stage index, current stage by default"
// @Success 200 {object} map[string]interface{} "Таблицы по группам"
// @Failure 422 {object} map[string]string "Этап не round robin"
// @Router /tournaments/{tournamentID}/standings [get]
func (h *TournamentHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageIndex, err := stageQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	groups, err := h.tournamentService.Standings(r.Context(), tournamentID, stageIndex)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": groups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
