package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rocketscienceinc/gomoku-arena/internal/apperror"
	"github.com/rocketscienceinc/gomoku-arena/internal/entity"
	"github.com/rocketscienceinc/gomoku-arena/internal/usecase"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	maxRequestSize = 16 << 10
)

type matchRunner interface {
	Start() error
	Reset()
	Snapshot() entity.Snapshot
	Status() usecase.RunnerStatus
}

type botRegistry interface {
	Bind(player entity.Mark, info entity.BotInfo) error
	Unbind(player entity.Mark) error
	Binding(player entity.Mark) (entity.BotBinding, bool)
	BothBound() bool
}

type matchService interface {
	GetMatchByID(ctx context.Context, id string) (*entity.MatchRecord, error)
	ListMatches(ctx context.Context, limit int) ([]*entity.MatchRecord, error)
}

type registerBotRequest struct {
	Player  string         `json:"player"`
	BotInfo entity.BotInfo `json:"bot_info"`
}

type unregisterBotRequest struct {
	Player string `json:"player"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type gameStatusResponse struct {
	usecase.RunnerStatus
	BothBotsConnected bool `json:"bothBotsConnected"`
}

type handlers struct {
	logger *slog.Logger

	runner   matchRunner
	registry botRegistry
	matches  matchService
}

func newHandlers(logger *slog.Logger, runner matchRunner, registry botRegistry, matches matchService) *handlers {
	return &handlers{
		logger:   logger,
		runner:   runner,
		registry: registry,
		matches:  matches,
	}
}

func (that *handlers) GameState(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, that.runner.Snapshot())
}

func (that *handlers) GameStatus(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, gameStatusResponse{
		RunnerStatus:      that.runner.Status(),
		BothBotsConnected: that.registry.BothBound(),
	})
}

func (that *handlers) RegisterBot(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "RegisterBot")

	var req registerBotRequest
	if err := decodeBody(w, r, &req); err != nil {
		that.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	player, err := entity.ParsePlayer(req.Player)
	if err != nil {
		that.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err = that.registry.Bind(player, req.BotInfo); err != nil {
		that.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Info("bot registered", "player", player, "bot", req.BotInfo.DisplayName(), "address", req.BotInfo.Address())
	that.writeJSON(w, http.StatusOK, statusResponse{Status: statusSuccess})
}

func (that *handlers) UnregisterBot(w http.ResponseWriter, r *http.Request) {
	var req unregisterBotRequest
	if err := decodeBody(w, r, &req); err != nil {
		that.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	player, err := entity.ParsePlayer(req.Player)
	if err != nil {
		that.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err = that.registry.Unbind(player); err != nil {
		that.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	that.logger.Info("bot unregistered", "player", player)
	that.writeJSON(w, http.StatusOK, statusResponse{Status: statusSuccess})
}

func (that *handlers) ConnectedBots(w http.ResponseWriter, _ *http.Request) {
	bots := make(map[entity.Mark]*entity.BotBinding, len(entity.Players))
	for _, player := range entity.Players {
		bots[player] = nil
		if binding, ok := that.registry.Binding(player); ok {
			bots[player] = &binding
		}
	}

	that.writeJSON(w, http.StatusOK, bots)
}

func (that *handlers) StartGame(w http.ResponseWriter, _ *http.Request) {
	err := that.runner.Start()

	switch {
	case err == nil:
		that.writeJSON(w, http.StatusOK, statusResponse{Status: statusSuccess})
	case errors.Is(err, apperror.ErrBotsNotBound), errors.Is(err, apperror.ErrMatchInProgress):
		that.writeError(w, http.StatusConflict, err.Error())
	default:
		that.logger.Error("failed to start match", "error", err)
		that.writeError(w, http.StatusServiceUnavailable, err.Error())
	}
}

func (that *handlers) ResetGame(w http.ResponseWriter, _ *http.Request) {
	that.runner.Reset()
	that.writeJSON(w, http.StatusOK, statusResponse{Status: statusSuccess})
}

func (that *handlers) ListMatches(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			that.writeError(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = parsed
	}

	records, err := that.matches.ListMatches(r.Context(), limit)
	if err != nil {
		that.logger.Error("failed to list matches", "error", err)
		that.writeError(w, http.StatusInternalServerError, "failed to list matches")
		return
	}

	if records == nil {
		records = []*entity.MatchRecord{}
	}

	that.writeJSON(w, http.StatusOK, records)
}

func (that *handlers) GetMatch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := that.matches.GetMatchByID(r.Context(), id)
	if errors.Is(err, apperror.ErrMatchNotFound) {
		that.writeError(w, http.StatusNotFound, apperror.ErrMatchNotFound.Error())
		return
	}

	if err != nil {
		that.logger.Error("failed to get match", "matchID", id, "error", err)
		that.writeError(w, http.StatusInternalServerError, "failed to get match")
		return
	}

	that.writeJSON(w, http.StatusOK, record)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize)).Decode(dst)
}

func (that *handlers) writeError(w http.ResponseWriter, status int, message string) {
	that.writeJSON(w, status, statusResponse{Status: statusError, Message: message})
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
