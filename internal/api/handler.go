package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"breakout-desk/config"
	"breakout-desk/internal/app"
	"breakout-desk/models"
	"breakout-desk/observability"
)

// Handler handles HTTP API requests
type Handler struct {
	app *app.App
	cfg *config.Config
}

// NewHandler creates a new Handler
func NewHandler(application *app.App, cfg *config.Config) *Handler {
	return &Handler{app: application, cfg: cfg}
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":           "ok",
		"sessions":         h.app.Sessions().Count(),
		"strategy_service": h.cfg.StrategyAPI.BaseURL,
	}

	if cbStatus := h.app.BreakerStatus(); cbStatus != nil {
		status["circuit_breakers"] = cbStatus
		for _, cb := range cbStatus {
			if cb.Open() {
				status["status"] = "degraded"
				break
			}
		}
	}

	h.jsonResponse(w, http.StatusOK, status)
}

// HandleCreateSession starts a new session in the Idle state
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.app.Sessions().Create()
	if err != nil {
		if errors.Is(err, app.ErrSessionLimit) {
			h.jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, http.StatusCreated, NewSessionResponse(session))
}

// HandleGetSession returns the current view state and form of a session
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	h.jsonResponse(w, http.StatusOK, NewSessionResponse(session))
}

// HandleDeleteSession ends a session
func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Sessions().Delete(chi.URLParam(r, "id")); err != nil {
		h.sessionError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// FormRequest updates any subset of the form fields
type FormRequest struct {
	Ticker       *string `json:"ticker"`
	Dollars      *string `json:"dollars"`
	StrategyType *string `json:"type"`
}

// HandleUpdateForm applies form edits. Edits never change the view state.
func (h *Handler) HandleUpdateForm(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req FormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var strategyType models.StrategyType
	if req.StrategyType != nil {
		parsed, err := models.ParseStrategyType(*req.StrategyType)
		if err != nil {
			h.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		strategyType = parsed
	}

	o := session.Orchestrator
	if req.Ticker != nil {
		o.SetTicker(strings.TrimSpace(*req.Ticker))
	}
	if req.Dollars != nil {
		o.SetDollars(strings.TrimSpace(*req.Dollars))
	}
	if strategyType != "" {
		o.SetStrategyType(strategyType)
	}

	h.jsonResponse(w, http.StatusOK, NewSessionResponse(session))
}

// StrategyRequest optionally names the ticker to request
type StrategyRequest struct {
	Ticker string `json:"ticker"`
}

// HandleSubmitStrategy requests strategies for the body ticker or the form
// ticker. With neither it answers 200 and the session is left unchanged.
func (h *Handler) HandleSubmitStrategy(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req StrategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.startStrategy(w, session, req.Ticker)
}

// HandleSubmitScan starts a scan of the ticker universe
func (h *Handler) HandleSubmitScan(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	run := session.Orchestrator.StartScan()
	h.app.Go(run)

	observability.WithSession(session.ID.String()).Info("scan accepted")
	h.jsonResponse(w, http.StatusAccepted, NewSessionResponse(session))
}

// HandleSelectCandidate drills into a scan candidate. Ticker text is passed
// through like any other user input.
func (h *Handler) HandleSelectCandidate(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	h.startStrategy(w, session, chi.URLParam(r, "ticker"))
}

func (h *Handler) startStrategy(w http.ResponseWriter, session *app.Session, ticker string) {
	run, started := session.Orchestrator.StartStrategy(ticker)
	if !started {
		h.jsonResponse(w, http.StatusOK, NewSessionResponse(session))
		return
	}
	h.app.Go(run)

	observability.WithSession(session.ID.String()).Info("strategy request accepted", "ticker", ticker)
	h.jsonResponse(w, http.StatusAccepted, NewSessionResponse(session))
}

// session resolves the {id} URL parameter, writing the error response itself
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*app.Session, bool) {
	session, err := h.app.Sessions().Get(chi.URLParam(r, "id"))
	if err != nil {
		h.sessionError(w, err)
		return nil, false
	}
	return session, true
}

func (h *Handler) sessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, app.ErrSessionNotFound) {
		h.jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	h.jsonError(w, err.Error(), http.StatusBadRequest)
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
