package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"locline/internal/domain"
	"locline/internal/ports"
	"locline/internal/usecase/runner"
)

type RunHandler struct {
	runner   *runner.Runner
	runs     ports.RunRepository // optional
	defaults domain.RunConfig
}

func NewRunHandler(rn *runner.Runner, runs ports.RunRepository, defaults domain.RunConfig) *RunHandler {
	return &RunHandler{runner: rn, runs: runs, defaults: defaults}
}

type startRequest struct {
	File string `json:"file"`
	// Config overrides the server defaults entirely when present.
	Config *domain.RunConfig `json:"config,omitempty"`
}

func (h *RunHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.File == "" {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}
	cfg := h.defaults
	if req.Config != nil {
		cfg = *req.Config
	}
	id, err := h.runner.Start(cfg, req.File)
	if err != nil {
		if errors.Is(err, runner.ErrRunActive) {
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": id})
}

func (h *RunHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.runner.Stop()
	writeJSON(w, http.StatusOK, map[string]bool{"stopped": true})
}

func (h *RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, active := h.runner.Status()
	resp := map[string]any{"run_id": id, "active": active}
	if h.runs != nil && id != "" {
		if run, err := h.runs.Get(r.Context(), id); err == nil && run != nil {
			resp["run"] = run
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeJSON(w, http.StatusOK, []*domain.Run{})
		return
	}
	runs, err := h.runs.List(r.Context(), 50)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []*domain.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}
