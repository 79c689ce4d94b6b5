package handlers

import (
	"net/http"

	"locline/internal/ports"
)

type ModelsHandler struct {
	build          ports.ProviderBuilder
	defaultBaseURL string
	defaultAPIKey  string
}

func NewModelsHandler(build ports.ProviderBuilder, baseURL, apiKey string) *ModelsHandler {
	return &ModelsHandler{build: build, defaultBaseURL: baseURL, defaultAPIKey: apiKey}
}

// List returns the endpoint's model identifiers, alphabetically sorted.
// base_url and api_key query parameters override the configured endpoint.
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	baseURL := r.URL.Query().Get("base_url")
	if baseURL == "" {
		baseURL = h.defaultBaseURL
	}
	apiKey := r.URL.Query().Get("api_key")
	if apiKey == "" {
		apiKey = h.defaultAPIKey
	}
	models, err := h.build(baseURL, apiKey).ListModels(r.Context())
	if err != nil {
		jsonError(w, "list models: "+err.Error(), http.StatusBadGateway)
		return
	}
	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	writeJSON(w, http.StatusOK, ids)
}
