package handlers

import (
	"net/http"

	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"go.uber.org/zap"
)

// AssistantHandlers serves the rule-based cooking assistant
type AssistantHandlers struct {
	base
	service inbound.AssistantService
}

// NewAssistantHandlers creates assistant handlers
func NewAssistantHandlers(service inbound.AssistantService, maxBodyBytes int64, logger *zap.Logger) *AssistantHandlers {
	return &AssistantHandlers{
		base:    newBase(logger, maxBodyBytes),
		service: service,
	}
}

// Ask handles POST /api/v1/assistant
func (h *AssistantHandlers) Ask(w http.ResponseWriter, r *http.Request) {
	var req inbound.AskRequest
	if appErr := h.decodeJSON(w, r, &req); appErr != nil {
		h.writeError(w, r, appErr)
		return
	}

	resp, err := h.service.Ask(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeData(w, http.StatusOK, resp, "")
}

// Glossary handles GET /api/v1/assistant/glossary
func (h *AssistantHandlers) Glossary(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, http.StatusOK, h.service.Glossary(r.Context()), "")
}
