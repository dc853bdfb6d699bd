package handlers

import (
	"net/http"

	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"go.uber.org/zap"
)

// ChatHandlers serves the language model chat proxy
type ChatHandlers struct {
	base
	service inbound.ChatService
}

// NewChatHandlers creates chat handlers
func NewChatHandlers(service inbound.ChatService, maxBodyBytes int64, logger *zap.Logger) *ChatHandlers {
	return &ChatHandlers{
		base:    newBase(logger, maxBodyBytes),
		service: service,
	}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req inbound.ChatRequest
	if appErr := h.decodeJSON(w, r, &req); appErr != nil {
		h.writeError(w, r, appErr)
		return
	}

	resp, err := h.service.Chat(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeData(w, http.StatusOK, resp, "")
}
