package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/harborchat/harbor/internal/models"
	"github.com/harborchat/harbor/internal/services"
)

type MembershipServiceInterface interface {
	GetChat(ctx context.Context, userID, chatID uuid.UUID) (*models.Chat, error)
}

type ChatHandler struct {
	membershipService MembershipServiceInterface
}

func NewChatHandler(membershipService MembershipServiceInterface) *ChatHandler {
	return &ChatHandler{membershipService: membershipService}
}

type ChatResponse struct {
	Chat *models.Chat `json:"chat"`
}

// Get handles GET /api/chats/{id}.
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	chatID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid chat ID")
		return
	}

	chat, err := h.membershipService.GetChat(r.Context(), user.ID, chatID)
	if errors.Is(err, services.ErrChatNotFound) {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	if err != nil {
		log.Printf("Error loading chat: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Chat: chat})
}
