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

type ViewerServiceInterface interface {
	MarkViewed(ctx context.Context, viewerID, messageID uuid.UUID) error
	GetMessage(ctx context.Context, userID, messageID uuid.UUID) (*models.Message, error)
}

type ViewerHandler struct {
	viewerService ViewerServiceInterface
}

func NewViewerHandler(viewerService ViewerServiceInterface) *ViewerHandler {
	return &ViewerHandler{viewerService: viewerService}
}

// MarkViewed handles POST /api/messages/{id}/view. Repeat calls succeed; the
// viewer set only grows.
func (h *ViewerHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	messageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	err = h.viewerService.MarkViewed(r.Context(), user.ID, messageID)
	if errors.Is(err, services.ErrMessageNotFound) {
		writeError(w, http.StatusNotFound, "Message not found")
		return
	}
	if err != nil {
		log.Printf("Error marking message viewed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Message marked as viewed"})
}

type MessageDetailResponse struct {
	Message *models.Message `json:"message"`
}

// GetMessage handles GET /api/messages/{id}.
func (h *ViewerHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	messageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	msg, err := h.viewerService.GetMessage(r.Context(), user.ID, messageID)
	if errors.Is(err, services.ErrMessageNotFound) {
		writeError(w, http.StatusNotFound, "Message not found")
		return
	}
	if err != nil {
		log.Printf("Error loading message: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, MessageDetailResponse{Message: msg})
}
