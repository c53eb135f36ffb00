package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/harborchat/harbor/internal/models"
	"github.com/harborchat/harbor/internal/services"
)

type ReactionServiceInterface interface {
	Apply(ctx context.Context, user models.SessionUser, messageID uuid.UUID, intent *models.ReactionValue) error
	ListForMessage(ctx context.Context, user models.SessionUser, messageID uuid.UUID) ([]models.Reaction, error)
	SummaryForMessage(ctx context.Context, user models.SessionUser, messageID uuid.UUID) ([]models.ReactionSummary, error)
}

type ReactionHandler struct {
	reactionService ReactionServiceInterface
}

func NewReactionHandler(reactionService ReactionServiceInterface) *ReactionHandler {
	return &ReactionHandler{reactionService: reactionService}
}

// SetReactionRequest carries the caller's full reaction intent: a concrete
// value sets or supersedes, an explicit null clears.
type SetReactionRequest struct {
	Reaction *models.ReactionValue `json:"reaction"`
}

type ReactionListResponse struct {
	Reactions []models.Reaction        `json:"reactions"`
	Summary   []models.ReactionSummary `json:"summary"`
}

type AllowedReactionsResponse struct {
	Values []models.ReactionValue `json:"values"`
}

type MessageResponse struct {
	Message string `json:"message,omitempty"`
}

// Set handles PUT /api/messages/{id}/reaction.
func (h *ReactionHandler) Set(w http.ResponseWriter, r *http.Request) {
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

	var req SetReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err = h.reactionService.Apply(r.Context(), *user, messageID, req.Reaction)
	if errors.Is(err, services.ErrInvalidReaction) {
		writeError(w, http.StatusBadRequest, "Invalid reaction value")
		return
	}
	if errors.Is(err, services.ErrNotChatMember) {
		writeError(w, http.StatusForbidden, "Message does not exist or you are not part of the chat")
		return
	}
	if errors.Is(err, services.ErrReactionNotFound) {
		writeError(w, http.StatusNotFound, "Reaction not found")
		return
	}
	if err != nil {
		log.Printf("Error applying reaction: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if req.Reaction == nil {
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Reaction removed"})
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Reaction added"})
}

// List handles GET /api/messages/{id}/reactions.
func (h *ReactionHandler) List(w http.ResponseWriter, r *http.Request) {
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

	reactions, err := h.reactionService.ListForMessage(r.Context(), *user, messageID)
	if errors.Is(err, services.ErrNotChatMember) {
		writeError(w, http.StatusForbidden, "Message does not exist or you are not part of the chat")
		return
	}
	if err != nil {
		log.Printf("Error listing reactions: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	summary, err := h.reactionService.SummaryForMessage(r.Context(), *user, messageID)
	if err != nil {
		log.Printf("Error summarizing reactions: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ReactionListResponse{
		Reactions: reactions,
		Summary:   summary,
	})
}

// AllowedValues handles GET /api/reactions/values.
func (h *ReactionHandler) AllowedValues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AllowedReactionsResponse{Values: models.AllowedReactions})
}
