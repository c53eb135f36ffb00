package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/harborchat/harbor/internal/models"
	"github.com/harborchat/harbor/internal/services"
	"github.com/harborchat/harbor/internal/testutil"
)

type mockMembershipService struct {
	GetChatFunc func(ctx context.Context, userID, chatID uuid.UUID) (*models.Chat, error)
}

func (m *mockMembershipService) GetChat(ctx context.Context, userID, chatID uuid.UUID) (*models.Chat, error) {
	if m.GetChatFunc != nil {
		return m.GetChatFunc(ctx, userID, chatID)
	}
	return &models.Chat{ID: chatID}, nil
}

func getChatRequest(chatID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/chats/"+chatID, nil)
	req.SetPathValue("id", chatID)
	return req
}

func TestChatHandler_Get_RequiresAuth(t *testing.T) {
	handler := NewChatHandler(&mockMembershipService{})
	rr := httptest.NewRecorder()

	handler.Get(rr, getChatRequest(uuid.New().String()))
	assertErrorResponse(t, rr, http.StatusUnauthorized, "Authentication required")
}

func TestChatHandler_Get_InvalidChatID(t *testing.T) {
	handler := NewChatHandler(&mockMembershipService{})
	req := authenticatedRequest(getChatRequest("bad"), testUser())
	rr := httptest.NewRecorder()

	handler.Get(rr, req)
	assertErrorResponse(t, rr, http.StatusBadRequest, "Invalid chat ID")
}

func TestChatHandler_Get_NotFound(t *testing.T) {
	handler := NewChatHandler(&mockMembershipService{
		GetChatFunc: func(ctx context.Context, userID, chatID uuid.UUID) (*models.Chat, error) {
			return nil, services.ErrChatNotFound
		},
	})
	req := authenticatedRequest(getChatRequest(uuid.New().String()), testUser())
	rr := httptest.NewRecorder()

	handler.Get(rr, req)
	assertErrorResponse(t, rr, http.StatusNotFound, "Chat not found")
}

func TestChatHandler_Get_Success(t *testing.T) {
	user := testUser()
	chatID := uuid.New()
	handler := NewChatHandler(&mockMembershipService{
		GetChatFunc: func(ctx context.Context, gotUserID, gotChatID uuid.UUID) (*models.Chat, error) {
			if gotUserID != user.ID {
				t.Fatalf("expected user %v, got %v", user.ID, gotUserID)
			}
			return &models.Chat{
				ID:      gotChatID,
				Members: []uuid.UUID{user.ID},
				LastActivity: &models.ActivitySummary{
					Text:      "reacted 😂 to a message",
					SenderID:  user.ID,
					Timestamp: time.Now().UTC(),
				},
			}, nil
		},
	})

	req := authenticatedRequest(getChatRequest(chatID.String()), user)
	rr := httptest.NewRecorder()

	handler.Get(rr, req)
	testutil.AssertStatusCode(t, rr, http.StatusOK)

	var response ChatResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Chat == nil || response.Chat.ID != chatID || response.Chat.LastActivity == nil {
		t.Fatalf("unexpected response: %+v", response.Chat)
	}
}
