package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"skill_swap/internal/config"
	"skill_swap/internal/domain"
	"skill_swap/internal/service"
	appErrors "skill_swap/pkg/errors"
)

func websocketTestRouter(auth service.AuthService, conversations service.ConversationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewWebSocketHandler(
		auth, conversations, &stubMessageService{}, nil,
		service.NewAssistantService(func(string, []string) string { return "" }, nopLogger{}),
		nil, config.DeliveryConfig{}, nopLogger{},
	)
	r := gin.New()
	r.GET("/ws/conversations/:id", h.HandleConversation)
	return r
}

func TestWebSocketRejectsBeforeUpgrade(t *testing.T) {
	user := &domain.User{ID: uuid.New()}

	// Статус отражает причину отказа: чужой разговор — это 403, не 404
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"outsider", appErrors.ErrForbidden, http.StatusForbidden},
		{"unknown conversation", appErrors.ErrConversationNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := websocketTestRouter(
				&stubAuthService{user: user},
				&stubConversationService{err: tc.err},
			)

			req := httptest.NewRequest(http.MethodGet,
				"/ws/conversations/"+uuid.NewString()+"?token=x", nil)
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			assert.Equal(t, tc.want, resp.Code)
		})
	}
}

func TestWebSocketRejectsInvalidToken(t *testing.T) {
	r := websocketTestRouter(
		&stubAuthService{err: appErrors.ErrInvalidToken},
		&stubConversationService{},
	)

	req := httptest.NewRequest(http.MethodGet,
		"/ws/conversations/"+uuid.NewString()+"?token=bad", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
