package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"skill_swap/internal/config"
	"skill_swap/internal/delivery"
	"skill_swap/internal/domain"
	"skill_swap/internal/service"
	appErrors "skill_swap/pkg/errors"
	"skill_swap/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // В продакшене нужно проверять origin
	},
}

type WebSocketHandler struct {
	authService         service.AuthService
	conversationService service.ConversationService
	messageService      service.MessageService
	presenceService     service.PresenceService
	assistantService    service.AssistantService
	bus                 delivery.EventBus
	cfg                 config.DeliveryConfig
	log                 logger.Logger
}

func NewWebSocketHandler(
	authService service.AuthService,
	conversationService service.ConversationService,
	messageService service.MessageService,
	presenceService service.PresenceService,
	assistantService service.AssistantService,
	bus delivery.EventBus,
	cfg config.DeliveryConfig,
	log logger.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		authService:         authService,
		conversationService: conversationService,
		messageService:      messageService,
		presenceService:     presenceService,
		assistantService:    assistantService,
		bus:                 bus,
		cfg:                 cfg,
		log:                 log,
	}
}

// Кадры, которые сессия пишет клиенту
type wsFrame struct {
	Type     string            `json:"type"`
	Messages []*domain.Message `json:"messages,omitempty"`
	Message  *domain.Message   `json:"message,omitempty"`
	Event    *delivery.Event   `json:"event,omitempty"`
	Online   *bool             `json:"online,omitempty"`
}

// HandleConversation держит сессию доставки одного разговора:
// push-подписка на шину плюс poll-таймер, оба потока сведены в один Feed.
// Закрытие сокета сносит и подписку, и таймер.
func (h *WebSocketHandler) HandleConversation(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation ID"})
		return
	}

	// Браузерный WebSocket не умеет заголовки, токен идет в query
	user, err := h.authService.ValidateToken(c.Request.Context(), c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	conversation, err := h.conversationService.GetForParticipant(c.Request.Context(), conversationID, user.ID)
	if err != nil {
		c.JSON(appErrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	// Разговор с ассистентом не подписывается: его собеседника
	// нет в реестре, push и poll для него не работают
	if h.assistantService.IsAssistantConversation(conversation.Peer(user.ID)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "assistant conversations are not subscribed"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	if err := h.presenceService.Track(ctx, user.ID); err != nil {
		h.log.Warn("Failed to track presence", "error", err, "user_id", user.ID)
	}
	defer func() {
		// Отдельный контекст: ctx сессии к этому моменту уже отменен
		untrackCtx, untrackCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer untrackCancel()
		if err := h.presenceService.Untrack(untrackCtx, user.ID); err != nil {
			h.log.Warn("Failed to untrack presence", "error", err, "user_id", user.ID)
		}
	}()

	events, unsubscribe, err := h.bus.Subscribe(ctx,
		delivery.ConversationTopic(conversationID),
		delivery.UserTopic(user.ID),
	)
	if err != nil {
		h.log.Error("Failed to subscribe to event bus", "error", err)
		return
	}
	defer unsubscribe()

	// Статус собеседника: полный sync, дальше инкрементальные сигналы
	peerID := conversation.Peer(user.ID)
	tracker := service.NewPresenceTracker()
	if online, err := h.presenceService.Online(ctx); err == nil {
		tracker.Sync(online)
	} else {
		h.log.Warn("Failed to sync presence", "error", err)
	}

	presenceEvents, unsubscribePresence, err := h.presenceService.SubscribeEvents(ctx)
	if err != nil {
		h.log.Error("Failed to subscribe to presence events", "error", err)
		return
	}
	defer unsubscribePresence()

	// Чтение только для детекции закрытия клиентом
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	feed := delivery.NewFeed()

	// Начальный снимок
	if fetched, err := h.messageService.ListRecent(ctx, conversationID, user.ID, h.cfg.MessagePageSize); err == nil {
		feed.Reconcile(fetched)
		if err := conn.WriteJSON(&wsFrame{Type: "snapshot", Messages: feed.Messages()}); err != nil {
			return
		}
	} else {
		h.log.Warn("Failed to load initial snapshot", "error", err, "conversation_id", conversationID)
	}

	peerOnline := tracker.IsOnline(peerID)
	if err := conn.WriteJSON(&wsFrame{Type: "presence", Online: &peerOnline}); err != nil {
		return
	}

	ticker := time.NewTicker(h.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if err := h.handleEvent(conn, feed, conversationID, event); err != nil {
				return
			}

		case event, ok := <-presenceEvents:
			if !ok {
				return
			}
			tracker.Apply(event)
			if event.UserID != peerID {
				continue
			}
			online := tracker.IsOnline(peerID)
			if err := conn.WriteJSON(&wsFrame{Type: "presence", Online: &online}); err != nil {
				return
			}

		case <-ticker.C:
			// Poll закрывает пропущенные push-события; ошибка чтения
			// не фатальна, следующий тик перечитает
			fetched, err := h.messageService.ListRecent(ctx, conversationID, user.ID, h.cfg.MessagePageSize)
			if err != nil {
				h.log.Warn("Reconcile fetch failed", "error", err, "conversation_id", conversationID)
				continue
			}
			if feed.Reconcile(fetched) {
				if err := conn.WriteJSON(&wsFrame{Type: "snapshot", Messages: feed.Messages()}); err != nil {
					return
				}
			}
		}
	}
}

func (h *WebSocketHandler) handleEvent(conn *websocket.Conn, feed *delivery.Feed, conversationID uuid.UUID, event *delivery.Event) error {
	switch event.Table {
	case delivery.TableMessages:
		message := &domain.Message{}
		if err := json.Unmarshal(event.Row, message); err != nil {
			h.log.Warn("Failed to unmarshal message event", "error", err)
			return nil
		}
		// Фильтрация по разговору на стороне клиента шины
		if message.ConversationID != conversationID {
			return nil
		}
		// Дедупликация по id: повторная доставка события — no-op
		if feed.Apply(message) {
			return conn.WriteJSON(&wsFrame{Type: "message", Message: message})
		}
		return nil

	default:
		// Статусы предложений и обновления разговоров идут как есть
		return conn.WriteJSON(&wsFrame{Type: "event", Event: event})
	}
}
