package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/arbiterlabs/debate-orchestrator/internal/auth"
	"github.com/arbiterlabs/debate-orchestrator/internal/models"
	"github.com/arbiterlabs/debate-orchestrator/internal/store"
)

// StreamEvent is one message pushed to WebSocket subscribers.
type StreamEvent struct {
	Type      string              `json:"type"`
	SessionID string              `json:"session_id"`
	Round     *models.RoundResult `json:"round,omitempty"`
	Status    string              `json:"status,omitempty"`
	Reason    string              `json:"reason,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// Stream event types
const (
	StreamEventRoundCompleted = "round_completed"
	StreamEventDebateFinished = "debate_finished"
)

// Hub fans round progress out to WebSocket subscribers per session. It
// implements debate.RoundObserver; the orchestrator calls it inline between
// rounds, so notification never blocks on a slow client beyond the write
// deadline.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*websocket.Conn]bool

	store      *store.Store
	jwtManager *auth.JWTManager
	tracer     trace.Tracer
	upgrader   websocket.Upgrader
}

// NewHub creates a new streaming hub
func NewHub(sessionStore *store.Store, jwtManager *auth.JWTManager) *Hub {
	return &Hub{
		subscribers: make(map[string]map[*websocket.Conn]bool),
		store:       sessionStore,
		jwtManager:  jwtManager,
		tracer:      otel.Tracer("debate-stream-hub"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: Implement proper CORS origin checking for production
				return true
			},
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// StreamDebate handles WebSocket /api/ws/debates/:id
// @Summary Stream debate progress
// @Description WebSocket endpoint streaming round results as they complete
// @Tags debates
// @Param id path string true "Session ID"
// @Param token query string true "JWT token"
// @Success 101 "Switching Protocols"
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /ws/debates/{id} [get]
func (h *Hub) StreamDebate(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "stream_hub.stream_debate")
	defer span.End()

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return
	}
	span.SetAttributes(attribute.String("session_id", sessionID.String()))

	userID, err := h.validateJWTAndGetUserID(c)
	if err != nil {
		span.RecordError(err)
		log.Printf("JWT validation failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	span.SetAttributes(attribute.String("user_id", userID))

	if !h.store.CanAccessSession(ctx, userID, sessionID) {
		span.SetAttributes(attribute.Bool("access_denied", true))
		log.Printf("Access denied for user %s to session %s", userID, sessionID)
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	h.subscribe(sessionID.String(), conn)
	log.Printf("WebSocket subscriber added for session: %s, user: %s", sessionID, userID)

	// Hold the connection open until the client goes away. Incoming
	// messages are ignored; the stream is one-way.
	go func() {
		defer func() {
			h.unsubscribe(sessionID.String(), conn)
			conn.Close()
			log.Printf("WebSocket subscriber removed for session: %s", sessionID)
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("Subscriber read error for session %s: %v", sessionID, err)
				}
				return
			}
		}
	}()
}

// RoundCompleted broadcasts a completed round to the session's subscribers.
func (h *Hub) RoundCompleted(sessionID string, result *models.RoundResult) {
	h.broadcast(sessionID, StreamEvent{
		Type:      StreamEventRoundCompleted,
		SessionID: sessionID,
		Round:     result,
		Timestamp: time.Now().UTC(),
	})
}

// DebateFinished broadcasts the terminal status and closes the session's
// subscriber connections.
func (h *Hub) DebateFinished(sessionID string, status models.SessionStatus, reason string) {
	h.broadcast(sessionID, StreamEvent{
		Type:      StreamEventDebateFinished,
		SessionID: sessionID,
		Status:    string(status),
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})

	h.mu.Lock()
	conns := h.subscribers[sessionID]
	delete(h.subscribers, sessionID)
	h.mu.Unlock()

	for conn := range conns {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "debate finished"),
			time.Now().Add(time.Second))
		conn.Close()
	}
}

// SubscriberCount returns the number of active subscribers for a session.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[sessionID])
}

func (h *Hub) subscribe(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[sessionID] == nil {
		h.subscribers[sessionID] = make(map[*websocket.Conn]bool)
	}
	h.subscribers[sessionID][conn] = true
}

func (h *Hub) unsubscribe(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subscribers[sessionID], conn)
	if len(h.subscribers[sessionID]) == 0 {
		delete(h.subscribers, sessionID)
	}
}

// broadcast sends one event to every subscriber of the session. Write
// failures drop the subscriber; the debate itself is never affected.
func (h *Hub) broadcast(sessionID string, event StreamEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf(`{"level":"error","message":"Failed to marshal stream event","session_id":"%s","error":"%v"}`, sessionID, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.subscribers[sessionID] {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("Subscriber write error for session %s, dropping: %v", sessionID, err)
			conn.Close()
			delete(h.subscribers[sessionID], conn)
		}
	}
}

// validateJWTAndGetUserID validates JWT token and returns user ID
func (h *Hub) validateJWTAndGetUserID(c *gin.Context) (string, error) {
	// Try to get JWT from query parameter first (WebSocket standard)
	token := c.Query("token")
	if token == "" {
		// Fallback to Authorization header
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			token = authHeader[7:]
		}
	}

	if token == "" {
		return "", fmt.Errorf("missing JWT token")
	}

	claims, err := h.jwtManager.ValidateToken(c.Request.Context(), token)
	if err != nil {
		return "", fmt.Errorf("invalid JWT: %w", err)
	}

	return claims.UserID, nil
}
