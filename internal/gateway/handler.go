// Package gateway exposes the HTTP and WebSocket API for debate sessions.
package gateway

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/arbiterlabs/debate-orchestrator/internal/agent"
	"github.com/arbiterlabs/debate-orchestrator/internal/auth"
	"github.com/arbiterlabs/debate-orchestrator/internal/debate"
	"github.com/arbiterlabs/debate-orchestrator/internal/models"
	"github.com/arbiterlabs/debate-orchestrator/internal/store"
)

// Handler handles HTTP requests for the gateway layer
type Handler struct {
	store        *store.Store
	orchestrator *debate.Orchestrator
	runtime      *agent.RuntimeClient
	jwtManager   *auth.JWTManager
	pool         *pgxpool.Pool
}

// NewHandler creates a new gateway handler
func NewHandler(sessionStore *store.Store, orchestrator *debate.Orchestrator, runtime *agent.RuntimeClient, jwtManager *auth.JWTManager, pool *pgxpool.Pool) *Handler {
	return &Handler{
		store:        sessionStore,
		orchestrator: orchestrator,
		runtime:      runtime,
		jwtManager:   jwtManager,
		pool:         pool,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Code: models.ErrCodeInvalidRequest})
		return
	}

	var userID string
	var hashedPassword string
	err := h.pool.QueryRow(c.Request.Context(),
		`SELECT id, hashed_password FROM users WHERE email = $1`,
		req.Email,
	).Scan(&userID, &hashedPassword)

	if err != nil {
		log.Printf(`{"level":"warn","message":"User not found","email":"%s"}`, req.Email)
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid email or password", Code: models.ErrCodeUnauthorized})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(req.Password)); err != nil {
		log.Printf(`{"level":"warn","message":"Invalid password","email":"%s"}`, req.Email)
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid email or password", Code: models.ErrCodeUnauthorized})
		return
	}

	token, err := h.jwtManager.GenerateToken(
		c.Request.Context(),
		userID,
		req.Email,
		[]string{"user"},
		24*time.Hour,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate token", Code: models.ErrCodeInternalError})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:  token,
		UserID: userID,
	})
}

// Me godoc
// @Summary Current user
// @Description Return the authenticated user's profile
// @Tags auth
// @Produce json
// @Success 200 {object} models.UserInfo
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var user models.User
	err := h.pool.QueryRow(c.Request.Context(),
		`SELECT id, name, email, created_at FROM users WHERE id = $1`,
		userID.String(),
	).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "User not found", Code: models.ErrCodeUnauthorized})
		return
	}

	c.JSON(http.StatusOK, user.ToUserInfo())
}

// CreateDebateRequest represents a debate creation request
type CreateDebateRequest struct {
	Topic           string                   `json:"topic" binding:"required"`
	Mode            string                   `json:"mode" binding:"required"`
	TotalRounds     int                      `json:"total_rounds" binding:"required,min=1"`
	FocusQuestion   string                   `json:"focus_question"`
	Agents          []models.AgentConfig     `json:"agents" binding:"required,min=2,dive"`
	AssignedStances map[string]models.Stance `json:"assigned_stances"`
	ExitCriteria    models.ExitCriteria      `json:"exit_criteria"`
}

// CreateDebateResponse represents a debate creation response
type CreateDebateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateDebate godoc
// @Summary Create debate session
// @Description Register a new debate session in pending state
// @Tags debates
// @Accept json
// @Produce json
// @Param request body CreateDebateRequest true "Debate details"
// @Success 201 {object} CreateDebateResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /debates [post]
func (h *Handler) CreateDebate(c *gin.Context) {
	var req CreateDebateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Code: models.ErrCodeInvalidRequest})
		return
	}

	for _, a := range req.Agents {
		if a.ID == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Agent id is required", Code: models.ErrCodeValidationFailed})
			return
		}
	}

	if req.ExitCriteria.Enabled && req.ExitCriteria.ConvergenceRounds < 1 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "convergence_rounds must be >= 1", Code: models.ErrCodeValidationFailed})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	session := &models.DebateSession{
		Topic:           req.Topic,
		Mode:            req.Mode,
		TotalRounds:     req.TotalRounds,
		FocusQuestion:   req.FocusQuestion,
		Agents:          req.Agents,
		AssignedStances: req.AssignedStances,
		ExitCriteria:    req.ExitCriteria,
	}

	sessionID, err := h.store.CreateSession(c.Request.Context(), session, userID)
	if err != nil {
		log.Printf(`{"level":"error","message":"Failed to create debate","error":"%v","user_id":"%s"}`, err, userID)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to create debate", Code: models.ErrCodeInternalError})
		return
	}

	c.JSON(http.StatusCreated, CreateDebateResponse{
		ID:     sessionID.String(),
		Status: string(models.SessionStatusPending),
	})
}

// StartDebate godoc
// @Summary Start debate
// @Description Kick off round execution for a pending debate session
// @Tags debates
// @Produce json
// @Param id path string true "Session ID"
// @Success 202 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /debates/{id}/start [post]
func (h *Handler) StartDebate(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}

	if session.Status != models.SessionStatusPending {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error: "Debate is not in pending state",
			Code:  models.ErrCodeSessionNotIdle,
			Details: map[string]string{
				"status": string(session.Status),
			},
		})
		return
	}

	if !h.runtime.IsHealthy(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "Agent runtime unavailable", Code: models.ErrCodeAgentUnavailable})
		return
	}

	if err := h.store.MarkActive(c.Request.Context(), session.ID); err != nil {
		log.Printf(`{"level":"error","message":"Failed to activate debate","session_id":"%s","error":"%v"}`, session.ID, err)
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "Failed to activate debate", Code: models.ErrCodeSessionNotIdle})
		return
	}
	session.Status = models.SessionStatusActive

	agents := make([]debate.Agent, 0, len(session.Agents))
	for _, cfg := range session.Agents {
		agents = append(agents, agent.NewParticipant(h.runtime, cfg.ID, cfg.Name))
	}

	// Rounds outlive the HTTP request; progress streams over the observer.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		if _, err := h.orchestrator.RunDebate(ctx, session, agents, nil, session.TotalRounds); err != nil {
			log.Printf(`{"level":"error","message":"Debate run failed","session_id":"%s","error":"%v"}`, session.ID, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"id":     session.ID,
		"status": string(models.SessionStatusActive),
	})
}

// GetDebate godoc
// @Summary Get debate session
// @Description Retrieve a debate session with its current status
// @Tags debates
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.DebateSession
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /debates/{id} [get]
func (h *Handler) GetDebate(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetRounds godoc
// @Summary List debate rounds
// @Description Retrieve the persisted rounds of a debate in round order
// @Tags debates
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {array} models.RoundResult
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /debates/{id}/rounds [get]
func (h *Handler) GetRounds(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}

	sessionID, err := uuid.Parse(session.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Invalid session ID", Code: models.ErrCodeInternalError})
		return
	}

	rounds, err := h.store.ListRounds(c.Request.Context(), sessionID)
	if err != nil {
		log.Printf(`{"level":"error","message":"Failed to list rounds","session_id":"%s","error":"%v"}`, session.ID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list rounds", Code: models.ErrCodeInternalError})
		return
	}
	if rounds == nil {
		rounds = []models.RoundResult{}
	}

	c.JSON(http.StatusOK, rounds)
}

// currentUserID extracts the authenticated user ID set by the auth middleware.
func (h *Handler) currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "User not authenticated", Code: models.ErrCodeUnauthorized})
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDVal.(string))
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid user ID", Code: models.ErrCodeUnauthorized})
		return uuid.Nil, false
	}

	return userID, true
}

// ownedSession loads the session from the path parameter and enforces that
// the authenticated user created it. Missing and foreign sessions are both
// reported as not found.
func (h *Handler) ownedSession(c *gin.Context) (*models.DebateSession, bool) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid session ID", Code: models.ErrCodeInvalidRequest})
		return nil, false
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return nil, false
	}

	session, err := h.store.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Debate not found", Code: models.ErrCodeSessionNotFound})
		return nil, false
	}

	if session.CreatedByUserID != userID.String() {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Debate not found", Code: models.ErrCodeSessionNotFound})
		return nil, false
	}

	return session, true
}
