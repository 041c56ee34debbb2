// Package store persists debate sessions, rounds, and responses in
// PostgreSQL. Round results and status transitions are written together with
// their outbox events in a single transaction.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbiterlabs/debate-orchestrator/internal/models"
)

// Store handles debate session persistence. It implements
// debate.SessionStore for the orchestrator and serves reads for the gateway.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new session store
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// CreateSession creates a new debate session in pending state.
func (s *Store) CreateSession(ctx context.Context, session *models.DebateSession, userID uuid.UUID) (uuid.UUID, error) {
	stancesJSON, err := json.Marshal(session.AssignedStances)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal stances: %w", err)
	}
	criteriaJSON, err := json.Marshal(session.ExitCriteria)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal exit criteria: %w", err)
	}
	agentsJSON, err := json.Marshal(session.Agents)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal agents: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var sessionID uuid.UUID
	err = tx.QueryRow(ctx,
		`INSERT INTO debate_sessions (topic, mode, status, total_rounds, focus_question, agents, assigned_stances, exit_criteria, created_by_user_id)
		 VALUES ($1, $2, 'pending', $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		session.Topic, session.Mode, session.TotalRounds, session.FocusQuestion,
		agentsJSON, stancesJSON, criteriaJSON, userID,
	).Scan(&sessionID)

	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.insertOutboxEvent(ctx, tx, models.EventTypeDebateCreated, map[string]interface{}{
		"session_id": sessionID.String(),
		"topic":      session.Topic,
		"mode":       session.Mode,
	}); err != nil {
		return uuid.Nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return sessionID, nil
}

// GetSession retrieves a debate session by ID
func (s *Store) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.DebateSession, error) {
	var session models.DebateSession
	var agentsJSON, stancesJSON, criteriaJSON []byte

	err := s.pool.QueryRow(ctx, `
		SELECT id, topic, mode, status, total_rounds, completed_rounds, focus_question,
		       agents, assigned_stances, exit_criteria, created_by_user_id, created_at, updated_at
		FROM debate_sessions
		WHERE id = $1
	`, sessionID).Scan(
		&session.ID,
		&session.Topic,
		&session.Mode,
		&session.Status,
		&session.TotalRounds,
		&session.CompletedRounds,
		&session.FocusQuestion,
		&agentsJSON,
		&stancesJSON,
		&criteriaJSON,
		&session.CreatedByUserID,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("session not found")
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if len(agentsJSON) > 0 {
		if err := json.Unmarshal(agentsJSON, &session.Agents); err != nil {
			return nil, fmt.Errorf("failed to unmarshal agents: %w", err)
		}
	}
	if len(stancesJSON) > 0 {
		if err := json.Unmarshal(stancesJSON, &session.AssignedStances); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stances: %w", err)
		}
	}
	if len(criteriaJSON) > 0 {
		if err := json.Unmarshal(criteriaJSON, &session.ExitCriteria); err != nil {
			return nil, fmt.Errorf("failed to unmarshal exit criteria: %w", err)
		}
	}

	return &session, nil
}

// MarkActive transitions a session from pending to active.
func (s *Store) MarkActive(ctx context.Context, sessionID string) error {
	return s.transition(ctx, sessionID, models.SessionStatusActive, models.EventTypeDebateStarted, nil)
}

// MarkCompleted transitions a session to completed after its final round.
func (s *Store) MarkCompleted(ctx context.Context, sessionID string, completedRounds int) error {
	return s.transition(ctx, sessionID, models.SessionStatusCompleted, models.EventTypeDebateCompleted, map[string]interface{}{
		"completed_rounds": completedRounds,
	})
}

// MarkError transitions a session to the error state, preserving the rounds
// persisted so far.
func (s *Store) MarkError(ctx context.Context, sessionID string, cause string) error {
	return s.transition(ctx, sessionID, models.SessionStatusError, models.EventTypeDebateFailed, map[string]interface{}{
		"error": cause,
	})
}

// transition applies one status transition under a row lock, validates it
// against the session state machine, and records the outbox event.
func (s *Store) transition(ctx context.Context, sessionID string, next models.SessionStatus, eventType string, payload map[string]interface{}) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	currentStatus, err := s.lockSessionForUpdate(ctx, tx, sessionID)
	if err != nil {
		return err
	}

	if err := validateSessionTransition(currentStatus, next); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE debate_sessions
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, next, sessionID)

	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["session_id"] = sessionID
	if err := s.insertOutboxEvent(ctx, tx, eventType, payload); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SaveRound persists one round result with its responses and the
// round-completed outbox event in a single transaction.
func (s *Store) SaveRound(ctx context.Context, sessionID string, result *models.RoundResult) error {
	consensusJSON, err := json.Marshal(result.Consensus)
	if err != nil {
		return fmt.Errorf("failed to marshal consensus: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO debate_rounds (session_id, round_number, consensus)
		 VALUES ($1, $2, $3)`,
		sessionID, result.Round, consensusJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert round %d: %w", result.Round, err)
	}

	for _, resp := range result.Responses {
		if err := s.insertResponse(ctx, tx, sessionID, result.Round, resp); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE debate_sessions
		SET completed_rounds = $1, updated_at = NOW()
		WHERE id = $2
	`, result.Round, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session round counter: %w", err)
	}

	if err := s.insertOutboxEvent(ctx, tx, models.EventTypeRoundCompleted, map[string]interface{}{
		"session_id": sessionID,
		"round":      result.Round,
		"responses":  len(result.Responses),
	}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// insertResponse writes one structured response row.
func (s *Store) insertResponse(ctx context.Context, tx pgx.Tx, sessionID string, round int, resp models.StructuredResponse) error {
	citationsJSON, err := json.Marshal(resp.Citations)
	if err != nil {
		return fmt.Errorf("failed to marshal citations: %w", err)
	}
	toolCallsJSON, err := json.Marshal(resp.ToolCalls)
	if err != nil {
		return fmt.Errorf("failed to marshal tool calls: %w", err)
	}
	violationJSON, err := json.Marshal(resp.RoleViolation)
	if err != nil {
		return fmt.Errorf("failed to marshal role violation: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO debate_responses
		 (session_id, round_number, agent_id, agent_name, stance, position, reasoning, confidence, citations, tool_calls, role_violation, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		sessionID, round, resp.AgentID, resp.AgentName, resp.Stance, resp.Position,
		resp.Reasoning, resp.Confidence, citationsJSON, toolCallsJSON, violationJSON, resp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert response for agent %s: %w", resp.AgentID, err)
	}

	return nil
}

// ListRounds retrieves all persisted rounds for a session in round order.
func (s *Store) ListRounds(ctx context.Context, sessionID uuid.UUID) ([]models.RoundResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT round_number, consensus
		FROM debate_rounds
		WHERE session_id = $1
		ORDER BY round_number ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	var results []models.RoundResult
	for rows.Next() {
		var result models.RoundResult
		var consensusJSON []byte
		if err := rows.Scan(&result.Round, &consensusJSON); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		if len(consensusJSON) > 0 && string(consensusJSON) != "null" {
			var consensus models.ConsensusMeasurement
			if err := json.Unmarshal(consensusJSON, &consensus); err != nil {
				return nil, fmt.Errorf("failed to unmarshal consensus: %w", err)
			}
			result.Consensus = &consensus
		}
		results = append(results, result)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rounds: %w", err)
	}

	for i := range results {
		responses, err := s.listResponses(ctx, sessionID, results[i].Round)
		if err != nil {
			return nil, err
		}
		results[i].Responses = responses
	}

	return results, nil
}

// listResponses retrieves the responses of one round in insertion order.
func (s *Store) listResponses(ctx context.Context, sessionID uuid.UUID, round int) ([]models.StructuredResponse, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT agent_id, agent_name, stance, position, reasoning, confidence, citations, tool_calls, role_violation, created_at
		FROM debate_responses
		WHERE session_id = $1 AND round_number = $2
		ORDER BY id ASC
	`, sessionID, round)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer rows.Close()

	var responses []models.StructuredResponse
	for rows.Next() {
		var resp models.StructuredResponse
		var citationsJSON, toolCallsJSON, violationJSON []byte
		err := rows.Scan(
			&resp.AgentID,
			&resp.AgentName,
			&resp.Stance,
			&resp.Position,
			&resp.Reasoning,
			&resp.Confidence,
			&citationsJSON,
			&toolCallsJSON,
			&violationJSON,
			&resp.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}

		if len(citationsJSON) > 0 && string(citationsJSON) != "null" {
			if err := json.Unmarshal(citationsJSON, &resp.Citations); err != nil {
				return nil, fmt.Errorf("failed to unmarshal citations: %w", err)
			}
		}
		if len(toolCallsJSON) > 0 && string(toolCallsJSON) != "null" {
			if err := json.Unmarshal(toolCallsJSON, &resp.ToolCalls); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tool calls: %w", err)
			}
		}
		if len(violationJSON) > 0 && string(violationJSON) != "null" {
			if err := json.Unmarshal(violationJSON, &resp.RoleViolation); err != nil {
				return nil, fmt.Errorf("failed to unmarshal role violation: %w", err)
			}
		}

		responses = append(responses, resp)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating responses: %w", err)
	}

	return responses, nil
}

// CanAccessSession checks if the user owns the given session.
func (s *Store) CanAccessSession(ctx context.Context, userID string, sessionID uuid.UUID) bool {
	var id string
	err := s.pool.QueryRow(ctx, `
		SELECT id FROM debate_sessions
		WHERE id = $1 AND created_by_user_id = $2
	`, sessionID, userID).Scan(&id)

	return err == nil
}

// insertOutboxEvent records an event row for the transactional outbox relay.
func (s *Store) insertOutboxEvent(ctx context.Context, tx pgx.Tx, eventType string, payload map[string]interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO outbox_events (event_type, payload, status, created_at)
		 VALUES ($1, $2, $3, $4)`,
		eventType, payloadJSON, models.OutboxEventStatusPending, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	return nil
}

// lockSessionForUpdate locks a session row to prevent concurrent transitions.
func (s *Store) lockSessionForUpdate(ctx context.Context, tx pgx.Tx, sessionID string) (models.SessionStatus, error) {
	var status models.SessionStatus

	err := tx.QueryRow(ctx, `
		SELECT status FROM debate_sessions
		WHERE id = $1
		FOR UPDATE
	`, sessionID).Scan(&status)

	if err != nil {
		return "", fmt.Errorf("session not found or locked")
	}

	return status, nil
}

// validateSessionTransition validates if a status transition is allowed
func validateSessionTransition(current, next models.SessionStatus) error {
	validTransitions := map[models.SessionStatus][]models.SessionStatus{
		models.SessionStatusPending:   {models.SessionStatusActive, models.SessionStatusError},
		models.SessionStatusActive:    {models.SessionStatusCompleted, models.SessionStatusError},
		models.SessionStatusCompleted: {}, // Terminal state
		models.SessionStatusError:     {}, // Terminal state
	}

	allowedNext, exists := validTransitions[current]
	if !exists {
		return fmt.Errorf("invalid current status: %s", current)
	}

	for _, allowed := range allowedNext {
		if allowed == next {
			return nil
		}
	}

	return fmt.Errorf("invalid status transition from %s to %s", current, next)
}
