package helpers

import (
	"encoding/json"
)

// TestUser represents a test user fixture
type TestUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Default test fixtures
var DefaultTestUser = TestUser{
	Email:    "test@example.com",
	Password: "test-password-123",
}

// CreateTestLoginRequest creates a login request payload
func CreateTestLoginRequest(email, password string) map[string]interface{} {
	return map[string]interface{}{
		"email":    email,
		"password": password,
	}
}

// CreatePanelDebateRequest creates a debate creation payload in panel mode
func CreatePanelDebateRequest(topic string, totalRounds int) map[string]interface{} {
	return map[string]interface{}{
		"topic":        topic,
		"mode":         "panel",
		"total_rounds": totalRounds,
		"agents": []map[string]interface{}{
			{"id": "advocate", "name": "The Advocate"},
			{"id": "skeptic", "name": "The Skeptic"},
		},
	}
}

// CreateAdversarialDebateRequest creates a debate payload with assigned
// stances and convergence-based exit criteria
func CreateAdversarialDebateRequest(topic string, totalRounds int) map[string]interface{} {
	return map[string]interface{}{
		"topic":        topic,
		"mode":         "adversarial",
		"total_rounds": totalRounds,
		"agents": []map[string]interface{}{
			{"id": "pro", "name": "Proponent"},
			{"id": "con", "name": "Opponent"},
		},
		"assigned_stances": map[string]string{
			"pro": "affirmative",
			"con": "negative",
		},
		"exit_criteria": map[string]interface{}{
			"enabled":             true,
			"consensus_threshold": 0.9,
			"convergence_rounds":  2,
		},
	}
}

// ToJSON converts a fixture to JSON string
func ToJSON(fixture interface{}) string {
	data, _ := json.Marshal(fixture)
	return string(data)
}

// FromJSON parses JSON string to map
func FromJSON(jsonStr string) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal([]byte(jsonStr), &result)
	return result
}
