package debate

import (
	"fmt"

	"github.com/arbiterlabs/debate-orchestrator/internal/models"
)

// ExitReasonConverged is reported when sustained agreement justifies
// stopping before the planned round count.
const ExitReasonConverged = "consensus-converged"

// ExitDecision is the outcome of one between-rounds convergence check.
type ExitDecision struct {
	ShouldExit bool      `json:"should_exit"`
	Reason     string    `json:"reason,omitempty"`
	Scores     []float64 `json:"scores,omitempty"`
	Window     int       `json:"window,omitempty"`
}

// ConvergenceEvaluator decides, between rounds, whether a debate may stop
// early. It is pure with respect to its inputs: the same round history and
// thresholds always yield the same decision.
type ConvergenceEvaluator struct {
	criteria models.ExitCriteria
}

// NewConvergenceEvaluator validates the criteria and builds an evaluator.
func NewConvergenceEvaluator(criteria models.ExitCriteria) (*ConvergenceEvaluator, error) {
	if criteria.ConvergenceRounds < 1 {
		return nil, fmt.Errorf("convergence rounds must be >= 1, got %d", criteria.ConvergenceRounds)
	}
	return &ConvergenceEvaluator{criteria: criteria}, nil
}

// Evaluate inspects the accumulated round history and signals exit when the
// trailing consecutive rounds at or above the consensus threshold reach the
// convergence window. Rounds without a consensus measurement break the
// streak: an unmeasured round cannot attest agreement.
func (e *ConvergenceEvaluator) Evaluate(history []models.RoundResult) ExitDecision {
	scores := make([]float64, 0, len(history))
	streak := 0

	for _, round := range history {
		if round.Consensus == nil {
			scores = append(scores, 0)
			streak = 0
			continue
		}
		score := round.Consensus.AgreementLevel
		scores = append(scores, score)
		if score >= e.criteria.ConsensusThreshold {
			streak++
		} else {
			streak = 0
		}
	}

	if streak >= e.criteria.ConvergenceRounds {
		return ExitDecision{
			ShouldExit: true,
			Reason:     ExitReasonConverged,
			Scores:     scores,
			Window:     e.criteria.ConvergenceRounds,
		}
	}

	return ExitDecision{Scores: scores, Window: e.criteria.ConvergenceRounds}
}
