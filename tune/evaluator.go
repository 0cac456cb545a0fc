package tune

import (
	"context"
	"fmt"
	"strings"

	"github.com/promptune/promptune/llm"
	"github.com/promptune/promptune/utils"
)

const evaluatorSystemPrompt = `You score candidate output for a text-summarization step on a scale from 0 to 10 (integer or real).

Scoring rules:
- If an EXPECTED RESULT block is present, alignment with it is the dominant criterion. Reserve scores above 8 for candidates that align near-exactly with the expected result; a candidate that diverges substantially from it must not exceed 8.
- If no expected result is given, score how well the candidate fits the target specification and how faithful it stays to the source text.
- Judge only the candidate output. The instruction and source are context for your judgment, not things to score.

Respond as a JSON object of the form {"score": <number between 0 and 10>}.`

// Evaluator scores candidate output against its evaluation context.
// Stateless; settings are fixed to keep scoring variance low.
type Evaluator struct {
	invoker llm.Invoker
	logger  utils.Logger
}

func NewEvaluator(invoker llm.Invoker, logger utils.Logger) *Evaluator {
	return &Evaluator{
		invoker: invoker,
		logger:  logger,
	}
}

// Evaluate scores candidate against ec on the [0, 10] scale. A
// response outside that range fails shape validation at the Invoker
// and surfaces as the invocation's failure; scores are never clamped.
// Failures are returned as received, with no local retry.
func (e *Evaluator) Evaluate(ctx context.Context, candidate string, ec EvalContext) (float64, error) {
	settings := EvaluatorDefaults()

	var out evaluatorOutput
	req := llm.Request{
		Role:         llm.RoleEvaluator,
		SystemPrompt: evaluatorSystemPrompt,
		Input:        buildEvaluationInput(candidate, ec),
		Temperature:  settings.Temperature,
		MaxTokens:    settings.MaxTokens,
		Timeout:      settings.Timeout,
	}

	if err := e.invoker.Invoke(ctx, req, &out); err != nil {
		return 0, err
	}

	e.logger.Debug("Candidate scored", "score", out.Score)
	return out.Score, nil
}

func buildEvaluationInput(candidate string, ec EvalContext) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Target specification:\n%s\n\n", ec.TargetSpec)
	fmt.Fprintf(&sb, "Instruction that produced the candidate:\n%s\n\n", ec.Instruction)
	fmt.Fprintf(&sb, "Source text:\n%s\n\n", ec.Source)
	fmt.Fprintf(&sb, "Candidate output:\n%s\n", candidate)

	if ec.Reference != "" {
		fmt.Fprintf(&sb, "\n=== EXPECTED RESULT ===\n%s\n=== END EXPECTED RESULT ===\n", ec.Reference)
	}

	return sb.String()
}
