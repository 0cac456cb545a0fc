package tune

import (
	"context"
	"fmt"

	"github.com/promptune/promptune/utils"
)

// IterationCallback receives the RunRecord logged for each completed
// iteration.
type IterationCallback func(iteration int, record RunRecord)

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

func WithIterations(iterations int) RunnerOption {
	return func(r *Runner) {
		r.iterations = iterations
	}
}

// WithScoreThreshold makes Run return early once a candidate scores at
// or above threshold. Zero disables the check.
func WithScoreThreshold(threshold float64) RunnerOption {
	return func(r *Runner) {
		r.threshold = threshold
	}
}

func WithIterationCallback(callback IterationCallback) RunnerOption {
	return func(r *Runner) {
		r.callback = callback
	}
}

// Runner drives the generate, score, advise cycle for a fixed number
// of iterations. Termination stays a caller decision: the caller picks
// the iteration count and an optional score threshold; there is no
// hidden stopping logic.
type Runner struct {
	producer  *Producer
	evaluator *Evaluator
	advisor   *Advisor
	logger    utils.Logger

	iterations int
	threshold  float64
	callback   IterationCallback
}

func NewRunner(producer *Producer, evaluator *Evaluator, advisor *Advisor, logger utils.Logger, opts ...RunnerOption) *Runner {
	runner := &Runner{
		producer:   producer,
		evaluator:  evaluator,
		advisor:    advisor,
		logger:     logger,
		iterations: 5,
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

// Result summarizes a finished run.
type Result struct {
	// BestInstruction is the instruction whose candidate scored highest.
	BestInstruction string
	BestScore       float64

	// FinalInstruction is the instruction the loop ended on: the last
	// suggestion, or the best-scoring instruction on an early return.
	FinalInstruction string
}

// Run executes the loop starting from instruction, recording every
// iteration in sess. A failed role call aborts the run with a wrapped
// error; records appended so far stay in the session.
func (r *Runner) Run(ctx context.Context, sess *Session, instruction string, ec EvalContext) (Result, error) {
	current := instruction
	result := Result{}

	for i := 0; i < r.iterations; i++ {
		candidate, err := r.producer.Generate(ctx, current)
		if err != nil {
			return result, fmt.Errorf("generation failed at iteration %d: %w", i+1, err)
		}

		iterCtx := ec
		iterCtx.Instruction = current

		score, err := r.evaluator.Evaluate(ctx, candidate, iterCtx)
		if err != nil {
			return result, fmt.Errorf("evaluation failed at iteration %d: %w", i+1, err)
		}

		if score > result.BestScore || result.BestInstruction == "" {
			result.BestScore = score
			result.BestInstruction = current
		}

		next, err := r.advisor.SuggestNext(ctx, sess, current, ProducerDefaults(), score, iterCtx)
		if err != nil {
			return result, fmt.Errorf("suggestion failed at iteration %d: %w", i+1, err)
		}

		if r.callback != nil {
			records := sess.Records()
			r.callback(i+1, records[len(records)-1])
		}

		if r.threshold > 0 && score >= r.threshold {
			r.logger.Info("Score threshold reached", "iteration", i+1, "score", score)
			result.FinalInstruction = current
			return result, nil
		}

		r.logger.Debug("Iteration complete", "iteration", i+1, "score", score)
		current = next
	}

	result.FinalInstruction = current
	return result, nil
}
