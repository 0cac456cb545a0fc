package tune

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptune/promptune/llm"
	"github.com/promptune/promptune/utils"
)

func TestEvaluatorEvaluate(t *testing.T) {
	ctx := context.Background()
	ec := EvalContext{
		Instruction: "Pick 3 experiences matching the job.",
		Source:      "Ten years of backend work, two of them on CI tooling.",
		TargetSpec:  "Three bullet points, most relevant first.",
	}

	t.Run("returns the score", func(t *testing.T) {
		mock := llm.NewMockInvoker()
		mock.QueueResponse(`{"score": 7.5}`)
		evaluator := NewEvaluator(mock, utils.NewNopLogger())

		score, err := evaluator.Evaluate(ctx, "some candidate", ec)

		require.NoError(t, err)
		assert.Equal(t, 7.5, score)
	})

	t.Run("uses strict fixed settings", func(t *testing.T) {
		mock := llm.NewMockInvoker()
		mock.QueueResponse(`{"score": 5}`)
		evaluator := NewEvaluator(mock, utils.NewNopLogger())

		_, err := evaluator.Evaluate(ctx, "candidate", ec)
		require.NoError(t, err)

		req := mock.LastRequest()
		assert.Equal(t, llm.RoleEvaluator, req.Role)
		assert.Equal(t, 0.1, req.Temperature)
		assert.Equal(t, 64, req.MaxTokens)
	})

	t.Run("request embeds the full evaluation context", func(t *testing.T) {
		mock := llm.NewMockInvoker()
		mock.QueueResponse(`{"score": 5}`)
		evaluator := NewEvaluator(mock, utils.NewNopLogger())

		_, err := evaluator.Evaluate(ctx, "the candidate text", ec)
		require.NoError(t, err)

		input := mock.LastRequest().Input
		assert.Contains(t, input, ec.TargetSpec)
		assert.Contains(t, input, ec.Instruction)
		assert.Contains(t, input, ec.Source)
		assert.Contains(t, input, "the candidate text")
		assert.NotContains(t, input, "EXPECTED RESULT", "no expected block without a reference")
	})

	t.Run("non-empty reference gets a delimited expected block", func(t *testing.T) {
		mock := llm.NewMockInvoker()
		mock.QueueResponse(`{"score": 9}`)
		evaluator := NewEvaluator(mock, utils.NewNopLogger())

		withRef := ec
		withRef.Reference = "CI pipeline lead, backend services, tooling."

		_, err := evaluator.Evaluate(ctx, "candidate", withRef)
		require.NoError(t, err)

		req := mock.LastRequest()
		assert.Contains(t, req.Input, "=== EXPECTED RESULT ===")
		assert.Contains(t, req.Input, withRef.Reference)
		assert.Contains(t, req.Input, "=== END EXPECTED RESULT ===")
	})

	t.Run("rubric reserves scores above 8 for near-exact alignment", func(t *testing.T) {
		mock := llm.NewMockInvoker()
		mock.QueueResponse(`{"score": 5}`)
		evaluator := NewEvaluator(mock, utils.NewNopLogger())

		_, err := evaluator.Evaluate(ctx, "candidate", ec)
		require.NoError(t, err)

		prompt := mock.LastRequest().SystemPrompt
		assert.Contains(t, prompt, "Reserve scores above 8")
		assert.Contains(t, prompt, "must not exceed 8")
	})

	t.Run("out-of-range score is rejected, not clamped", func(t *testing.T) {
		mock := llm.NewMockInvoker()
		mock.QueueResponse(`{"score": 12}`)
		evaluator := NewEvaluator(mock, utils.NewNopLogger())

		score, err := evaluator.Evaluate(ctx, "candidate", ec)

		assert.Zero(t, score)
		var invErr *llm.InvokeError
		require.True(t, errors.As(err, &invErr))
		assert.Equal(t, llm.ErrorTypeValidation, invErr.Type)
	})

	t.Run("boundary scores pass", func(t *testing.T) {
		mock := llm.NewMockInvoker()
		mock.QueueResponses([]string{`{"score": 0}`, `{"score": 10}`}, false)
		evaluator := NewEvaluator(mock, utils.NewNopLogger())

		low, err := evaluator.Evaluate(ctx, "candidate", ec)
		require.NoError(t, err)
		assert.Equal(t, 0.0, low)

		high, err := evaluator.Evaluate(ctx, "candidate", ec)
		require.NoError(t, err)
		assert.Equal(t, 10.0, high)
	})
}
