package tune

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptune/promptune/llm"
	"github.com/promptune/promptune/utils"
)

func TestAdvisorSuggestNext(t *testing.T) {
	ctx := context.Background()

	t.Run("first run with empty history", func(t *testing.T) {
		mock := llm.NewMockInvoker()
		mock.QueueResponse(`{"suggestedInstruction": "  Emphasize DevOps and CI/CD experience.  "}`)
		advisor := NewAdvisor(mock, utils.NewNopLogger())
		sess := NewSession()

		next, err := advisor.SuggestNext(ctx, sess, "Pick 3 experiences matching the job.", ProducerDefaults(), 4, EvalContext{})

		require.NoError(t, err)
		assert.Equal(t, "Emphasize DevOps and CI/CD experience.", next, "suggestion is trimmed")

		input := mock.LastRequest().Input
		assert.Contains(t, input, "No previous runs yet.")
		assert.Contains(t, input, "Pick 3 experiences matching the job.")
		assert.Contains(t, input, "Score received: 4")

		records := sess.Records()
		require.Len(t, records, 1)
		assert.Equal(t, "Pick 3 experiences matching the job.", records[0].Instruction)
		assert.Equal(t, ProducerDefaults(), records[0].Settings)
		assert.Equal(t, 4.0, records[0].Score)
		assert.Equal(t, "Emphasize DevOps and CI/CD experience.", records[0].NextInstruction)
	})

	t.Run("uses advisor settings for its own call", func(t *testing.T) {
		mock := llm.NewMockInvoker()
		mock.QueueResponse(`{"suggestedInstruction": "next"}`)
		advisor := NewAdvisor(mock, utils.NewNopLogger())

		_, err := advisor.SuggestNext(ctx, NewSession(), "instr", ProducerDefaults(), 5, EvalContext{})
		require.NoError(t, err)

		req := mock.LastRequest()
		assert.Equal(t, llm.RoleAdvisor, req.Role)
		assert.Equal(t, 0.2, req.Temperature)
		assert.Equal(t, 512, req.MaxTokens)
	})

	t.Run("empty suggestion falls back to the input instruction", func(t *testing.T) {
		mock := llm.NewMockInvoker()
		mock.QueueResponse(`{"suggestedInstruction": "   "}`)
		advisor := NewAdvisor(mock, utils.NewNopLogger())
		sess := NewSession()

		next, err := advisor.SuggestNext(ctx, sess, "Keep the instruction.", ProducerDefaults(), 6, EvalContext{})

		require.NoError(t, err)
		assert.Equal(t, "Keep the instruction.", next)

		records := sess.Records()
		require.Len(t, records, 1)
		assert.Empty(t, records[0].NextInstruction, "empty suggestion is never recorded")
	})

	t.Run("failure keeps the appended record", func(t *testing.T) {
		sentinel := llm.NewInvokeError(llm.ErrorTypeAPI, "provider unavailable", nil)
		mock := llm.NewMockInvoker()
		mock.SetError(sentinel)
		advisor := NewAdvisor(mock, utils.NewNopLogger())
		sess := NewSession()

		next, err := advisor.SuggestNext(ctx, sess, "instr", ProducerDefaults(), 2, EvalContext{})

		assert.Empty(t, next)
		assert.Same(t, sentinel, err)

		records := sess.Records()
		require.Len(t, records, 1, "history grows even for failed calls")
		assert.Equal(t, "instr", records[0].Instruction)
		assert.Empty(t, records[0].NextInstruction)
	})

	t.Run("two sequential calls render the first run in history", func(t *testing.T) {
		mock := llm.NewMockInvoker()
		mock.QueueResponses([]string{
			`{"suggestedInstruction": "Focus on backend work."}`,
			`{"suggestedInstruction": "Mention the CI pipeline."}`,
		}, false)
		advisor := NewAdvisor(mock, utils.NewNopLogger())
		sess := NewSession()

		first, err := advisor.SuggestNext(ctx, sess, "Pick 3 experiences.", ProducerDefaults(), 4, EvalContext{})
		require.NoError(t, err)

		_, err = advisor.SuggestNext(ctx, sess, first, ProducerDefaults(), 6, EvalContext{})
		require.NoError(t, err)

		records := sess.Records()
		require.Len(t, records, 2)
		assert.Equal(t, "Pick 3 experiences.", records[0].Instruction)
		assert.Equal(t, "Focus on backend work.", records[0].NextInstruction)
		assert.Equal(t, "Focus on backend work.", records[1].Instruction)
		assert.Equal(t, "Mention the CI pipeline.", records[1].NextInstruction)

		input := mock.LastRequest().Input
		assert.NotContains(t, input, "No previous runs yet.")
		assert.Contains(t, input, `1. instruction: "Pick 3 experiences."`)
		assert.Contains(t, input, "score: 4")
		assert.Contains(t, input, `suggested next: "Focus on backend work."`)
	})

	t.Run("context excerpts are bounded", func(t *testing.T) {
		mock := llm.NewMockInvoker()
		mock.QueueResponse(`{"suggestedInstruction": "next"}`)
		advisor := NewAdvisor(mock, utils.NewNopLogger())

		longSource := strings.Repeat("s", 2000)
		_, err := advisor.SuggestNext(ctx, NewSession(), "instr", ProducerDefaults(), 5, EvalContext{
			Source:     longSource,
			TargetSpec: "short spec",
		})
		require.NoError(t, err)

		input := mock.LastRequest().Input
		assert.Contains(t, input, strings.Repeat("s", 1500)+"...")
		assert.NotContains(t, input, strings.Repeat("s", 1501))
		assert.Contains(t, input, "short spec")
	})
}

func TestPreviewAndExcerpt(t *testing.T) {
	t.Run("short text passes through untouched", func(t *testing.T) {
		assert.Equal(t, "short", preview("short", 120))
		assert.Equal(t, strings.Repeat("x", 1500), excerpt(strings.Repeat("x", 1500)))
	})

	t.Run("long text is cut at the limit with a marker", func(t *testing.T) {
		long := strings.Repeat("a", 130)
		got := preview(long, 120)
		assert.Equal(t, strings.Repeat("a", 120)+"...", got)
	})

	t.Run("excerpt cuts at 1500 characters", func(t *testing.T) {
		long := strings.Repeat("b", 1501)
		assert.Equal(t, strings.Repeat("b", 1500)+"...", excerpt(long))
	})

	t.Run("limits are measured in characters, not bytes", func(t *testing.T) {
		long := strings.Repeat("é", 130)
		got := preview(long, 120)
		assert.Equal(t, strings.Repeat("é", 120)+"...", got)
	})
}

func TestRenderHistory(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		assert.Equal(t, "No previous runs yet.", renderHistory(nil))
	})

	t.Run("instruction previews cut at 120, suggestions at 60", func(t *testing.T) {
		history := []RunRecord{{
			Instruction:     strings.Repeat("i", 150),
			Score:           3.5,
			NextInstruction: strings.Repeat("n", 80),
		}}

		rendered := renderHistory(history)
		assert.Contains(t, rendered, strings.Repeat("i", 120)+"...")
		assert.NotContains(t, rendered, strings.Repeat("i", 121))
		assert.Contains(t, rendered, strings.Repeat("n", 60)+"...")
		assert.NotContains(t, rendered, strings.Repeat("n", 61))
		assert.Contains(t, rendered, "score: 3.5")
	})

	t.Run("line omits the suggestion when none was recorded", func(t *testing.T) {
		rendered := renderHistory([]RunRecord{{Instruction: "instr", Score: 2}})
		assert.NotContains(t, rendered, "suggested next")
	})
}
