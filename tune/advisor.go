package tune

import (
	"context"
	"fmt"
	"strings"

	"github.com/promptune/promptune/llm"
	"github.com/promptune/promptune/utils"
)

const advisorSystemPrompt = `You refine instructions for a text-summarization step. Given the history of past attempts, the current instruction and the score its output received, propose a revised instruction expected to score higher on the next attempt. Keep what worked, change what the score suggests did not. Respond as a JSON object of the form {"suggestedInstruction": "<revised instruction>"}.`

// Preview and excerpt bounds for the rendered suggestion request.
const (
	instructionPreviewLimit = 120
	suggestionPreviewLimit  = 60
	excerptLimit            = 1500
	truncationMarker        = "..."
)

const emptyHistoryLine = "No previous runs yet."

// Advisor proposes the next instruction from score feedback and the
// session's run history. The Session passed to SuggestNext is the only
// state; the Advisor itself holds none.
type Advisor struct {
	invoker llm.Invoker
	logger  utils.Logger
}

func NewAdvisor(invoker llm.Invoker, logger utils.Logger) *Advisor {
	return &Advisor{
		invoker: invoker,
		logger:  logger,
	}
}

// SuggestNext records the run and proposes a revised instruction.
//
// The RunRecord is appended to sess before the invocation is issued,
// so the history counts attempted runs: on failure the record stays
// with an empty NextInstruction and the failure is returned as
// received. On success the suggestion is trimmed; a suggestion that
// trims to empty is not recorded and the input instruction is returned
// unchanged, so the caller never receives an empty instruction.
func (a *Advisor) SuggestNext(ctx context.Context, sess *Session, instruction string, used Settings, score float64, ec EvalContext) (string, error) {
	index := sess.append(RunRecord{
		Instruction: instruction,
		Settings:    used,
		Score:       score,
	})

	var out advisorOutput
	settings := AdvisorDefaults()
	req := llm.Request{
		Role:         llm.RoleAdvisor,
		SystemPrompt: advisorSystemPrompt,
		Input:        buildSuggestionInput(sess.records[:index], instruction, score, ec),
		Temperature:  settings.Temperature,
		MaxTokens:    settings.MaxTokens,
		Timeout:      settings.Timeout,
	}

	if err := a.invoker.Invoke(ctx, req, &out); err != nil {
		return "", err
	}

	next := strings.TrimSpace(out.SuggestedInstruction)
	if next == "" {
		a.logger.Debug("Empty suggestion, keeping current instruction")
		return instruction, nil
	}

	sess.fill(index, next)
	a.logger.Debug("Next instruction suggested", "runs", sess.Len())
	return next, nil
}

func buildSuggestionInput(history []RunRecord, instruction string, score float64, ec EvalContext) string {
	var sb strings.Builder

	sb.WriteString("Previous runs:\n")
	sb.WriteString(renderHistory(history))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Current instruction:\n%s\n\n", instruction)
	fmt.Fprintf(&sb, "Score received: %g\n", score)

	if ec.Source != "" {
		fmt.Fprintf(&sb, "\nSource text excerpt:\n%s\n", excerpt(ec.Source))
	}
	if ec.TargetSpec != "" {
		fmt.Fprintf(&sb, "\nTarget specification excerpt:\n%s\n", excerpt(ec.TargetSpec))
	}

	return sb.String()
}

// renderHistory emits one line per past run: a bounded preview of its
// instruction, its score, and the suggestion that followed it if any.
func renderHistory(history []RunRecord) string {
	if len(history) == 0 {
		return emptyHistoryLine
	}

	lines := make([]string, 0, len(history))
	for i, record := range history {
		line := fmt.Sprintf("%d. instruction: %q | score: %g",
			i+1, preview(record.Instruction, instructionPreviewLimit), record.Score)
		if record.NextInstruction != "" {
			line += fmt.Sprintf(" | suggested next: %q", preview(record.NextInstruction, suggestionPreviewLimit))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// preview bounds s to limit characters, marking the cut.
func preview(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + truncationMarker
}

// excerpt bounds long context text to its first excerptLimit
// characters, marking the cut. Shorter text passes through untouched.
func excerpt(s string) string {
	return preview(s, excerptLimit)
}
