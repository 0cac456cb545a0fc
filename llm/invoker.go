// Package llm is the model-invocation boundary for the tuning roles.
// It defines one narrow contract, Invoker, and ships a production
// implementation for OpenAI-compatible chat-completions endpoints plus
// a mock for tests.
package llm

import (
	"context"
	"time"
)

// Role identifies which tuning role issued an invocation.
type Role string

const (
	RoleProducer  Role = "producer"
	RoleEvaluator Role = "evaluator"
	RoleAdvisor   Role = "advisor"
)

// Request describes a single model invocation.
type Request struct {
	// Role issuing the call, for logging and schema naming.
	Role Role

	// SystemPrompt is the fixed behavioral prompt for the role. It is
	// never derived from user input.
	SystemPrompt string

	// Input is the per-call natural-language request built by the role.
	Input string

	Temperature float64
	MaxTokens   int
	Timeout     time.Duration

	// Model optionally overrides the client's configured model.
	Model string
}

// Invoker executes one model invocation and decodes the structured
// result into out, a pointer to the role's output-shape struct. The
// implementation enforces the shape: a raw result that does not
// unmarshal into out, or that fails out's validation tags, fails the
// whole call. The call blocks until a result or failure arrives.
type Invoker interface {
	Invoke(ctx context.Context, req Request, out any) error
}
