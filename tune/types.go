package tune

// EvalContext is the read-only context a candidate is scored against.
type EvalContext struct {
	// Instruction is the instruction that produced the candidate.
	Instruction string

	// Source is the document text the candidate was generated from.
	Source string

	// TargetSpec describes what the output should look like.
	TargetSpec string

	// Reference is an optional gold example. When non-empty it becomes
	// the dominant scoring criterion.
	Reference string
}

// RunRecord is one logged tuning attempt. NextInstruction starts empty
// and is filled at most once, after the suggestion call that created
// the record succeeds with a non-empty result.
type RunRecord struct {
	Instruction     string
	Settings        Settings
	Score           float64
	NextInstruction string
}

// Output shapes declared to the Invoker, one per role. Validation tags
// carry the shape constraints; jsonschema tags carry them into the
// response_format schema sent to the provider.

type producerOutput struct {
	Text string `json:"text"`
}

type evaluatorOutput struct {
	Score float64 `json:"score" validate:"min=0,max=10" jsonschema:"minimum=0,maximum=10"`
}

type advisorOutput struct {
	SuggestedInstruction string `json:"suggestedInstruction"`
}
