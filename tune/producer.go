package tune

import (
	"context"

	"github.com/promptune/promptune/llm"
	"github.com/promptune/promptune/utils"
)

const producerSystemPrompt = `You turn an instruction into text. Follow the instruction literally and produce only the requested text, with no commentary, headings, or explanation around it. Respond as a JSON object of the form {"text": "<generated text>"}.`

// Producer turns an instruction into candidate output. It holds no
// state and is safe to reuse across calls.
type Producer struct {
	invoker llm.Invoker
	logger  utils.Logger
}

func NewProducer(invoker llm.Invoker, logger utils.Logger) *Producer {
	return &Producer{
		invoker: invoker,
		logger:  logger,
	}
}

// Generate produces candidate text for the instruction. Overrides are
// merged over ProducerDefaults field by field. A failed invocation is
// returned as received, with no local retry.
func (p *Producer) Generate(ctx context.Context, instruction string, opts ...SettingsOption) (string, error) {
	settings := MergeSettings(ProducerDefaults(), opts...)

	var out producerOutput
	req := llm.Request{
		Role:         llm.RoleProducer,
		SystemPrompt: producerSystemPrompt,
		Input:        instruction,
		Temperature:  settings.Temperature,
		MaxTokens:    settings.MaxTokens,
		Timeout:      settings.Timeout,
	}

	if err := p.invoker.Invoke(ctx, req, &out); err != nil {
		return "", err
	}

	p.logger.Debug("Candidate generated", "chars", len(out.Text))
	return out.Text, nil
}
