// Package promptune tunes a natural-language instruction for a
// text-summarization step by iterating a generate, score, advise loop
// against a hosted model. The core lives in the tune package; this
// package wires configuration, logging and the model client together.
package promptune

import (
	"context"

	"github.com/promptune/promptune/config"
	"github.com/promptune/promptune/llm"
	"github.com/promptune/promptune/tune"
	"github.com/promptune/promptune/utils"
)

// Aliases so callers of the facade rarely need the tune package.
type (
	Session     = tune.Session
	RunRecord   = tune.RunRecord
	EvalContext = tune.EvalContext
	Settings    = tune.Settings
	Result      = tune.Result
)

// Tuner bundles the three roles over one shared model client.
type Tuner struct {
	Producer  *tune.Producer
	Evaluator *tune.Evaluator
	Advisor   *tune.Advisor

	cfg    *config.Config
	logger utils.Logger
}

// New builds a Tuner from the environment plus the given overrides.
func New(opts ...config.ConfigOption) (*Tuner, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	config.ApplyOptions(cfg, opts...)

	logger := utils.NewLogger(cfg.LogLevel)

	client, err := llm.NewClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	return NewTunerWithInvoker(client, cfg, logger), nil
}

// NewTunerWithInvoker builds a Tuner over a caller-supplied Invoker.
// Used by tests and by callers with their own transport.
func NewTunerWithInvoker(invoker llm.Invoker, cfg *config.Config, logger utils.Logger) *Tuner {
	return &Tuner{
		Producer:  tune.NewProducer(invoker, logger),
		Evaluator: tune.NewEvaluator(invoker, logger),
		Advisor:   tune.NewAdvisor(invoker, logger),
		cfg:       cfg,
		logger:    logger,
	}
}

// NewSession starts a fresh, caller-owned run history.
func (t *Tuner) NewSession() *Session {
	return tune.NewSession()
}

// Tune runs the full loop for the configured number of iterations,
// recording every attempt in sess.
func (t *Tuner) Tune(ctx context.Context, sess *Session, instruction string, ec EvalContext, opts ...tune.RunnerOption) (Result, error) {
	runner := tune.NewRunner(t.Producer, t.Evaluator, t.Advisor, t.logger, opts...)
	return runner.Run(ctx, sess, instruction, ec)
}
