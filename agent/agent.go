// Package agent wires the analysis pipeline: cache lookup, prompt building,
// code generation, sandboxed execution, and bounded repair.
package agent

import (
	"context"
	"strings"

	"viz-agent/chart"
	"viz-agent/config"
	"viz-agent/dataset"
	vizerrors "viz-agent/errors"
	"viz-agent/sandbox"

	"go.uber.org/zap"
)

// CompletionClient produces raw completion text for a system+user prompt
// pair. Satisfied by llmclient.Client.
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Agent runs the generate-execute-repair pipeline for one question at a time.
type Agent struct {
	cfg      *config.Config
	llm      CompletionClient
	executor *sandbox.Executor
	logger   *zap.Logger
}

// Analysis is what the pipeline hands the presentation layer: the generated
// (possibly repaired) code, the figure, and an optional insight.
type Analysis struct {
	Question string
	Code     string
	Figure   *chart.Figure
	Insight  string
	Attempts int // LLM generations consumed (1 = no repair needed)
	Cached   bool
}

func New(cfg *config.Config, llm CompletionClient, executor *sandbox.Executor, logger *zap.Logger) *Agent {
	logger.Info("Agent initialized",
		zap.Int("max_repair_attempts", cfg.MaxRepairAttempts),
		zap.Uint64("max_execution_steps", cfg.MaxExecutionSteps))

	return &Agent{
		cfg:      cfg,
		llm:      llm,
		executor: executor,
		logger:   logger,
	}
}

// Analyze runs one question against a dataset: cache lookup, then the repair
// loop, then cache store on success.
//
// Error contract: ErrInvalidInput for an empty question or missing dataset
// (no LLM call is made); service errors pass through unretried; on
// ErrAttemptsExhausted the returned Analysis still carries the last code
// attempt for transparency. Nothing panics past this boundary.
func (a *Agent) Analyze(ctx context.Context, ds *dataset.Dataset, cache *ResultCache, question string) (*Analysis, error) {
	if strings.TrimSpace(question) == "" {
		return nil, vizerrors.WrapError(vizerrors.ErrInvalidInput, "question is empty")
	}
	if ds == nil {
		return nil, vizerrors.WrapError(vizerrors.ErrInvalidInput, "no dataset loaded")
	}

	fingerprint := Fingerprint(ds.ID(), question)
	if cache != nil {
		if entry, ok := cache.Lookup(fingerprint); ok {
			a.logger.Info("Result cache hit",
				zap.String("fingerprint", fingerprint),
				zap.String("dataset", ds.Name()))
			return &Analysis{
				Question: question,
				Code:     entry.Code,
				Figure:   entry.Figure,
				Insight:  entry.Insight,
				Cached:   true,
			}, nil
		}
	}

	schema := dataset.Summarize(ds)
	loop := newRepairLoop(a.cfg, a.llm, a.executor, a.logger)

	outcome, err := loop.run(ctx, ds, schema, question)
	if err != nil {
		if vizerrors.IsExhausted(err) && outcome != nil {
			// Surface the last attempt so the user can see what failed.
			return &Analysis{
				Question: question,
				Code:     outcome.code,
				Attempts: outcome.generations,
			}, err
		}
		return nil, err
	}

	analysis := &Analysis{
		Question: question,
		Code:     outcome.code,
		Figure:   outcome.result.Figure,
		Insight:  outcome.result.Insight,
		Attempts: outcome.generations,
	}

	if cache != nil {
		cache.Store(fingerprint, &CachedAnalysis{
			Code:    analysis.Code,
			Figure:  analysis.Figure,
			Insight: analysis.Insight,
		})
	}

	return analysis, nil
}
