package agent

import (
	"context"
	"errors"

	"viz-agent/config"
	"viz-agent/dataset"
	vizerrors "viz-agent/errors"
	"viz-agent/prompts"
	"viz-agent/sandbox"
	"viz-agent/web/format"

	"go.uber.org/zap"
)

// loopState is a state of the generate-execute-repair machine.
type loopState int

const (
	stateGenerating loopState = iota
	stateExecuting
	stateRepairing
	stateSuccess
	stateExhausted
)

func (s loopState) String() string {
	switch s {
	case stateGenerating:
		return "generating"
	case stateExecuting:
		return "executing"
	case stateRepairing:
		return "repairing"
	case stateSuccess:
		return "success"
	case stateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// repairLoop drives one (dataset, question) pair through generation,
// execution, and bounded repair. Strictly sequential: a single attempt is in
// flight at any time, and the repair counter makes termination provable.
type repairLoop struct {
	cfg      *config.Config
	llm      CompletionClient
	executor *sandbox.Executor
	logger   *zap.Logger
}

// loopOutcome carries the terminal state of one run. On success, result is
// set; on exhaustion, code and lastFailure describe the final failed attempt.
type loopOutcome struct {
	code        string
	result      *sandbox.Result
	generations int
	lastFailure string
}

func newRepairLoop(cfg *config.Config, llm CompletionClient, executor *sandbox.Executor, logger *zap.Logger) *repairLoop {
	return &repairLoop{
		cfg:      cfg,
		llm:      llm,
		executor: executor,
		logger:   logger,
	}
}

// run executes the state machine:
//
//	Generating -> Executing -> {Success, Repairing} -> Executing -> ... -> {Success, Exhausted}
//
// Extraction failures (no usable code block) are folded into a corrective
// prompt exactly like execution failures. Service errors abort immediately:
// repair fixes code, not transport.
func (l *repairLoop) run(ctx context.Context, ds *dataset.Dataset, schema *dataset.SchemaSummary, question string) (*loopOutcome, error) {
	outcome := &loopOutcome{}
	state := stateGenerating

	for state != stateSuccess && state != stateExhausted {
		switch state {
		case stateGenerating, stateRepairing:
			var system, user string
			if state == stateGenerating {
				system = prompts.GenerationSystem()
				user = BuildGenerationPrompt(schema, question)
			} else {
				system = prompts.RepairSystem()
				user = BuildRepairPrompt(schema, question, outcome.code, outcome.lastFailure)
			}

			raw, err := l.llm.Complete(ctx, system, user)
			if err != nil {
				return nil, err
			}
			outcome.generations++

			code, err := format.ExtractCode(raw)
			if err != nil {
				l.logger.Warn("No code block in LLM response",
					zap.String("state", state.String()),
					zap.Int("generations", outcome.generations))
				outcome.lastFailure = "the response did not contain a fenced ```starlark code block"
				state = l.failureTransition(outcome)
				continue
			}

			outcome.code = code
			state = stateExecuting

		case stateExecuting:
			result, err := l.executor.Run(ctx, outcome.code, ds)
			if err == nil {
				outcome.result = result
				state = stateSuccess
				continue
			}

			var execErr *sandbox.ExecError
			if !errors.As(err, &execErr) {
				return nil, err
			}

			l.logger.Warn("Execution failed - attempting to self-correct",
				zap.String("error", execErr.Message),
				zap.Int("generations", outcome.generations))
			outcome.lastFailure = execErr.Message
			state = l.failureTransition(outcome)
		}
	}

	if state == stateExhausted {
		l.logger.Warn("Repair budget exhausted",
			zap.Int("generations", outcome.generations),
			zap.String("last_failure", outcome.lastFailure))
		return outcome, vizerrors.WrapErrorf(vizerrors.ErrAttemptsExhausted,
			"after %d attempts, last error: %s", outcome.generations, outcome.lastFailure)
	}

	l.logger.Info("Repair loop reached success",
		zap.Int("generations", outcome.generations))
	return outcome, nil
}

// failureTransition decides between another repair cycle and exhaustion.
// The budget counts repair generations: the original plus MaxRepairAttempts
// corrections.
func (l *repairLoop) failureTransition(outcome *loopOutcome) loopState {
	if outcome.generations > l.cfg.MaxRepairAttempts {
		return stateExhausted
	}
	return stateRepairing
}
