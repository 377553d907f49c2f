// Package sandbox executes LLM-generated Starlark analysis code against a
// loaded dataset. Each run gets a fresh thread and a fresh namespace holding
// only the dataframe binding and the approved builtins: no filesystem, no
// network, no host state, and nothing carried over from previous runs.
package sandbox

import (
	"context"
	"fmt"

	"viz-agent/chart"
	"viz-agent/config"
	"viz-agent/dataset"
	vizerrors "viz-agent/errors"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"go.uber.org/zap"
)

// OutputVariable is the name generated code must bind its figure to.
const OutputVariable = "figure"

// InsightVariable optionally carries a textual observation.
const InsightVariable = "insight"

// Result is a successful execution: a figure plus an optional insight.
type Result struct {
	Figure  *chart.Figure
	Insight string
}

// ExecError is a failed execution. It carries the code that failed and a
// normalized message (error kind + message, backtrace discarded so repair
// prompts stay small).
type ExecError struct {
	Code    string
	Message string
}

func (e *ExecError) Error() string { return e.Message }

func (e *ExecError) Unwrap() error { return vizerrors.ErrExecution }

// Executor runs analysis scripts with a bounded step budget.
type Executor struct {
	maxSteps     uint64
	maxCodeBytes int
	logger       *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Executor {
	return &Executor{
		maxSteps:     cfg.MaxExecutionSteps,
		maxCodeBytes: cfg.MaxCodeBytes,
		logger:       logger,
	}
}

// Starlark dialect for generated code: reassignment, while loops, and
// top-level control flow make the language close enough to the scripting
// idiom the model already knows.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Run executes code against the dataset and enforces the output contract.
func (e *Executor) Run(ctx context.Context, code string, ds *dataset.Dataset) (*Result, error) {
	if len(code) > e.maxCodeBytes {
		return nil, &ExecError{
			Code:    code,
			Message: fmt.Sprintf("generated code too large: %d bytes (limit %d)", len(code), e.maxCodeBytes),
		}
	}

	thread := &starlark.Thread{
		Name: "analysis",
		Print: func(_ *starlark.Thread, msg string) {
			e.logger.Debug("script print", zap.String("msg", msg))
		},
	}
	thread.SetMaxExecutionSteps(e.maxSteps)

	// Propagate context cancellation into the interpreter.
	execDone := make(chan struct{})
	defer close(execDone)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel("context cancelled")
		case <-execDone:
		}
	}()

	globals, err := starlark.ExecFileOptions(fileOptions, thread, "analysis.star", code, builtins(ds))
	if err != nil {
		return nil, &ExecError{Code: code, Message: normalizeError(err)}
	}

	figVal, ok := globals[OutputVariable]
	if !ok {
		return nil, &ExecError{
			Code:    code,
			Message: fmt.Sprintf("missing expected output: the script must assign a chart to a variable named %q", OutputVariable),
		}
	}

	fig, ok := figVal.(*figureValue)
	if !ok {
		return nil, &ExecError{
			Code:    code,
			Message: fmt.Sprintf("%q must be a chart object built with one of the chart builtins, got %s", OutputVariable, figVal.Type()),
		}
	}

	result := &Result{Figure: fig.fig}
	if insightVal, ok := globals[InsightVariable]; ok {
		if s, ok := starlark.AsString(insightVal); ok {
			result.Insight = s
		} else {
			e.logger.Debug("ignoring non-string insight", zap.String("type", insightVal.Type()))
		}
	}

	e.logger.Info("Sandbox execution succeeded",
		zap.String("dataset", ds.Name()),
		zap.String("figure_kind", result.Figure.Kind))

	return result, nil
}

// normalizeError reduces interpreter errors to "type: message" without the
// Starlark backtrace, which would bloat repair prompts.
func normalizeError(err error) string {
	if evalErr, ok := err.(*starlark.EvalError); ok {
		return "execution error: " + evalErr.Msg
	}
	return "syntax error: " + err.Error()
}
