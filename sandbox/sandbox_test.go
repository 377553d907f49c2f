package sandbox

import (
	"context"
	"errors"
	"strings"
	"testing"

	"viz-agent/config"
	"viz-agent/dataset"
	vizerrors "viz-agent/errors"

	"go.uber.org/zap"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	cfg := &config.Config{
		MaxExecutionSteps: 1_000_000,
		MaxCodeBytes:      64 * 1024,
	}
	return New(cfg, zap.NewNop())
}

func sampleDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.LoadSample()
	if err != nil {
		t.Fatalf("load sample dataset: %v", err)
	}
	return ds
}

func TestRunProducesFigureAndInsight(t *testing.T) {
	executor := newTestExecutor(t)
	ds := sampleDataset(t)

	code := `
totals = group_sum(df, "region", "revenue")
figure = bar_chart("Revenue by region", totals.keys(), {"revenue": totals.values()})
insight = "Revenue is concentrated in a few regions."
`
	result, err := executor.Run(context.Background(), code, ds)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Figure == nil {
		t.Fatal("Run() returned nil figure")
	}
	if result.Figure.Kind != "bar" {
		t.Errorf("figure kind = %q, want bar", result.Figure.Kind)
	}
	if result.Insight == "" {
		t.Error("insight not captured")
	}
}

func TestRunInsightOptional(t *testing.T) {
	executor := newTestExecutor(t)
	ds := sampleDataset(t)

	code := `figure = histogram("Units", df.col("units"), bins=5)`
	result, err := executor.Run(context.Background(), code, ds)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Insight != "" {
		t.Errorf("insight = %q, want empty", result.Insight)
	}
}

func TestRunMissingFigure(t *testing.T) {
	executor := newTestExecutor(t)
	ds := sampleDataset(t)

	_, err := executor.Run(context.Background(), `x = 1 + 1`, ds)

	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("Run() error = %T, want *ExecError", err)
	}
	if !strings.Contains(execErr.Message, "missing expected output") {
		t.Errorf("message = %q, want missing-output hint", execErr.Message)
	}
	if !vizerrors.IsRecoverable(err) {
		t.Error("missing figure should be recoverable")
	}
}

func TestRunFigureWrongType(t *testing.T) {
	executor := newTestExecutor(t)
	ds := sampleDataset(t)

	_, err := executor.Run(context.Background(), `figure = "not a chart"`, ds)

	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("Run() error = %T, want *ExecError", err)
	}
	if !strings.Contains(execErr.Message, "must be a chart object") {
		t.Errorf("message = %q", execErr.Message)
	}
}

func TestRunUndefinedName(t *testing.T) {
	executor := newTestExecutor(t)
	ds := sampleDataset(t)

	_, err := executor.Run(context.Background(), `figure = bar_chart("t", nonsense, {})`, ds)

	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("Run() error = %T, want *ExecError", err)
	}
	if strings.Contains(execErr.Message, "Traceback") {
		t.Errorf("message carries a backtrace: %q", execErr.Message)
	}
}

func TestRunNoStateLeakBetweenRuns(t *testing.T) {
	executor := newTestExecutor(t)
	ds := sampleDataset(t)

	first := `
leftover = 42
figure = pie_chart("Products", unique(df.col("product")), [1.0, 1.0, 1.0])
`
	if _, err := executor.Run(context.Background(), first, ds); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	// `leftover` must not survive into the next execution.
	_, err := executor.Run(context.Background(), `figure = leftover`, ds)
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("second Run() error = %T, want *ExecError", err)
	}
	if !strings.Contains(execErr.Message, "leftover") {
		t.Errorf("message = %q, want undefined-name error for leftover", execErr.Message)
	}
}

func TestRunStepBudget(t *testing.T) {
	cfg := &config.Config{MaxExecutionSteps: 1000, MaxCodeBytes: 64 * 1024}
	executor := New(cfg, zap.NewNop())
	ds := sampleDataset(t)

	code := `
x = 0
while True:
    x += 1
`
	_, err := executor.Run(context.Background(), code, ds)
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("Run() error = %T, want *ExecError when the step budget is exceeded", err)
	}
}

func TestRunCodeTooLarge(t *testing.T) {
	cfg := &config.Config{MaxExecutionSteps: 1000, MaxCodeBytes: 10}
	executor := New(cfg, zap.NewNop())
	ds := sampleDataset(t)

	_, err := executor.Run(context.Background(), `figure = bar_chart("t", ["a"], {"v": [1.0]})`, ds)
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("Run() error = %T, want *ExecError", err)
	}
	if !strings.Contains(execErr.Message, "too large") {
		t.Errorf("message = %q", execErr.Message)
	}
}

func TestRunCancelledContext(t *testing.T) {
	executor := newTestExecutor(t)
	ds := sampleDataset(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code := `
x = 0
while True:
    x += 1
`
	if _, err := executor.Run(ctx, code, ds); err == nil {
		t.Error("Run() with cancelled context expected error")
	}
}

func TestDataFrameBindings(t *testing.T) {
	executor := newTestExecutor(t)
	ds := sampleDataset(t)

	code := `
names = df.columns
rows = df.rows()
first = rows[0]
labels = ["cols", "rows"]
values = [float(len(names)), float(df.num_rows)]
figure = bar_chart("Shape", labels, {"n": values})
insight = "first region: " + str(first["region"])
`
	result, err := executor.Run(context.Background(), code, ds)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(result.Insight, "first region") {
		t.Errorf("insight = %q", result.Insight)
	}
}

func TestDataFrameUnknownColumn(t *testing.T) {
	executor := newTestExecutor(t)
	ds := sampleDataset(t)

	_, err := executor.Run(context.Background(), `figure = bar_chart("t", df.col("nope"), {})`, ds)
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("Run() error = %T, want *ExecError", err)
	}
	if !strings.Contains(execErr.Message, "no column named") {
		t.Errorf("message = %q, want helpful column error", execErr.Message)
	}
}

func TestGroupHelpers(t *testing.T) {
	executor := newTestExecutor(t)
	ds := sampleDataset(t)

	code := `
by_month = {}
for row in df.rows():
    key = month_key(row["date"])
    by_month[key] = by_month.get(key, 0.0) + row["revenue"]

months = sorted(by_month.keys())
figure = line_chart("Monthly revenue", months, {"revenue": [by_month[m] for m in months]})

counts = group_count(df, "region")
means = group_mean(df, "region", "units")
insight = "regions: " + str(len(counts)) + ", avg units overall: " + str(mean(df.col("units")))
`
	result, err := executor.Run(context.Background(), code, ds)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Figure.Kind != "line" {
		t.Errorf("figure kind = %q, want line", result.Figure.Kind)
	}
}
