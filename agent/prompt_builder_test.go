package agent

import (
	"strings"
	"testing"

	"viz-agent/dataset"
)

func sampleSchema(t *testing.T) *dataset.SchemaSummary {
	t.Helper()
	ds, err := dataset.LoadSample()
	if err != nil {
		t.Fatal(err)
	}
	return dataset.Summarize(ds)
}

func TestBuildGenerationPrompt(t *testing.T) {
	prompt := BuildGenerationPrompt(sampleSchema(t), "  What is revenue by region? ")

	for _, want := range []string{
		"Dataset: sample_data.csv",
		"revenue (numeric)",
		`"What is revenue by region?"`,
		"Starlark",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("generation prompt missing %q", want)
		}
	}
}

func TestBuildRepairPrompt(t *testing.T) {
	code := `figure = bar_chart("t", df.col("regoin"), {})`
	failure := `execution error: no column named "regoin"`

	prompt := BuildRepairPrompt(sampleSchema(t), "revenue by region", code, failure)

	for _, want := range []string{
		"Dataset: sample_data.csv",
		"The following script failed:",
		code,
		failure,
		"corrected script",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("repair prompt missing %q", want)
		}
	}
}

func TestBuildRepairPromptWithoutCode(t *testing.T) {
	prompt := BuildRepairPrompt(sampleSchema(t), "revenue by region", "",
		"the response did not contain a fenced ```starlark code block")

	if strings.Contains(prompt, "The following script failed:") {
		t.Error("repair prompt embeds an empty script section")
	}
	if !strings.Contains(prompt, "did not contain a fenced") {
		t.Error("repair prompt missing the failure description")
	}
}
