package agent

import (
	"fmt"
	"strings"

	"viz-agent/dataset"
)

// BuildGenerationPrompt combines the user's question with the dataset schema
// into the user turn of the generation request. The fixed constraints (output
// variable names, allowed builtins, no I/O) live in the embedded system
// prompt; this carries only the per-request grounding.
func BuildGenerationPrompt(schema *dataset.SchemaSummary, question string) string {
	var sb strings.Builder

	sb.WriteString(schema.PromptText())
	fmt.Fprintf(&sb, "\nUser question: %q\n", strings.TrimSpace(question))
	sb.WriteString("\nWrite a Starlark script that answers this question with a chart.\n")

	return sb.String()
}

// BuildRepairPrompt folds a failing script and its error into a corrective
// request. The schema rides along so the model can fix wrong column names
// without guessing.
func BuildRepairPrompt(schema *dataset.SchemaSummary, question, code, failure string) string {
	var sb strings.Builder

	sb.WriteString(schema.PromptText())
	fmt.Fprintf(&sb, "\nUser question: %q\n", strings.TrimSpace(question))

	if strings.TrimSpace(code) != "" {
		sb.WriteString("\nThe following script failed:\n```starlark\n")
		sb.WriteString(strings.TrimSpace(code))
		sb.WriteString("\n```\n")
	}
	fmt.Fprintf(&sb, "\nError: %s\n", failure)
	sb.WriteString("\nReturn the corrected script.\n")

	return sb.String()
}
