package format

import (
	"strings"

	vizerrors "viz-agent/errors"
)

// Fence markers accepted from LLM output, most specific first. Models
// sometimes label sandbox code as python even when told otherwise.
var codeFences = []string{"```starlark", "```python", "```"}

// HasCodeBlock reports whether text contains an opening code fence.
func HasCodeBlock(text string) bool {
	return strings.Contains(text, "```")
}

// ExtractCode isolates the executable code block from raw LLM text.
//
// Tolerated shapes: surrounding prose (discarded), multiple blocks (first
// wins), and a missing closing fence (content runs to end of text). Text with
// no fence at all is an extraction failure.
func ExtractCode(text string) (string, error) {
	sanitized := PreprocessAssistantText(text)

	for _, fence := range codeFences {
		startIdx := strings.Index(sanitized, fence)
		if startIdx == -1 {
			continue
		}

		codeStart := startIdx + len(fence)
		// A generic ``` fence may carry a language tag; skip to end of line.
		if fence == "```" {
			if nl := strings.IndexByte(sanitized[codeStart:], '\n'); nl != -1 {
				codeStart += nl
			}
		}
		if codeStart < len(sanitized) && sanitized[codeStart] == '\n' {
			codeStart++
		}

		rest := sanitized[codeStart:]
		if endRel := strings.Index(rest, "```"); endRel != -1 {
			rest = rest[:endRel]
		}

		code := strings.TrimSpace(rest)
		if code == "" {
			return "", vizerrors.WrapError(vizerrors.ErrNoCodeBlock, "fenced block was empty")
		}
		return code, nil
	}

	return "", vizerrors.ErrNoCodeBlock
}

// PreprocessAssistantText normalizes LLM output quirks before parsing.
func PreprocessAssistantText(text string) string {
	if text == "" {
		return text
	}

	// Replace curly quotes (breaks string literals in generated code)
	return strings.NewReplacer(
		"“", "\"", // "
		"”", "\"", // "
		"‘", "'", // '
		"’", "'", // '
	).Replace(text)
}
