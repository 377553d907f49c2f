package dataset

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/series"
)

const sampleValuesPerColumn = 3

// ColumnSchema describes a single column for prompt grounding.
type ColumnSchema struct {
	Name    string
	Type    string // "numeric", "categorical", "datetime", "boolean"
	Samples []string
}

// SchemaSummary is a derived, read-only description of a Dataset. It is
// recomputed whenever a new dataset is loaded and has no lifecycle of its own.
type SchemaSummary struct {
	DatasetName string
	NumRows     int
	Columns     []ColumnSchema
	Numeric     []string
	Categorical []string
	Datetime    []string
	preview     string
	stats       string
}

// Summarize inspects a dataset and produces the schema summary used to ground
// the generation prompt.
func Summarize(ds *Dataset) *SchemaSummary {
	s := &SchemaSummary{
		DatasetName: ds.Name(),
		NumRows:     ds.NumRows(),
	}

	types := ds.df.Types()
	for i, name := range ds.df.Names() {
		records := ds.df.Col(name).Records()
		col := ColumnSchema{
			Name:    name,
			Samples: sampleValues(records, sampleValuesPerColumn),
		}

		switch types[i] {
		case series.Int, series.Float:
			col.Type = "numeric"
			s.Numeric = append(s.Numeric, name)
		case series.Bool:
			col.Type = "boolean"
			s.Categorical = append(s.Categorical, name)
		default:
			if looksLikeDates(records) {
				col.Type = "datetime"
				s.Datetime = append(s.Datetime, name)
			} else {
				col.Type = "categorical"
				s.Categorical = append(s.Categorical, name)
			}
		}

		s.Columns = append(s.Columns, col)
	}

	s.preview = buildPreview(ds)
	s.stats = buildStats(ds, s.Numeric)
	return s
}

// sampleValues returns up to n distinct values, in first-seen order.
func sampleValues(records []string, n int) []string {
	seen := make(map[string]bool, n)
	var out []string
	for _, r := range records {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
		if len(out) == n {
			break
		}
	}
	return out
}

// looksLikeDates reports whether most non-empty values parse as dates.
func looksLikeDates(records []string) bool {
	checked, parsed := 0, 0
	for _, r := range records {
		if strings.TrimSpace(r) == "" {
			continue
		}
		checked++
		if _, ok := ParseDate(r); ok {
			parsed++
		}
		if checked == 20 {
			break
		}
	}
	return checked > 0 && parsed*5 >= checked*4 // >= 80%
}

func buildPreview(ds *Dataset) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(ds.Columns(), " | "))
	sb.WriteByte('\n')
	for _, row := range ds.Head(5) {
		sb.WriteString(strings.Join(row, " | "))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func buildStats(ds *Dataset, numeric []string) string {
	if len(numeric) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, name := range numeric {
		col := ds.df.Col(name)
		fmt.Fprintf(&sb, "%s: min=%.4g max=%.4g mean=%.4g\n",
			name, col.Min(), col.Max(), col.Mean())
	}
	return sb.String()
}

// PromptText renders the summary as the schema section of the LLM prompt.
func (s *SchemaSummary) PromptText() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Dataset: %s (%d rows)\n\n", s.DatasetName, s.NumRows)

	sb.WriteString("Columns:\n")
	for _, col := range s.Columns {
		fmt.Fprintf(&sb, "- %s (%s)", col.Name, col.Type)
		if len(col.Samples) > 0 {
			fmt.Fprintf(&sb, " e.g. %s", strings.Join(col.Samples, ", "))
		}
		sb.WriteByte('\n')
	}

	if len(s.Numeric) > 0 {
		fmt.Fprintf(&sb, "\nNumeric columns: %s\n", strings.Join(s.Numeric, ", "))
	}
	if len(s.Categorical) > 0 {
		fmt.Fprintf(&sb, "Categorical columns: %s\n", strings.Join(s.Categorical, ", "))
	}
	if len(s.Datetime) > 0 {
		fmt.Fprintf(&sb, "Datetime columns: %s\n", strings.Join(s.Datetime, ", "))
	}

	fmt.Fprintf(&sb, "\nPreview (first rows):\n%s", s.preview)

	if s.stats != "" {
		fmt.Fprintf(&sb, "\nBasic statistics:\n%s", s.stats)
	}

	return sb.String()
}
