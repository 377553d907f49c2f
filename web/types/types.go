// Package types holds the JSON shapes exchanged with the browser.
package types

import "viz-agent/web/session"

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question string `json:"question" form:"question"`
}

// AskResponse is the result of one analysis pipeline run.
type AskResponse struct {
	Question   string `json:"question"`
	Code       string `json:"code"`
	FigureHTML string `json:"figure_html,omitempty"`
	Insight    string `json:"insight,omitempty"`
	Attempts   int    `json:"attempts"`
	Cached     bool   `json:"cached"`
}

// ColumnInfo describes one dataset column for the UI.
type ColumnInfo struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Samples []string `json:"samples"`
}

// DatasetResponse describes the currently loaded dataset.
type DatasetResponse struct {
	Name    string       `json:"name"`
	NumRows int          `json:"num_rows"`
	Columns []ColumnInfo `json:"columns"`
}

// HistoryResponse wraps a session's past analyses.
type HistoryResponse struct {
	Records []session.Record `json:"records"`
}

// ErrorResponse is the uniform error body. Code and attempts are present
// when an analysis failed after consuming its repair budget.
type ErrorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
}
