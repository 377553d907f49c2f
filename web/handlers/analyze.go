package handlers

import (
	"net/http"
	"strings"
	"time"

	"viz-agent/agent"
	vizerrors "viz-agent/errors"
	"viz-agent/web/format"
	"viz-agent/web/middleware"
	"viz-agent/web/session"
	"viz-agent/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AnalyzeHandler serves the ask endpoint, the history view, and the example
// question list.
type AnalyzeHandler struct {
	agent  *agent.Agent
	logger *zap.Logger
}

func NewAnalyzeHandler(agent *agent.Agent, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{agent: agent, logger: logger}
}

// Ask runs one question through the analysis pipeline.
func (h *AnalyzeHandler) Ask(c *gin.Context) {
	sess := middleware.CurrentSession(c)

	var req types.AskRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondWithClientError(c, http.StatusBadRequest, "question cannot be empty")
		return
	}

	ds := sess.Dataset()
	if ds == nil {
		respondWithClientError(c, http.StatusBadRequest, "load a dataset before asking a question")
		return
	}

	sess.BeginAnalysis()
	defer sess.EndAnalysis()

	analysis, err := h.agent.Analyze(c.Request.Context(), ds, sess.Cache(), req.Question)
	if err != nil {
		h.respondAnalysisError(c, sess, req.Question, analysis, err)
		return
	}

	figureHTML, err := analysis.Figure.HTML()
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "could not render the chart", h.logger)
		return
	}

	insightHTML := ""
	if analysis.Insight != "" {
		insightHTML = format.InsightToHTML(analysis.Insight)
	}

	sess.Append(session.Record{
		Question:   analysis.Question,
		Code:       analysis.Code,
		FigureHTML: figureHTML,
		Insight:    insightHTML,
		Attempts:   analysis.Attempts,
		Cached:     analysis.Cached,
		CreatedAt:  time.Now(),
	})

	c.JSON(http.StatusOK, types.AskResponse{
		Question:   analysis.Question,
		Code:       analysis.Code,
		FigureHTML: figureHTML,
		Insight:    insightHTML,
		Attempts:   analysis.Attempts,
		Cached:     analysis.Cached,
	})
}

// respondAnalysisError maps pipeline failures to responses. Exhausted runs
// still hand back the last code attempt and land in the history so the user
// can see what was tried.
func (h *AnalyzeHandler) respondAnalysisError(c *gin.Context, sess *session.Session, question string, analysis *agent.Analysis, err error) {
	status, msg := statusForError(err)

	if vizerrors.IsExhausted(err) && analysis != nil {
		h.logger.Warn("Analysis exhausted its repair budget",
			zap.String("session_id", sess.ID().String()),
			zap.Int("attempts", analysis.Attempts))

		sess.Append(session.Record{
			Question:  question,
			Code:      analysis.Code,
			Attempts:  analysis.Attempts,
			Failed:    true,
			Error:     msg,
			CreatedAt: time.Now(),
		})

		c.JSON(status, types.ErrorResponse{
			Error:    msg,
			Code:     analysis.Code,
			Attempts: analysis.Attempts,
		})
		return
	}

	if status >= http.StatusInternalServerError || vizerrors.IsServiceError(err) {
		respondWithError(c, status, err, msg, h.logger,
			zap.String("session_id", sess.ID().String()))
		return
	}
	respondWithClientError(c, status, msg)
}

// History returns the session's past analyses, oldest first.
func (h *AnalyzeHandler) History(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	c.JSON(http.StatusOK, types.HistoryResponse{Records: sess.History()})
}

var exampleQuestions = []string{
	"What is the total revenue by region?",
	"Show monthly revenue as a line chart",
	"How are units distributed? Show a histogram",
	"What share of revenue comes from each product?",
	"Is there a relationship between units and revenue?",
}

// Examples returns starter questions for the UI. They target the bundled
// sample dataset but illustrate the phrasing for any upload.
func (h *AnalyzeHandler) Examples(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"questions": exampleQuestions})
}
