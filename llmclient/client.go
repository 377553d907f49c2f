package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"viz-agent/config"
	vizerrors "viz-agent/errors"

	"go.uber.org/zap"
)

// Model is the completion model identifier. Fixed in this version; change it
// here rather than through configuration.
const Model = "gemini-2.0-flash"

// Message is a single chat turn sent to the completion endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Client is a single-shot chat-completion client. It performs exactly one
// request per call: retrying generation is the repair loop's job, so transport
// and service failures surface immediately and distinctly.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.LLMRequestTimeout},
		logger:     logger,
	}
}

// Complete sends a system+user prompt pair and returns the raw completion text.
// An empty completion is returned as-is; deciding whether the text is usable
// belongs to the code extractor, not the transport.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}
	return c.Chat(ctx, messages)
}

// Chat performs a non-streaming chat completion call.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	reqBody := chatRequest{
		Model:    Model,
		Messages: messages,
		Stream:   false,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(c.cfg.LLMHost, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.LLMAPIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", vizerrors.WrapErrorf(vizerrors.ErrLLMUnavailable, "send chat request: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", vizerrors.WrapErrorf(vizerrors.ErrLLMUnavailable, "read chat response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("LLM server returned non-200",
			zap.String("status", resp.Status),
			zap.Int("body_len", len(bodyBytes)))
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return "", vizerrors.WrapErrorf(vizerrors.ErrAuthentication, "llm server status %s", resp.Status)
		case http.StatusTooManyRequests:
			return "", vizerrors.WrapErrorf(vizerrors.ErrRateLimited, "llm server status %s", resp.Status)
		default:
			return "", vizerrors.WrapErrorf(vizerrors.ErrLLMUnavailable, "llm server status %s: %s",
				resp.Status, truncate(string(bodyBytes), 200))
		}
	}

	var cr chatResponse
	if err := json.Unmarshal(bodyBytes, &cr); err != nil {
		return "", vizerrors.WrapErrorf(vizerrors.ErrLLMUnavailable, "decode chat response: %v", err)
	}
	if len(cr.Choices) == 0 {
		return "", vizerrors.WrapError(vizerrors.ErrLLMUnavailable, "no response choices from llm server")
	}
	return cr.Choices[0].Message.Content, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
