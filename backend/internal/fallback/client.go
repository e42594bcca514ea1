package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"bakerybot/backend/pkg/errors"
	"bakerybot/backend/pkg/logger"
	"go.uber.org/zap"
)

// Client calls the external generation endpoint when the knowledge cache has
// no close match. One blocking request per turn, no internal retries: the
// orchestrator relies on at-most-one generation per message
type Client struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a fallback client against an Ollama-style endpoint
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		model:   model,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Get(),
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate asks the model for an answer to the question. userName, when
// known, is interpolated into the persona prompt. The prompt asks for a
// short answer but the output length is not guaranteed
func (c *Client) Generate(ctx context.Context, question, userName string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: buildPrompt(question, userName),
		Stream: false,
	})
	if err != nil {
		return "", errors.NewFallbackFailed(0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", errors.NewFallbackFailed(0, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Warn("Generation timed out",
				zap.Duration("timeout", c.timeout),
				zap.String("model", c.model),
			)
			return "", errors.NewFallbackTimeout(c.timeout, err)
		}
		return "", errors.NewFallbackFailed(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error("Generation request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("model", c.model),
			zap.ByteString("body", payload),
		)
		return "", errors.NewFallbackFailed(resp.StatusCode, nil)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", errors.NewFallbackFailed(resp.StatusCode, err)
	}
	if decoded.Response == "" {
		return "", errors.NewFallbackFailed(resp.StatusCode, fmt.Errorf("empty response field"))
	}

	c.logger.Debug("Generation completed",
		zap.String("model", c.model),
		zap.Duration("latency", time.Since(start)),
		zap.Int("reply_length", len(decoded.Response)),
	)

	return decoded.Response, nil
}

// buildPrompt interpolates the bakery-assistant persona, the remembered name
// and the raw question
func buildPrompt(question, userName string) string {
	if userName != "" {
		return fmt.Sprintf("ผู้ตอบเป็นผู้เชี่ยวชาญเรื่องเบเกอรี่ ผู้ถามชื่อ คุณ%s ตอบสั้นๆไม่เกิน 20 คำ เกี่ยวกับ '%s'", userName, question)
	}
	return fmt.Sprintf("ผู้ตอบเป็นผู้เชี่ยวชาญเรื่องเบเกอรี่ ตอบสั้นๆไม่เกิน 20 คำ เกี่ยวกับ '%s'", question)
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
