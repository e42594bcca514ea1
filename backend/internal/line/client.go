package line

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"bakerybot/backend/pkg/errors"
	"bakerybot/backend/pkg/logger"
	"go.uber.org/zap"
)

// TextMessage is an outbound text reply, optionally with quick-reply buttons
type TextMessage struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	QuickReply *QuickReply `json:"quickReply,omitempty"`
}

// QuickReply is a tappable button list shown under a message
type QuickReply struct {
	Items []QuickReplyItem `json:"items"`
}

// QuickReplyItem is one quick-reply button
type QuickReplyItem struct {
	Type   string      `json:"type"`
	Action QuickAction `json:"action"`
}

// QuickAction is the message a quick-reply button sends when tapped
type QuickAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// NewText builds a plain text message
func NewText(text string) TextMessage {
	return TextMessage{Type: "text", Text: text}
}

// NewTextWithQuickReplies builds a text message with quick-reply buttons
// from label/text pairs
func NewTextWithQuickReplies(text string, options []QuickOption) TextMessage {
	items := make([]QuickReplyItem, 0, len(options))
	for _, opt := range options {
		items = append(items, QuickReplyItem{
			Type: "action",
			Action: QuickAction{
				Type:  "message",
				Label: opt.Label,
				Text:  opt.Text,
			},
		})
	}
	return TextMessage{
		Type:       "text",
		Text:       text,
		QuickReply: &QuickReply{Items: items},
	}
}

// QuickOption is a label/text pair for a quick-reply button
type QuickOption struct {
	Label string
	Text  string
}

// Client delivers replies to the LINE messaging API
type Client struct {
	apiURL       string
	channelToken string
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewClient creates a reply client for a channel
func NewClient(apiURL, channelToken string, timeout time.Duration) *Client {
	return &Client{
		apiURL:       apiURL,
		channelToken: channelToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Get(),
	}
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []TextMessage `json:"messages"`
}

// Reply sends one or more messages against a reply token
func (c *Client) Reply(ctx context.Context, replyToken string, messages ...TextMessage) error {
	body, err := json.Marshal(replyRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	})
	if err != nil {
		return errors.NewReplyFailed(0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/v2/bot/message/reply", bytes.NewReader(body))
	if err != nil {
		return errors.NewReplyFailed(0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.channelToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewReplyFailed(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error("Reply delivery failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", payload),
		)
		return errors.NewReplyFailed(resp.StatusCode, nil)
	}

	c.logger.Debug("Reply delivered",
		zap.Int("messages", len(messages)),
	)
	return nil
}
