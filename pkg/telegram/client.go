package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/casahojaldre/chatbot-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.telegram.org"
	responseBodyReadLimit int64 = 1024
)

var errTokenRequired = errors.New("telegram bot token is required")

// Client wraps the Bot API methods the bot sends with.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the Bot API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds a Bot API client for the given token.
func NewClient(token string, opts ...Option) (*Client, error) {
	trimmedToken := strings.TrimSpace(token)
	if trimmedToken == "" {
		return nil, errTokenRequired
	}

	client := &Client{
		token:      trimmedToken,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// SendMessageRequest is the payload for the sendMessage method.
type SendMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendMessage delivers a text message, optionally with an inline keyboard.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "telegram client not configured")
	}
	if strings.TrimSpace(req.Text) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message text is required")
	}
	return c.call(ctx, "sendMessage", req)
}

// AnswerCallbackQuery acknowledges a button press so the client stops
// showing a spinner.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "telegram client not configured")
	}
	if strings.TrimSpace(callbackID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "callback query id is required")
	}
	payload := map[string]any{"callback_query_id": callbackID}
	if text != "" {
		payload["text"] = text
	}
	return c.call(ctx, "answerCallbackQuery", payload)
}

// SetWebhook registers the webhook URL with the Bot API.
func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "telegram client not configured")
	}
	if strings.TrimSpace(url) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook url is required")
	}
	payload := map[string]any{"url": url}
	if secretToken != "" {
		payload["secret_token"] = secretToken
	}
	return c.call(ctx, "setWebhook", payload)
}

func (c *Client) call(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal "+method+" request")
	}

	url := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(c.baseURL, "/"), c.token, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+method+" request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+method+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	var apiResp struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if decodeErr := json.Unmarshal(raw, &apiResp); decodeErr == nil && apiResp.OK {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))), method+" request failed")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("api error: %s", apiResp.Description), method+" rejected")
}
