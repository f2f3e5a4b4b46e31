// Package llm talks to an OpenAI-compatible chat-completion endpoint and
// digs JSON suggestion lists out of loosely formatted replies.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/cesargomez89/shelfwise/internal/constants"
)

var (
	// ErrLLMStatus wraps any non-2xx reply from the endpoint.
	ErrLLMStatus = errors.New("llm endpoint returned an error status")
	// ErrEmptyResponse means no choice carried any content.
	ErrEmptyResponse = errors.New("llm returned no content")
)

// Prompt is one system/user exchange.
type Prompt struct {
	System string
	User   string
}

// Completer returns the raw assistant text for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

var _ Completer = (*Client)(nil)

// Config holds the endpoint settings.
type Config struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Model      string
}

// Client implements Completer using the openai-go SDK.
type Client struct {
	client openai.Client
	model  string
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.LLMHTTPTimeout}
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		// refreshers never retry; a failed focus unit waits for the next schedule
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	return &Client{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

// Complete requests a JSON object reply and returns the content of the last
// choice that has any.
func (c *Client) Complete(ctx context.Context, prompt Prompt) (string, error) {
	msgs := []openai.ChatCompletionMessageParamUnion{}
	if prompt.System != "" {
		msgs = append(msgs, openai.SystemMessage(prompt.System))
	}
	msgs = append(msgs, openai.UserMessage(prompt.User))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: msgs,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: status %d", ErrLLMStatus, apiErr.StatusCode)
		}
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	for i := len(resp.Choices) - 1; i >= 0; i-- {
		if content := resp.Choices[i].Message.Content; strings.TrimSpace(content) != "" {
			return content, nil
		}
	}
	return "", ErrEmptyResponse
}
