package extract

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const (
	defaultModel     = string(sdk.ModelClaudeSonnet4_5)
	defaultMaxTokens = 4096
)

// TextCompleter abstracts the language-model call so the adapter can be
// tested without network access.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ClaudeCompleter implements TextCompleter on the Anthropic API.
type ClaudeCompleter struct {
	client    sdk.Client
	model     sdk.Model
	maxTokens int64
}

// ClaudeOption configures a ClaudeCompleter.
type ClaudeOption func(*ClaudeCompleter)

// WithModel overrides the default model.
func WithModel(m string) ClaudeOption {
	return func(c *ClaudeCompleter) {
		c.model = sdk.Model(m)
	}
}

// WithMaxTokens overrides the response token cap.
func WithMaxTokens(n int64) ClaudeOption {
	return func(c *ClaudeCompleter) {
		c.maxTokens = n
	}
}

// NewClaudeCompleter creates a completer using the given API key.
func NewClaudeCompleter(apiKey string, opts ...ClaudeOption) *ClaudeCompleter {
	c := &ClaudeCompleter{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     sdk.Model(defaultModel),
		maxTokens: defaultMaxTokens,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *ClaudeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "extract: message request")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", eris.New("extract: empty model response")
	}
	return sb.String(), nil
}
