package claude

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	cfg "github.com/coverbridge/salesagent/config"
	"github.com/coverbridge/salesagent/message"
	"github.com/coverbridge/salesagent/provider"
)

// Config holds Claude provider configuration
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// Temperature and MaxTokens are the generation defaults used when a
	// call does not override them.
	Temperature float64
	MaxTokens   int64
}

// DefaultConfig returns default Claude configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "claude-3-5-sonnet-20241022",
		Temperature: 0.7,
		MaxTokens:   500,
	}
}

// Provider implements provider.Generator using the official SDK
type Provider struct {
	config *Config
	client anthropic.Client
}

var _ provider.Generator = (*Provider)(nil)

// New creates a new Claude provider
func New(config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "claude-3-5-sonnet-20241022"
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 500
	}
	if err := cfg.ValidateProviderConfig(config.APIKey, config.Model, config.Temperature, int(config.MaxTokens)); err != nil {
		return nil, fmt.Errorf("invalid Claude configuration: %w", err)
	}

	options := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		config: config,
		client: anthropic.NewClient(options...),
	}, nil
}

// Generate implements provider.Generator
func (p *Provider) Generate(ctx context.Context, messages []*message.Message, opts provider.GenerateOptions) (*message.Message, error) {
	// Separate system messages from conversation
	var systemText string
	conversationMessages := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case message.RoleSystem:
			if systemText != "" {
				systemText += "\n"
			}
			systemText += msg.Content
		case message.RoleCustomer:
			conversationMessages = append(conversationMessages,
				anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case message.RoleAssistant:
			conversationMessages = append(conversationMessages,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.config.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		Messages:  conversationMessages,
		MaxTokens: maxTokens,
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemText},
		}
	}
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = p.config.Temperature
	}
	params.Temperature = param.NewOpt(temperature)

	apiMessage, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("Claude API error: %w", err)
	}

	var responseText string
	for _, content := range apiMessage.Content {
		if content.Type == "text" {
			responseText += content.Text
		}
	}

	return message.NewMessage(message.RoleAssistant, responseText), nil
}
