package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	cfg "github.com/coverbridge/salesagent/config"
	"github.com/coverbridge/salesagent/message"
	"github.com/coverbridge/salesagent/provider"
)

// Config holds OpenAI provider configuration. Temperature and MaxTokens
// are the generation defaults used when a call does not override them.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int64
}

// WithBaseURL set BaseURL.
func (cfg *Config) WithBaseURL(url string) *Config {
	cfg.BaseURL = url
	return cfg
}

// WithAPIKey set api key.
func (cfg *Config) WithAPIKey(apiKey string) *Config {
	cfg.APIKey = apiKey
	return cfg
}

// WithModel set model.
func (cfg *Config) WithModel(model string) *Config {
	cfg.Model = model
	return cfg
}

// DefaultConfig returns default OpenAI configuration
func DefaultConfig() *Config {
	return &Config{
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   500,
	}
}

// Provider implements provider.Generator using the official SDK
type Provider struct {
	config *Config
	client openai.Client
}

var _ provider.Generator = (*Provider)(nil)

// New creates a new OpenAI provider
func New(config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 500
	}
	if err := cfg.ValidateProviderConfig(config.APIKey, config.Model, config.Temperature, int(config.MaxTokens)); err != nil {
		return nil, fmt.Errorf("invalid OpenAI configuration: %w", err)
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		config: config,
		client: openai.NewClient(options...),
	}, nil
}

// Generate implements provider.Generator
func (p *Provider) Generate(ctx context.Context, messages []*message.Message, opts provider.GenerateOptions) (*message.Message, error) {
	openAIMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case message.RoleSystem:
			openAIMessages = append(openAIMessages, openai.SystemMessage(msg.Content))
		case message.RoleCustomer:
			openAIMessages = append(openAIMessages, openai.UserMessage(msg.Content))
		case message.RoleAssistant:
			openAIMessages = append(openAIMessages, openai.AssistantMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: openAIMessages,
		Model:    openai.ChatModel(p.config.Model),
	}
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = p.config.Temperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.config.MaxTokens
	}
	params.Temperature = param.NewOpt(temperature)
	params.MaxCompletionTokens = param.NewOpt(maxTokens)

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI API returned no choices")
	}

	return message.NewMessage(message.RoleAssistant, completion.Choices[0].Message.Content), nil
}
