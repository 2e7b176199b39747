package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	cfg "github.com/coverbridge/salesagent/config"
	"github.com/coverbridge/salesagent/message"
	"github.com/coverbridge/salesagent/provider"
)

const geminiAPIURL = "https://generativelanguage.googleapis.com/v1/models"

// Config holds Gemini provider configuration
type Config struct {
	APIKey string
	Model  string
	// Temperature and MaxTokens are the generation defaults used when a
	// call does not override them.
	Temperature float64
	MaxTokens   int64
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "gemini-pro",
		Temperature: 0.7,
		MaxTokens:   500,
	}
}

// Provider implements provider.Generator for Google Gemini
type Provider struct {
	config *Config
	client *http.Client
}

var _ provider.Generator = (*Provider)(nil)

// New creates a new Gemini provider
func New(config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "gemini-pro"
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 500
	}
	if err := cfg.ValidateProviderConfig(config.APIKey, config.Model, config.Temperature, int(config.MaxTokens)); err != nil {
		return nil, fmt.Errorf("invalid Gemini configuration: %w", err)
	}

	return &Provider{
		config: config,
		client: &http.Client{},
	}, nil
}

// geminiMessage represents a message in Gemini API format
type geminiMessage struct {
	Role  string `json:"role"`
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

// geminiRequest represents a Gemini API request
type geminiRequest struct {
	Contents         []geminiMessage  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	MaxOutputTokens int64   `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

// geminiResponse represents a Gemini API response
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *geminiError `json:"error,omitempty"`
}

// geminiError represents an error in Gemini API response
type geminiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Generate implements provider.Generator
func (p *Provider) Generate(ctx context.Context, messages []*message.Message, opts provider.GenerateOptions) (*message.Message, error) {
	if p.config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key not configured")
	}

	// Gemini has no system role; fold system prompts into user turns.
	geminiMessages := make([]geminiMessage, 0, len(messages))
	for _, msg := range messages {
		role := "user"
		if msg.Role == message.RoleAssistant {
			role = "model"
		}
		geminiMessages = append(geminiMessages, geminiMessage{
			Role: role,
			Parts: []struct {
				Text string `json:"text"`
			}{
				{Text: msg.Content},
			},
		})
	}

	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = p.config.Temperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.config.MaxTokens
	}
	payload := geminiRequest{
		Contents: geminiMessages,
		GenerationConfig: generationConfig{
			MaxOutputTokens: maxTokens,
			Temperature:     temperature,
		},
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiAPIURL, p.config.Model, p.config.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Gemini API error (status %d): %s", httpResp.StatusCode, string(respBody))
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if geminiResp.Error != nil {
		return nil, fmt.Errorf("Gemini API error %d: %s", geminiResp.Error.Code, geminiResp.Error.Message)
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("Gemini API returned no candidates")
	}

	var responseText string
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		responseText += part.Text
	}

	return message.NewMessage(message.RoleAssistant, responseText), nil
}
