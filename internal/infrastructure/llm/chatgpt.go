package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ArxivTranslator/internal/config"
	"ArxivTranslator/internal/domain"
	"ArxivTranslator/internal/ports"
)

const (
	defaultMaxTokens   = 1024
	defaultTemperature = 0.7
	defaultTimeout     = 60 * time.Second

	defaultSystemPrompt = "You are a robotics and computer vision researcher who explains and translates research abstracts to junior colleagues. " +
		"Your role is to translate research abstracts accurately into Korean, in a way that is easy to understand for junior colleagues."

	defaultStylePrompt = "Translate the following research abstract into Korean in a casual but accurate manner. " +
		"Do not add any greetings or extra comments. " +
		"Simplify the language to make it easier to understand and use informal speech. " +
		"Add paragraph breaks if necessary:"
)

// ChatGPTClient implements ports.Translator backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	stylePrompt  string
	maxTokens    int
	temperature  float64
	httpClient   *http.Client
	logger       *slog.Logger
}

var _ ports.Translator = (*ChatGPTClient)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewChatGPTClient builds a client from configuration. cfg.APIKey is the
// credential sent with every request.
func NewChatGPTClient(cfg config.ChatGPTConfig, logger *slog.Logger) *ChatGPTClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	return &ChatGPTClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: orDefault(cfg.SystemPrompt, defaultSystemPrompt),
		stylePrompt:  orDefault(cfg.StylePrompt, defaultStylePrompt),
		maxTokens:    maxTokens,
		temperature:  temperature,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// Translate sends the abstract with the persona and style instructions and
// returns the generated text. An empty model falls back to the configured one.
// Every failure wraps domain.ErrTranslationFailed.
func (c *ChatGPTClient) Translate(ctx context.Context, abstract, model string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("%w: chatgpt client is nil", domain.ErrTranslationFailed)
	}
	if model == "" {
		model = c.model
	}
	if c.apiKey == "" || c.endpoint == "" || model == "" {
		return "", fmt.Errorf("%w: chatgpt client misconfigured", domain.ErrTranslationFailed)
	}

	text, err := c.complete(ctx, c.buildRequest(abstract, model))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranslationFailed, err)
	}
	return text, nil
}

func (c *ChatGPTClient) buildRequest(abstract, model string) chatRequest {
	return chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: c.stylePrompt + "\n\n" + abstract},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
}

func (c *ChatGPTClient) complete(ctx context.Context, payload chatRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chatgpt error %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode chatgpt response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("empty chatgpt response")
	}

	if c.logger != nil {
		c.logger.Debug("completion received", "model", payload.Model, "elapsed", time.Since(started))
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

func orDefault(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
