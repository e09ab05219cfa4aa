package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"
const defaultOpenAIModel = "gpt-4o-mini"
const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// LLMClient issues one instruction to the text-generation service and
// returns the raw reply text.
type LLMClient interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// newLLMClient builds the configured provider wrapped in the retry
// decorator. Fatal service errors are reported through state.
func newLLMClient(cfg Config, state *RunState) LLMClient {
	var base LLMClient
	switch cfg.Provider {
	case "openai":
		model := cfg.Model
		if model == "" {
			model = defaultOpenAIModel
		}
		baseURL := cfg.OpenAIBaseURL
		if baseURL == "" {
			baseURL = defaultOpenAIBaseURL
		}
		log.Printf("llm provider=openai model=%s base_url=%s", model, baseURL)
		base = &openAIClient{apiKey: cfg.OpenAIAPIKey, baseURL: baseURL, model: model, temperature: cfg.Temperature}
	case "mock":
		log.Printf("llm provider=mock (offline run)")
		base = &mockClient{}
	default:
		model := cfg.Model
		if model == "" {
			model = defaultAnthropicModel
		}
		log.Printf("llm provider=anthropic model=%s", model)
		base = newAnthropicClient(cfg.AnthropicAPIKey, model, cfg.Temperature)
	}

	return &retryingClient{
		inner:        base,
		attempts:     cfg.RetryTimes,
		initialDelay: time.Duration(cfg.RetryDelaySec) * time.Second,
		state:        state,
	}
}

// --- Retry decorator ---

// retryingClient retries transient failures with exponential backoff.
// Fatal service errors (bad credential, arrears, access denied) are not
// retried: they set the run-wide fatal flag once and surface immediately.
type retryingClient struct {
	inner        LLMClient
	attempts     int
	initialDelay time.Duration
	state        *RunState
}

func (r *retryingClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			delay := r.initialDelay * (1 << uint(attempt-1))
			log.Printf("retrying service call in %v (attempt %d/%d)", delay, attempt+1, r.attempts)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		reply, err := r.inner.Complete(ctx, prompt, maxTokens)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		if isFatalServiceError(err) {
			if r.state != nil && r.state.TrySetFatal(err.Error()) {
				log.Printf("fatal service error: %v", err)
			}
			return "", err
		}
		log.Printf("service call attempt %d failed: %v", attempt+1, err)
	}
	return "", fmt.Errorf("service call failed after %d attempts: %w", r.attempts, lastErr)
}

// Error-text markers that mean the run cannot succeed no matter how often
// we retry.
var fatalErrorMarkers = []string{
	"InvalidApiKey",
	"Arrearage",
	"AccessDenied",
	"authentication_error",
	"permission_error",
	"insufficient_quota",
	"credit balance is too low",
}

func isFatalServiceError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range fatalErrorMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// --- Anthropic ---

type anthropicClient struct {
	client      anthropic.Client
	model       string
	temperature float64
}

func newAnthropicClient(apiKey, model string, temperature float64) *anthropicClient {
	return &anthropicClient{
		client:      anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		temperature: temperature,
	}
}

func (c *anthropicClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(maxTokens),
		Temperature: param.NewOpt(c.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("llm anthropic response size=%d tokens_in=%d tokens_out=%d",
				len(block.Text), message.Usage.InputTokens, message.Usage.OutputTokens)
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic response")
}

// --- OpenAI-compatible ---

// openAIClient speaks the OpenAI chat-completions wire format against a
// configurable base URL, which also covers the OpenAI-compatible vendor
// endpoints.
type openAIClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (c *openAIClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	reqBody := openAIRequest{
		Model:       c.model,
		Messages:    []openAIMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: c.temperature,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimSuffix(c.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := serviceHTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("service request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parsing service response: %w", err)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("service error (%s/%s): %s", parsed.Error.Type, parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in service response")
	}

	if parsed.Usage != nil {
		log.Printf("llm openai response size=%d tokens_in=%d tokens_out=%d",
			len(parsed.Choices[0].Message.Content), parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens)
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// --- Mock ---

// mockClient cycles through the score range deterministically so offline
// runs produce varied but reproducible output.
type mockClient struct {
	mu sync.Mutex
	n  int
}

func (m *mockClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	m.mu.Lock()
	m.n++
	n := m.n
	m.mu.Unlock()
	score := (n % 5) + 1
	return fmt.Sprintf("%d Mock response #%d: simulated reason matching prompt.", score, n), nil
}
