// Package llm is the client for the external generation service.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/Vaibhav2543/deep-researcher/config"
)

// OllamaClient calls an Ollama-style /api/generate endpoint. The call
// is bounded by the caller's context deadline, independent of any
// timeout on the underlying HTTP client.
type OllamaClient struct {
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
}

type generateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Stream      bool    `json:"stream"`
}

// generateResponse covers the field names different model servers use
// for their output text.
type generateResponse struct {
	Response string `json:"response"`
	Text     string `json:"text"`
	Content  string `json:"content"`
	Output   string `json:"output"`
	Result   string `json:"result"`
}

func NewOllamaClient(cfg config.GenerationConfig) *OllamaClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://127.0.0.1:11434/api/generate"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}
	return &OllamaClient{
		baseURL:   baseURL,
		model:     cfg.Model,
		maxTokens: maxTokens,
		// No client timeout: the context deadline is the ceiling.
		client: &http.Client{},
	}
}

// Generate submits the prompt and returns the cleaned completion text.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload := generateRequest{
		Model:       c.model,
		Prompt:      prompt,
		MaxTokens:   c.maxTokens,
		Temperature: 0,
		Stream:      false,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrService, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: failed to read response: %v", ErrService, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrService, resp.StatusCode)
	}

	var gen generateResponse
	if err := json.Unmarshal(body, &gen); err != nil {
		// Some servers answer with bare text instead of JSON.
		if cleaned := cleanText(string(body)); cleaned != "" {
			return cleaned, nil
		}
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	answer := cleanText(firstNonEmpty(gen.Response, gen.Text, gen.Content, gen.Output, gen.Result))
	if answer == "" {
		return "", fmt.Errorf("%w: empty completion", ErrMalformedResponse)
	}
	return answer, nil
}

func (c *OllamaClient) ModelName() string {
	return c.model
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// thinkBlock matches a reasoning-model chain-of-thought section,
// including its content.
var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// cleanText removes reasoning-model think blocks and NUL bytes,
// collapses whitespace within each line, and drops blank lines. Line
// breaks are kept so bulleted answers stay bulleted.
func cleanText(s string) string {
	s = thinkBlock.ReplaceAllString(s, "")
	// An unclosed block means the completion was cut off mid-thought;
	// nothing after the marker is answer text.
	if i := strings.Index(s, "<think>"); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "</think>", "")
	s = strings.ReplaceAll(s, "\x00", "")

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
