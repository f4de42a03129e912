package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JustMelih/GameVault/internal/observability"
)

const (
	defaultBaseURL = "https://api.openai.com/v1/"
	defaultModel   = "gpt-4o-mini"
)

const systemPrompt = `You extract search intent for a video game discovery engine.
Return ONLY a JSON object with exactly these keys:
{"include": [], "exclude": [], "titles": []}

- include: short lowercase concept tokens the user wants (genres, settings, themes, mechanics), at most 6.
- exclude: short lowercase concept tokens the user explicitly does NOT want (e.g. "no magic" -> "magic").
- titles: up to 2 canonical BASE GAME titles that best match the request, properly cased. No DLCs, remasters, definitive editions, bundles or collections.

The user may write in any language; always answer with English tokens. No prose, no code fences.`

// LLMConfig configures the chat-completions extractor.
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	ProjectID   string
	Model       string
	Temperature float64
	Retry       RetryConfig
}

// LLMExtractor asks an OpenAI-compatible chat-completions endpoint for an
// intent object.
type LLMExtractor struct {
	baseURL     string
	apiKey      string
	projectID   string
	model       string
	temperature float64
	retry       RetryConfig
	httpClient  *http.Client
	logger      *observability.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewLLMExtractor creates an extractor. A nil httpClient uses a default
// client; request deadlines come from the caller's context.
func NewLLMExtractor(cfg LLMConfig, httpClient *http.Client, logger *observability.Logger) *LLMExtractor {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Retry == (RetryConfig{}) {
		cfg.Retry = DefaultRetryConfig()
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = observability.Nop()
	}

	return &LLMExtractor{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/") + "/",
		apiKey:      cfg.APIKey,
		projectID:   cfg.ProjectID,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		retry:       cfg.Retry,
		httpClient:  httpClient,
		logger:      logger.WithComponent("llm_extractor"),
	}
}

// Extract implements Extractor.
func (e *LLMExtractor) Extract(ctx context.Context, query string) (Intent, error) {
	if strings.TrimSpace(e.apiKey) == "" {
		return Intent{}, ErrExtractorUnavailable
	}

	body, err := json.Marshal(chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: query},
		},
		Temperature: e.temperature,
	})
	if err != nil {
		return Intent{}, fmt.Errorf("marshal chat request: %w", err)
	}

	resp, err := e.retryWithBackoff(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
		if e.projectID != "" {
			req.Header.Set("OpenAI-Project", e.projectID)
		}
		return e.httpClient.Do(req)
	})
	if err != nil {
		return Intent{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Intent{}, fmt.Errorf("read chat response: %w", err)
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return Intent{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(chat.Choices) == 0 {
		return Intent{}, fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}

	parsed, err := parseIntentContent(chat.Choices[0].Message.Content)
	if err != nil {
		e.logger.Warn().Str("query", query).Err(err).Msg("Extractor returned unusable content")
		return Intent{}, err
	}

	e.logger.Debug().
		Str("query", query).
		Strs("include", parsed.Include).
		Strs("exclude", parsed.Exclude).
		Strs("titles", parsed.Titles).
		Msg("Intent extracted")

	return parsed, nil
}

// parseIntentContent decodes the assistant message, tolerating a surrounding
// markdown code fence.
func parseIntentContent(content string) (Intent, error) {
	content = stripCodeFence(content)
	if content == "" {
		return Intent{}, fmt.Errorf("%w: empty content", ErrMalformedResponse)
	}

	var out Intent
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return Intent{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out.Normalize(), nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.HasPrefix(strings.TrimSpace(s[:nl]), "{") {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
