package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erg0nix/omnitea/internal/chatlog"
	"github.com/erg0nix/omnitea/internal/core"
)

// ErrNoChoices reports a completion response that carried zero choices.
var ErrNoChoices = errors.New("no choices in response")

type OpenAIConfig struct {
	Endpoint    string
	APIKey      string
	Model       string
	HTTPTimeout time.Duration
}

// OpenAIProvider submits assembled chat logs to an OpenAI-compatible
// completion backend and extracts the single reply. No retries; the caller
// decides whether to surface or suppress a failure.
type OpenAIProvider struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	logger   *slog.Logger
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

func NewOpenAIProvider(cfg OpenAIConfig, logger *slog.Logger) *OpenAIProvider {
	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = 300 * time.Second
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-3.5-turbo"
	}

	return &OpenAIProvider{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		model:    model,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Complete serializes the log as an ordered request and returns the first
// choice's entry.
func (p *OpenAIProvider) Complete(ctx context.Context, log chatlog.Log) (chatlog.Entry, error) {
	endpointURL := p.endpoint + "/v1/chat/completions"

	payload := map[string]any{
		"model":    p.model,
		"messages": log.Entries(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return chatlog.Entry{}, fmt.Errorf("marshal completion request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(body))
	if err != nil {
		return chatlog.Entry{}, fmt.Errorf("build completion request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+p.apiKey)

	httpResp, err := p.client.Do(request)
	if err != nil {
		return chatlog.Entry{}, fmt.Errorf("completion request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(httpResp.Body)

		if len(bodyBytes) > 0 {
			return chatlog.Entry{}, fmt.Errorf("completion backend error: %s: %s",
				httpResp.Status, strings.TrimSpace(string(bodyBytes)))
		}

		return chatlog.Entry{}, fmt.Errorf("completion backend error: %s", httpResp.Status)
	}

	var responsePayload map[string]any
	if err := json.NewDecoder(httpResp.Body).Decode(&responsePayload); err != nil {
		return chatlog.Entry{}, fmt.Errorf("decode completion response: %w", err)
	}

	entry, err := parseCompletionPayload(responsePayload)
	if err != nil {
		return chatlog.Entry{}, err
	}

	if usage := parseUsage(responsePayload); usage != nil && p.logger != nil {
		p.logger.Debug("completion usage",
			"prompt_tokens", usage.PromptTokens,
			"completion_tokens", usage.CompletionTokens,
			"total_tokens", usage.TotalTokens)
	}

	return entry, nil
}

func parseCompletionPayload(payload map[string]any) (chatlog.Entry, error) {
	choices, ok := payload["choices"].([]any)
	if !ok || len(choices) == 0 {
		return chatlog.Entry{}, ErrNoChoices
	}

	choice, ok := choices[0].(map[string]any)
	if !ok {
		return chatlog.Entry{}, errors.New("malformed choice in response")
	}

	message, ok := choice["message"].(map[string]any)
	if !ok {
		return chatlog.Entry{}, errors.New("malformed message in response")
	}

	content, _ := message["content"].(string)

	role := core.RoleAssistant
	if name, ok := message["role"].(string); ok && name != "" {
		role = core.Role(name)
	}

	return chatlog.Entry{Role: role, Content: content}, nil
}

func parseUsage(response map[string]any) *Usage {
	usageMap, ok := response["usage"].(map[string]any)
	if !ok {
		return nil
	}

	return &Usage{
		PromptTokens:     intFromAny(usageMap["prompt_tokens"]),
		CompletionTokens: intFromAny(usageMap["completion_tokens"]),
		TotalTokens:      intFromAny(usageMap["total_tokens"]),
	}
}

// intFromAny coerces the numeric shapes a decoded JSON payload may carry
// into an int, defaulting to zero for anything else.
func intFromAny(value any) int {
	switch n := value.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}
