package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// LMStudioClient implements the LLMClient interface for LM Studio
// (OpenAI-compatible local server)
type LMStudioClient struct {
	baseURL string
	apiKey  string
	model   string
	logger  *logrus.Logger
	cli     *http.Client
}

// NewLMStudioClient creates a new LM Studio client
func NewLMStudioClient(baseURL, apiKey, model string) *LMStudioClient {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:1234"
	}
	return &LMStudioClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		logger:  logrus.New(),
		cli:     http.DefaultClient,
	}
}

type lmsChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type lmsChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Chat sends the conversation to LM Studio's /v1/chat/completions endpoint
func (h *LMStudioClient) Chat(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(lmsChatRequest{Model: h.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.cli.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lmstudio status %d", resp.StatusCode)
	}
	var response lmsChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("lmstudio returned no choices")
	}
	h.logger.Debugf("lmstudio reply: %d chars", len(response.Choices[0].Message.Content))
	return response.Choices[0].Message.Content, nil
}
