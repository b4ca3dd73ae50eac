package llm

import (
	"context"
	"fmt"
	"strings"
)

// Message 一轮对话消息
type Message struct {
	Role    string `json:"role"` // system | user | assistant
	Content string `json:"content"`
}

// LLMClient represents a generic interface for interacting with LLMs
type LLMClient interface {
	// Chat sends the conversation and returns the assistant reply
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Config 按提供商选择客户端
type Config struct {
	Provider string // ollama | lmstudio | openai
	APIKey   string
	BaseURL  string
	Model    string
}

// New 构造 LLM 客户端；Provider 为空时返回 nil（功能禁用）
func New(cfg Config) (LLMClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "":
		return nil, nil
	case "ollama":
		return NewOllamaClient(cfg.BaseURL, cfg.Model), nil
	case "lmstudio":
		return NewLMStudioClient(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	}
	return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
}
