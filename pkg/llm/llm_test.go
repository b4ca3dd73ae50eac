package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"Lifeline/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProviderSelection(t *testing.T) {
	client, err := llm.New(llm.Config{})
	assert.NoError(t, err)
	assert.Nil(t, client, "empty provider disables the feature")

	_, err = llm.New(llm.Config{Provider: "watson"})
	assert.Error(t, err)

	client, err = llm.New(llm.Config{Provider: "ollama", Model: "llama3"})
	assert.NoError(t, err)
	assert.NotNil(t, client)
}

func TestOllamaClient_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req["model"])
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "medical unit en route"},
		})
	}))
	defer srv.Close()

	client := llm.NewOllamaClient(srv.URL, "llama3")
	reply, err := client.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "You are an emergency dispatch assistant."},
		{Role: "user", Content: "Draft a briefing."},
	})
	require.NoError(t, err)
	assert.Equal(t, "medical unit en route", reply)
}

func TestLMStudioClient_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "fire crews dispatched"}},
			},
		})
	}))
	defer srv.Close()

	client := llm.NewLMStudioClient(srv.URL, "", "local-model")
	reply, err := client.Chat(context.Background(), []llm.Message{
		{Role: "user", Content: "Summarize the alert."},
	})
	require.NoError(t, err)
	assert.Equal(t, "fire crews dispatched", reply)
}
