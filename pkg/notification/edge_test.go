package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"Lifeline/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignPayload(t *testing.T) {
	sig := SignPayload("secret", http.MethodPost, NotifyContactsPath, `{"alertId":"a-1"}`, "1700000000", "7")

	// 同参数确定性
	assert.Equal(t, sig, SignPayload("secret", http.MethodPost, NotifyContactsPath, `{"alertId":"a-1"}`, "1700000000", "7"))

	// 任一输入变化都改变签名
	assert.NotEqual(t, sig, SignPayload("other", http.MethodPost, NotifyContactsPath, `{"alertId":"a-1"}`, "1700000000", "7"))
	assert.NotEqual(t, sig, SignPayload("secret", http.MethodPost, NotifyContactsPath, `{"alertId":"a-2"}`, "1700000000", "7"))
	assert.NotEqual(t, sig, SignPayload("secret", http.MethodPost, NotifyContactsPath, `{"alertId":"a-1"}`, "1700000001", "7"))
	assert.NotEqual(t, sig, SignPayload("secret", http.MethodPost, NotifyContactsPath, `{"alertId":"a-1"}`, "1700000000", "8"))
}

func TestNotifyContacts(t *testing.T) {
	t.Run("success response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, NotifyContactsPath, r.URL.Path)
			assert.Equal(t, "7", r.Header.Get("X-User-ID"))
			assert.NotEmpty(t, r.Header.Get("Signature"))
			assert.NotEmpty(t, r.URL.Query().Get("timestamp"))

			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "a-1", req["alertId"])

			json.NewEncoder(w).Encode(map[string]any{"success": true, "contactsNotified": 3})
		}))
		defer srv.Close()

		e := NewEdgeFunction(EdgeFunctionConfig{BaseURL: srv.URL, SecretKey: "secret"})
		ok, n, err := e.NotifyContacts(context.Background(), "a-1", 7)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 3, n)
	})

	t.Run("unauthorized mapped to business code", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		e := NewEdgeFunction(EdgeFunctionConfig{BaseURL: srv.URL, SecretKey: "secret"})
		_, _, err := e.NotifyContacts(context.Background(), "a-1", 7)
		require.Error(t, err)
		assert.Equal(t, errors.CodeUnauthorized, errors.GetCode(err))
	})

	t.Run("forbidden mapped to business code", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		e := NewEdgeFunction(EdgeFunctionConfig{BaseURL: srv.URL, SecretKey: "secret"})
		_, _, err := e.NotifyContacts(context.Background(), "a-1", 7)
		require.Error(t, err)
		assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))
	})

	t.Run("server unreachable", func(t *testing.T) {
		e := NewEdgeFunction(EdgeFunctionConfig{BaseURL: "http://127.0.0.1:1", SecretKey: "secret"})
		_, _, err := e.NotifyContacts(context.Background(), "a-1", 7)
		assert.Error(t, err)
	})
}
