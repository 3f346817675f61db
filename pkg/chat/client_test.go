package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendSuccess(t *testing.T) {
	var gotBody sendRequest
	var gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		gotKey = r.Header.Get("X-Api-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(Reply{
			Message:   "Hello! We have three catamaran departures tomorrow.",
			SessionID: "s1",
			Language:  "en",
			Context:   json.RawMessage(`{"topic":"catamaran"}`),
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 5*time.Second)
	reply, err := c.Send(context.Background(), "Hi", "local-1")

	require.NoError(t, err)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "Hi", gotBody.Message)
	assert.Equal(t, "local-1", gotBody.SessionID)
	assert.Equal(t, "s1", reply.SessionID)
	assert.Equal(t, "en", reply.Language)
	assert.JSONEq(t, `{"topic":"catamaran"}`, string(reply.Context))
}

func TestClientSendNon2xx(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"bad request", http.StatusBadRequest},
		{"unauthorized", http.StatusUnauthorized},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "k", time.Second)
			_, err := c.Send(context.Background(), "Hi", "s")
			assert.Error(t, err)
		})
	}
}

func TestClientSendMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second)
	_, err := c.Send(context.Background(), "Hi", "s")
	assert.Error(t, err)
}

func TestClientSendTransportError(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, "k", time.Second)
	_, err := c.Send(context.Background(), "Hi", "s")
	assert.Error(t, err)
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		json.NewEncoder(w).Encode(Reply{Message: "ok"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "k", time.Second)
	_, err := c.Send(context.Background(), "Hi", "s")
	assert.NoError(t, err)
}
