package brevo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turo-backend/internal/infrastructure/mail"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient("key-1", "noreply@turo.test", "TURO")
	c.apiURL = srv.URL
	return c
}

func TestSend_PostsMessage(t *testing.T) {
	var got sendEmailReq
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "key-1", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	err := c.Send(context.Background(), mail.Message{To: "a@b.com", Subject: "s", HTML: "<p>h</p>", Text: "h"})
	require.NoError(t, err)
	assert.Equal(t, "noreply@turo.test", got.Sender.Email)
	assert.Equal(t, []contact{{Email: "a@b.com"}}, got.To)
	assert.Equal(t, "<p>h</p>", got.HTMLContent)
	assert.Equal(t, "h", got.TextContent)
}

func TestSend_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"unauthorized"}`))
	})

	err := c.Send(context.Background(), mail.Message{To: "a@b.com", Subject: "s", HTML: "h"})
	assert.ErrorContains(t, err, "status 401")
}

func TestSend_NotConfigured(t *testing.T) {
	c := NewClient("", "noreply@turo.test", "TURO")
	err := c.Send(context.Background(), mail.Message{To: "a@b.com", Subject: "s", HTML: "h"})
	assert.Error(t, err)
}
