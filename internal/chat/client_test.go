package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstreamRequest struct {
	SystemInstruction struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"systemInstruction"`
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

// newUpstream starts a fake generateContent endpoint and a Client pointed at it.
func newUpstream(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(context.Background(), Options{
		HTTPClient:     server.Client(),
		Endpoint:       server.URL + "/",
		Timeout:        5 * time.Second,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func TestNewRequiresCredential(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestReplyTranslatesConversation(t *testing.T) {
	var got upstreamRequest
	var path string

	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[{"text":"  Start "},{"text":"with the hardest task.  "}]}}]}`)
	})

	reply, err := client.Reply(context.Background(), []Message{
		{Role: "user", Content: "What should I do first?"},
		{Role: "assistant", Content: "Tell me your tasks."},
		{Role: "user", Content: "Taxes, laundry."},
	})
	require.NoError(t, err)
	assert.Equal(t, "Start with the hardest task.", reply)

	assert.True(t, strings.HasSuffix(path, "models/gemini-2.0-flash:generateContent"), "path %s", path)
	require.Len(t, got.Contents, 3)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "model", got.Contents[1].Role)
	assert.Equal(t, "user", got.Contents[2].Role)
	assert.Equal(t, "Taxes, laundry.", got.Contents[2].Parts[0].Text)
	require.Len(t, got.SystemInstruction.Parts, 1)
	assert.Equal(t, SystemInstruction, got.SystemInstruction.Parts[0].Text)
	assert.InDelta(t, Temperature, got.GenerationConfig.Temperature, 1e-9)
}

func TestReplyEmptyConversationMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, `{}`)
	})

	_, err := client.Reply(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoMessages)
	assert.Zero(t, calls.Load())
}

func TestReplyEmptyText(t *testing.T) {
	bodies := map[string]string{
		"no candidates": `{"candidates":[]}`,
		"no parts":      `{"candidates":[{"content":{"parts":[]}}]}`,
		"whitespace":    `{"candidates":[{"content":{"parts":[{"text":"  \n "}]}}]}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, body)
			})
			_, err := client.Reply(context.Background(), []Message{{Role: "user", Content: "hi"}})
			assert.ErrorIs(t, err, ErrEmptyReply)
		})
	}
}

func TestReplyForwardsUpstreamError(t *testing.T) {
	var calls atomic.Int32
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid.","status":"INVALID_ARGUMENT"}}`)
	})

	_, err := client.Reply(context.Background(), []Message{{Role: "user", Content: "hi"}})

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, upstream.StatusCode)
	assert.Equal(t, "API key not valid.", upstream.Message)
	assert.EqualValues(t, 1, calls.Load(), "client errors must not be retried")
}

func TestReplyRetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, `{"error":{"code":503,"message":"overloaded"}}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	})

	reply, err := client.Reply(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.EqualValues(t, 3, calls.Load())
}

func TestReplyGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota"}}`)
	})

	_, err := client.Reply(context.Background(), []Message{{Role: "user", Content: "hi"}})

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream), "got %v", err)
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	assert.EqualValues(t, 3, calls.Load())
}
