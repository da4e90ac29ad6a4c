// Package chat relays dashboard conversations to the Gemini
// generative-language API.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	generativelanguage "google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	// SystemInstruction is sent with every conversation.
	SystemInstruction = "You are a concise and helpful productivity assistant inside a task dashboard."

	// Temperature is the fixed sampling temperature.
	Temperature = 0.7

	// DefaultModel is used when Options.Model is empty.
	DefaultModel = "gemini-2.0-flash"

	// roleModel is the upstream name for assistant turns.
	roleModel = "model"
	roleUser  = "user"

	// RoleAssistant marks a message written by the assistant.
	RoleAssistant = "assistant"
)

var (
	// ErrNotConfigured is returned when no API key is available.
	ErrNotConfigured = errors.New("missing GEMINI_API_KEY in environment variables")

	// ErrNoMessages is returned for an empty conversation.
	ErrNoMessages = errors.New("at least one message is required")

	// ErrEmptyReply is returned when the upstream answered with no text.
	ErrEmptyReply = errors.New("AI response was empty")
)

// UpstreamError carries a non-success response from the API.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options configures a Client.
type Options struct {
	APIKey string
	Model  string

	// Endpoint overrides the API base URL.
	Endpoint string

	// HTTPClient replaces the transport. When set, APIKey is not attached
	// by the library and the client is responsible for authentication.
	HTTPClient *http.Client

	// Timeout bounds one Reply call including retries. Zero means no limit
	// beyond the caller's context.
	Timeout time.Duration

	// MaxRetries is how many times a 429 or 503 is retried.
	MaxRetries int

	// InitialBackoff is the first retry delay.
	InitialBackoff time.Duration
}

// Client sends conversations to the generateContent endpoint.
type Client struct {
	svc            *generativelanguage.Service
	model          string
	timeout        time.Duration
	maxRetries     int
	initialBackoff time.Duration
}

// New creates a Client. It returns ErrNotConfigured when opts.APIKey is empty
// and no HTTPClient was supplied.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.APIKey == "" && opts.HTTPClient == nil {
		return nil, ErrNotConfigured
	}

	var clientOpts []option.ClientOption
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	} else {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	svc, err := generativelanguage.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create generative language service: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	initial := opts.InitialBackoff
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}

	return &Client{
		svc:            svc,
		model:          model,
		timeout:        opts.Timeout,
		maxRetries:     opts.MaxRetries,
		initialBackoff: initial,
	}, nil
}

// Reply sends the conversation and returns the assistant's answer.
func (c *Client) Reply(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := buildRequest(messages)

	var resp *generativelanguage.GenerateContentResponse
	err := backoff.RetryNotify(func() error {
		var callErr error
		resp, callErr = c.svc.Models.GenerateContent("models/"+c.model, req).Context(ctx).Do()
		if callErr == nil {
			return nil
		}
		if isRetryable(callErr) {
			return callErr
		}
		return backoff.Permanent(callErr)
	}, c.newBackoff(ctx), func(err error, wait time.Duration) {
		slog.Warn("Chat upstream busy, retrying", "model", c.model, "error", err, "wait", wait)
	})
	if err != nil {
		return "", toUpstreamError(err)
	}

	reply := extractReply(resp)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

func (c *Client) newBackoff(ctx context.Context) backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialBackoff
	bo.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxRetries)), ctx)
}

// buildRequest maps dashboard roles onto the upstream shape.
func buildRequest(messages []Message) *generativelanguage.GenerateContentRequest {
	contents := make([]*generativelanguage.Content, len(messages))
	for i, m := range messages {
		role := roleUser
		if m.Role == RoleAssistant {
			role = roleModel
		}
		contents[i] = &generativelanguage.Content{
			Role:  role,
			Parts: []*generativelanguage.Part{{Text: m.Content}},
		}
	}

	return &generativelanguage.GenerateContentRequest{
		SystemInstruction: &generativelanguage.Content{
			Parts: []*generativelanguage.Part{{Text: SystemInstruction}},
		},
		Contents: contents,
		GenerationConfig: &generativelanguage.GenerationConfig{
			Temperature: Temperature,
		},
	}
}

// extractReply joins the text parts of the first candidate.
func extractReply(resp *generativelanguage.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func isRetryable(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusTooManyRequests || apiErr.Code == http.StatusServiceUnavailable
}

// toUpstreamError converts API status errors; anything else passes through.
func toUpstreamError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	return &UpstreamError{StatusCode: apiErr.Code, Message: apiErr.Message}
}
