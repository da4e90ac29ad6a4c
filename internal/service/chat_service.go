package service

import (
	"context"
	"log/slog"

	"github.com/mmynk/taskboard/internal/chat"
)

// Replier produces an assistant reply for a conversation.
type Replier interface {
	Reply(ctx context.Context, messages []chat.Message) (string, error)
}

// ChatService relays conversations to the configured model.
type ChatService struct {
	replier Replier
}

// NewChatService creates a ChatService. A nil replier means no API key was
// configured; every call then fails with chat.ErrNotConfigured.
func NewChatService(replier Replier) *ChatService {
	return &ChatService{replier: replier}
}

// Configured reports whether an upstream client is available.
func (s *ChatService) Configured() bool {
	return s.replier != nil
}

// Reply returns the assistant's answer to messages.
func (s *ChatService) Reply(ctx context.Context, messages []chat.Message) (string, error) {
	if s.replier == nil {
		return "", chat.ErrNotConfigured
	}
	if len(messages) == 0 {
		return "", invalid("At least one message is required.")
	}

	reply, err := s.replier.Reply(ctx, messages)
	if err != nil {
		slog.Warn("Chat request failed", "messages", len(messages), "error", err)
		return "", err
	}

	slog.Info("Chat reply generated", "messages", len(messages), "reply_len", len(reply))
	return reply, nil
}
