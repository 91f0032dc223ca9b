// Package port defines the interface for the chat agent backend.
// The ChatService depends on this interface, not on a concrete client,
// so the HTTP agent and the Gemini adapter are interchangeable.
package port

import (
	"context"

	chatdomain "github.com/careledger/careledger-go/internal/chat/domain"
)

// ChatAgentCaller sends one chat turn to the LLM agent.
type ChatAgentCaller interface {
	SendChat(ctx context.Context, req *chatdomain.ChatAgentRequest) (*chatdomain.ChatAgentResponse, error)
}
