// Package service implements the ChatService.
//
// The service routes each message through a strategy chain: the first
// strategy that accepts the detected intent handles the message, and a
// default handler forwards everything else to the LLM agent. New
// contexts are added by registering another strategy.
package service

import (
	"context"
	"strings"

	"github.com/careledger/careledger-go/internal/chat/domain"
	"github.com/careledger/careledger-go/internal/chat/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var chatTracer = otel.Tracer("chat/service")

// ChatStrategy is the contract one conversation context implements.
type ChatStrategy interface {
	// CanHandle reports whether this strategy handles the given intent.
	CanHandle(intent string) bool

	// Handle processes the message within this strategy's context.
	Handle(ctx context.Context, chatCtx *domain.ChatContext) (*domain.ChatResponse, error)
}

// ChatService routes chat messages to context strategies.
type ChatService struct {
	agentClient port.ChatAgentCaller

	// strategies in registration order; the first match wins.
	strategies []ChatStrategy

	logger *zap.Logger
}

// NewChatService creates the ChatService with its strategies injected.
func NewChatService(agentClient port.ChatAgentCaller, strategies []ChatStrategy, logger *zap.Logger) *ChatService {
	return &ChatService{
		agentClient: agentClient,
		strategies:  strategies,
		logger:      logger,
	}
}

// ProcessMessage detects the intent, picks a strategy and returns the
// answer. Falls back to a direct agent call when no strategy matches.
func (s *ChatService) ProcessMessage(ctx context.Context, userID string, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.ProcessMessage")
	defer span.End()

	intent := detectIntent(req.Query)

	s.logger.Info("chat message received",
		zap.String("user_id", userID),
		zap.String("intent", intent),
		zap.Int("query_length", len(req.Query)),
	)

	chatCtx := &domain.ChatContext{
		UserID:         userID,
		Query:          req.Query,
		DetectedIntent: intent,
	}

	for _, strategy := range s.strategies {
		if strategy.CanHandle(intent) {
			s.logger.Debug("delegating to strategy", zap.String("intent", intent))
			return strategy.Handle(ctx, chatCtx)
		}
	}

	return s.defaultHandle(ctx, chatCtx)
}

// defaultHandle forwards the query straight to the agent.
func (s *ChatService) defaultHandle(ctx context.Context, chatCtx *domain.ChatContext) (*domain.ChatResponse, error) {
	agentResp, err := s.agentClient.SendChat(ctx, &domain.ChatAgentRequest{
		Query:   chatCtx.Query,
		UserID:  chatCtx.UserID,
		Context: "general",
	})
	if err != nil {
		s.logger.Error("agent call failed",
			zap.String("user_id", chatCtx.UserID),
			zap.Error(err),
		)
		return nil, err
	}

	return &domain.ChatResponse{Answer: agentResp.Answer, Context: "general"}, nil
}

// detectIntent classifies the query by keywords. Good enough for
// routing; the agent does the real language work.
func detectIntent(query string) string {
	lower := strings.ToLower(query)

	disputeKeywords := []string{
		"dispute", "overcharge", "overcharged", "billing error",
		"wrong charge", "double billed", "double charged", "incorrect bill",
	}
	for _, kw := range disputeKeywords {
		if strings.Contains(lower, kw) {
			return "dispute"
		}
	}

	eligibilityKeywords := []string{
		"hsa eligible", "hsa-eligible", "eligible", "qualify",
		"covered", "deductible expense", "can i use my hsa",
	}
	for _, kw := range eligibilityKeywords {
		if strings.Contains(lower, kw) {
			return "eligibility"
		}
	}

	return "general"
}
