package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/careledger/careledger-go/internal/chat/domain"
	"github.com/careledger/careledger-go/internal/chat/port"
	recondomain "github.com/careledger/careledger-go/internal/domain"

	"go.uber.org/zap"
)

// DisputeLister is the slice of the dispute service this strategy
// needs. Implemented by service.DisputeService.
type DisputeLister interface {
	List(ctx context.Context, userID string) ([]recondomain.Dispute, error)
}

// DisputeStrategy handles billing-dispute questions. It loads the
// user's existing disputes so the agent answers with real state instead
// of generic advice.
type DisputeStrategy struct {
	agentClient port.ChatAgentCaller
	disputes    DisputeLister
	logger      *zap.Logger
}

// NewDisputeStrategy creates the dispute chat strategy.
func NewDisputeStrategy(agentClient port.ChatAgentCaller, disputes DisputeLister, logger *zap.Logger) *DisputeStrategy {
	return &DisputeStrategy{
		agentClient: agentClient,
		disputes:    disputes,
		logger:      logger,
	}
}

// CanHandle accepts the "dispute" intent.
func (s *DisputeStrategy) CanHandle(intent string) bool {
	return intent == "dispute"
}

// Handle enriches the query with the user's dispute history and asks
// the agent. A failed history load degrades to the bare query.
func (s *DisputeStrategy) Handle(ctx context.Context, chatCtx *domain.ChatContext) (*domain.ChatResponse, error) {
	query := chatCtx.Query

	if disputes, err := s.disputes.List(ctx, chatCtx.UserID); err != nil {
		s.logger.Warn("dispute strategy: history load failed",
			zap.String("user_id", chatCtx.UserID),
			zap.Error(err),
		)
	} else if len(disputes) > 0 {
		query = fmt.Sprintf("%s\n\nUser's current disputes:\n%s", query, summarizeDisputes(disputes))
	}

	agentResp, err := s.agentClient.SendChat(ctx, &domain.ChatAgentRequest{
		Query:   query,
		UserID:  chatCtx.UserID,
		Context: "dispute",
	})
	if err != nil {
		return nil, err
	}

	return &domain.ChatResponse{Answer: agentResp.Answer, Context: "dispute"}, nil
}

func summarizeDisputes(disputes []recondomain.Dispute) string {
	var b strings.Builder
	for i, d := range disputes {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "- invoice %s: %s (%s)\n", d.InvoiceID, d.Reason, d.Status)
	}
	return b.String()
}
