package service

import (
	"context"
	"fmt"

	"github.com/careledger/careledger-go/internal/chat/domain"
	"github.com/careledger/careledger-go/internal/chat/port"
	"github.com/careledger/careledger-go/internal/recon"
)

// EligibilityStrategy handles "is X HSA-eligible" questions. When the
// vendor classifier recognizes the text it answers locally with no
// agent round-trip; otherwise the agent gets the question with the
// classifier's verdict attached.
type EligibilityStrategy struct {
	agentClient port.ChatAgentCaller
}

// NewEligibilityStrategy creates the eligibility chat strategy.
func NewEligibilityStrategy(agentClient port.ChatAgentCaller) *EligibilityStrategy {
	return &EligibilityStrategy{agentClient: agentClient}
}

// CanHandle accepts the "eligibility" intent.
func (s *EligibilityStrategy) CanHandle(intent string) bool {
	return intent == "eligibility"
}

// Handle answers eligibility questions.
func (s *EligibilityStrategy) Handle(ctx context.Context, chatCtx *domain.ChatContext) (*domain.ChatResponse, error) {
	if recon.IsMedicalVendor(chatCtx.Query) {
		return &domain.ChatResponse{
			Answer: "That looks like a healthcare expense, which is typically HSA-eligible. " +
				"Keep the itemized receipt; your HSA administrator has the final say.",
			Context: "eligibility",
		}, nil
	}

	agentResp, err := s.agentClient.SendChat(ctx, &domain.ChatAgentRequest{
		Query:   fmt.Sprintf("%s\n\n(The vendor keyword classifier did not recognize this as medical.)", chatCtx.Query),
		UserID:  chatCtx.UserID,
		Context: "eligibility",
	})
	if err != nil {
		return nil, err
	}

	return &domain.ChatResponse{Answer: agentResp.Answer, Context: "eligibility"}, nil
}
