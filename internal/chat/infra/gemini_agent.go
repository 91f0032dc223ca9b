package infra

import (
	"context"
	"fmt"

	chatdomain "github.com/careledger/careledger-go/internal/chat/domain"
	"github.com/careledger/careledger-go/internal/domain"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const geminiModel = "gemini-1.5-flash"

// GeminiAgent answers chat turns and drafts dispute letters directly
// against the Gemini API. Used when no agent sidecar is configured.
type GeminiAgent struct {
	client *genai.Client
	logger *zap.Logger
}

// NewGeminiAgent creates a Gemini-backed agent.
func NewGeminiAgent(ctx context.Context, apiKey string, logger *zap.Logger) (*GeminiAgent, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiAgent{client: client, logger: logger}, nil
}

// SendChat implements port.ChatAgentCaller.
func (g *GeminiAgent) SendChat(ctx context.Context, req *chatdomain.ChatAgentRequest) (*chatdomain.ChatAgentResponse, error) {
	ctx, span := tracer.Start(ctx, "GeminiAgent.SendChat")
	defer span.End()

	prompt := fmt.Sprintf(
		"You are a careful assistant for a medical expense tracker. "+
			"Context: %s. Answer concisely and never give medical or legal advice.\n\nUser: %s",
		req.Context, req.Query)

	resp, err := g.client.Models.GenerateContent(ctx, geminiModel, genai.Text(prompt), nil)
	if err != nil {
		g.logger.Error("gemini call failed", zap.Error(err))
		return nil, &domain.ErrExternalService{Service: "gemini", Err: err}
	}

	return &chatdomain.ChatAgentResponse{Answer: resp.Text()}, nil
}

// DraftDisputeLetter implements port.LetterDrafter.
func (g *GeminiAgent) DraftDisputeLetter(ctx context.Context, invoice *domain.Invoice, reason string) (string, error) {
	ctx, span := tracer.Start(ctx, "GeminiAgent.DraftDisputeLetter")
	defer span.End()

	prompt := fmt.Sprintf(
		"Draft a short, formal billing dispute letter.\n"+
			"Provider: %s\nAmount: $%.2f\nDate of service: %s\nReason: %s\n"+
			"Cite the Fair Credit Billing Act 30-day response window. "+
			"Plain text, no placeholders other than the sender's name.",
		invoice.Vendor, invoice.Amount, invoice.EffectiveDate().Format("January 2, 2006"), reason)

	resp, err := g.client.Models.GenerateContent(ctx, geminiModel, genai.Text(prompt), nil)
	if err != nil {
		return "", &domain.ErrExternalService{Service: "gemini", Err: err}
	}
	return resp.Text(), nil
}
