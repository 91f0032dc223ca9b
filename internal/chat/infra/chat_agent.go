// Package infra contains the concrete chat agent adapters: an HTTP
// client for a sidecar agent service and a Gemini-backed adapter for
// deployments without one.
package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	chatdomain "github.com/careledger/careledger-go/internal/chat/domain"
	"github.com/careledger/careledger-go/internal/domain"
	"github.com/careledger/careledger-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("chat/infra")

// ChatAgentClient calls the agent sidecar over HTTP (POST /v1/chat).
type ChatAgentClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger
}

// NewChatAgentClient creates the HTTP chat agent client.
func NewChatAgentClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *ChatAgentClient {
	return &ChatAgentClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		logger:     logger,
	}
}

// SendChat posts one chat turn to the agent with retry, circuit breaker
// and tracing.
func (c *ChatAgentClient) SendChat(ctx context.Context, req *chatdomain.ChatAgentRequest) (*chatdomain.ChatAgentResponse, error) {
	ctx, span := tracer.Start(ctx, "ChatAgentClient.SendChat")
	defer span.End()

	var out chatdomain.ChatAgentResponse

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			payload, err := json.Marshal(req)
			if err != nil {
				return err
			}

			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat", bytes.NewReader(payload))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("chat agent returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&out)
		})
	})
	if err != nil {
		c.logger.Error("chat agent call failed", zap.Error(err))
		return nil, &domain.ErrExternalService{Service: "chat_agent", Err: err}
	}

	return &out, nil
}
