package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/careledger/careledger-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// EmailClient sends transactional mail (dispute letters) through the
// mail provider's HTTP API.
type EmailClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	fromAddr   string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewEmailClient creates a new EmailClient.
func NewEmailClient(httpClient *http.Client, baseURL, apiKey, fromAddr string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *EmailClient {
	return &EmailClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		fromAddr:   fromAddr,
		cb:         cb,
		cfg:        cfg,
	}
}

type emailPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

type emailResponse struct {
	ID string `json:"id"`
}

// Send delivers a plain-text message and returns the provider's
// message id, with retry, circuit breaker and tracing.
func (c *EmailClient) Send(ctx context.Context, to, subject, body string) (string, error) {
	ctx, span := tracer.Start(ctx, "EmailClient.Send")
	defer span.End()
	span.SetAttributes(attribute.String("email.to", to))

	var out emailResponse

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			payload, err := json.Marshal(emailPayload{
				From:    c.fromAddr,
				To:      to,
				Subject: subject,
				Text:    body,
			})
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return fmt.Errorf("email API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&out)
		})
	})
	if err != nil {
		return "", &domain.ErrExternalService{Service: "email", Err: err}
	}

	return out.ID, nil
}
