package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/careledger/careledger-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

// NPIClient queries the CMS National Provider Identifier registry.
// The registry rate-limits aggressively, so a bulkhead caps in-flight
// requests on top of the usual retry and circuit breaker.
type NPIClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
}

// NewNPIClient creates a new NPIClient.
func NewNPIClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *NPIClient {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &NPIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(maxConcurrency),
	}
}

// npiResponse mirrors the registry's v2.1 JSON shape, trimmed to the
// fields we read.
type npiResponse struct {
	ResultCount int `json:"result_count"`
	Results     []struct {
		Number string `json:"number"`
		Basic  struct {
			OrganizationName string `json:"organization_name"`
			FirstName        string `json:"first_name"`
			LastName         string `json:"last_name"`
		} `json:"basic"`
		Addresses []struct {
			City           string `json:"city"`
			State          string `json:"state"`
			AddressPurpose string `json:"address_purpose"`
		} `json:"addresses"`
		Taxonomies []struct {
			Desc    string `json:"desc"`
			Primary bool   `json:"primary"`
		} `json:"taxonomies"`
	} `json:"results"`
}

// Lookup fetches one registry record by NPI number, with retry, circuit
// breaker and tracing.
func (c *NPIClient) Lookup(ctx context.Context, npi string) (*domain.NPIRecord, error) {
	ctx, span := tracer.Start(ctx, "NPIClient.Lookup")
	defer span.End()
	span.SetAttributes(attribute.String("provider.npi", npi))

	query := url.Values{}
	query.Set("version", "2.1")
	query.Set("number", npi)

	records, err := c.search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &domain.ErrNotFound{Resource: "npi_record", ID: npi}
	}
	return &records[0], nil
}

// SearchOrganization searches the registry by organization name, used to
// enrich vendors the classifier cannot place.
func (c *NPIClient) SearchOrganization(ctx context.Context, name, state string) ([]domain.NPIRecord, error) {
	ctx, span := tracer.Start(ctx, "NPIClient.SearchOrganization")
	defer span.End()
	span.SetAttributes(attribute.String("provider.name", name))

	query := url.Values{}
	query.Set("version", "2.1")
	query.Set("organization_name", name)
	query.Set("limit", "10")
	if state != "" {
		query.Set("state", state)
	}

	return c.search(ctx, query)
}

func (c *NPIClient) search(ctx context.Context, query url.Values) ([]domain.NPIRecord, error) {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.bulkhead.Release()

	var out npiResponse

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			reqURL := fmt.Sprintf("%s/api/?%s", c.baseURL, query.Encode())
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return err
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("npi registry returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&out)
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "npi_registry", Err: err}
	}

	records := make([]domain.NPIRecord, 0, len(out.Results))
	for _, r := range out.Results {
		rec := domain.NPIRecord{NPI: r.Number}

		rec.Name = r.Basic.OrganizationName
		if rec.Name == "" {
			rec.Name = r.Basic.FirstName + " " + r.Basic.LastName
		}

		for _, t := range r.Taxonomies {
			if t.Primary {
				rec.Taxonomy = t.Desc
				break
			}
		}
		for _, a := range r.Addresses {
			if a.AddressPurpose == "LOCATION" {
				rec.City = a.City
				rec.State = a.State
				break
			}
		}

		records = append(records, rec)
	}
	return records, nil
}
