package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/careledger/careledger-go/internal/handler"
	"github.com/careledger/careledger-go/internal/infra/cache"
	"github.com/careledger/careledger-go/internal/infra/observability"
	"github.com/careledger/careledger-go/internal/infra/resilience"
	"github.com/careledger/careledger-go/internal/infra/supabase"
	"github.com/careledger/careledger-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Fake Supabase PostgREST backend
// ============================================================

// fakePostgrest is a tiny in-memory PostgREST stand-in: it understands
// eq./neq. filters, applies PATCH updates and echoes POSTed rows back,
// which is all the client uses.
type fakePostgrest struct {
	mu     sync.Mutex
	tables map[string][]map[string]any
}

func newFakePostgrest() *fakePostgrest {
	return &fakePostgrest{tables: map[string][]map[string]any{}}
}

func (f *fakePostgrest) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")

		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.Method {
		case http.MethodGet:
			matched := []map[string]any{}
			for _, row := range f.tables[table] {
				if rowMatches(row, r.URL.Query()) {
					matched = append(matched, row)
				}
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(matched)

		case http.MethodPost:
			var row map[string]any
			if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.tables[table] = append(f.tables[table], row)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode([]map[string]any{row})

		case http.MethodPatch:
			var updates map[string]any
			if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			for _, row := range f.tables[table] {
				if rowMatches(row, r.URL.Query()) {
					for k, v := range updates {
						row[k] = v
					}
				}
			}
			w.WriteHeader(http.StatusNoContent)

		case http.MethodDelete:
			kept := f.tables[table][:0]
			for _, row := range f.tables[table] {
				if !rowMatches(row, r.URL.Query()) {
					kept = append(kept, row)
				}
			}
			f.tables[table] = kept
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

func rowMatches(row map[string]any, query map[string][]string) bool {
	for key, vals := range query {
		switch key {
		case "order", "limit", "offset", "select":
			continue
		}
		val := vals[0]
		switch {
		case strings.HasPrefix(val, "eq."):
			if fmt.Sprint(row[key]) != strings.TrimPrefix(val, "eq.") {
				return false
			}
		case strings.HasPrefix(val, "neq."):
			if fmt.Sprint(row[key]) == strings.TrimPrefix(val, "neq.") {
				return false
			}
		}
	}
	return true
}

// ============================================================
// Test harness
// ============================================================

func buildRouter(t *testing.T, supabaseURL string) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("integration")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxBackoff: 100 * time.Millisecond, MaxConcurrency: 10}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	store := supabase.NewClient(httpClient, supabaseURL, "anon-key", "service-key", cb, cfg, logger)

	reconSvc := service.NewReconService(store, cache.New[[]domain.VendorPreference](time.Minute), metrics, logger)
	authSvc := service.NewAuthService(store, "integration-secret", 15*time.Minute, time.Hour, logger)
	analyticsSvc := service.NewAnalyticsService(store, logger)
	paymentSvc := service.NewPaymentService(logger)

	return handler.NewRouter(handler.Deps{
		Recon:     reconSvc,
		Auth:      authSvc,
		Analytics: analyticsSvc,
		Payments:  paymentSvc,
		Metrics:   metrics,
		Logger:    logger,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// ============================================================
// Tests
// ============================================================

// TestIntegration_ReconciliationFlow walks the full path: register,
// login, create an invoice and a matching transaction, get a link
// suggestion, apply the review and verify both sides flipped.
func TestIntegration_ReconciliationFlow(t *testing.T) {
	backend := newFakePostgrest()
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	router := buildRouter(t, server.URL)

	// --- Register ---
	rec := doJSON(t, router, http.MethodPost, "/v1/auth/register", "", domain.RegisterRequest{
		Email:    "it@careledger.test",
		Name:     "Integration Test",
		Password: "longenough",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	// --- Login ---
	rec = doJSON(t, router, http.MethodPost, "/v1/auth/login", "", domain.LoginRequest{
		Email:    "it@careledger.test",
		Password: "longenough",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var login domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&login); err != nil {
		t.Fatal(err)
	}
	token := login.AccessToken

	// --- Create invoice ---
	rec = doJSON(t, router, http.MethodPost, "/v1/invoices", token, domain.CreateInvoiceRequest{
		Vendor: "Quest Diagnostics",
		Amount: 184.50,
		Date:   "2026-03-08",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create invoice: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var invoice domain.Invoice
	if err := json.NewDecoder(rec.Body).Decode(&invoice); err != nil {
		t.Fatal(err)
	}

	// --- Create matching transaction ---
	rec = doJSON(t, router, http.MethodPost, "/v1/transactions", token, domain.CreateTransactionRequest{
		Date:        "2026-03-10",
		Description: "QUEST DIAGNOSTICS 1234",
		Amount:      -184.50,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var tx domain.Transaction
	if err := json.NewDecoder(rec.Body).Decode(&tx); err != nil {
		t.Fatal(err)
	}
	if !tx.IsMedical {
		t.Error("expected classifier to flag a diagnostics lab as medical")
	}

	// --- Get suggestion ---
	rec = doJSON(t, router, http.MethodGet, "/v1/transactions/"+tx.ID+"/suggestion", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("suggestion: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var sug domain.Suggestion
	if err := json.NewDecoder(rec.Body).Decode(&sug); err != nil {
		t.Fatal(err)
	}
	if sug.Type != domain.SuggestLinkToInvoice {
		t.Fatalf("expected link_to_invoice, got %s (%s)", sug.Type, sug.Reason)
	}
	if sug.Invoice == nil || sug.Invoice.ID != invoice.ID {
		t.Fatalf("expected invoice %s attached, got %+v", invoice.ID, sug.Invoice)
	}

	// --- Apply the review ---
	rec = doJSON(t, router, http.MethodPost, "/v1/transactions/"+tx.ID+"/review", token, domain.ReviewRequest{
		Action:    domain.SuggestLinkToInvoice,
		InvoiceID: invoice.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("review: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var review domain.ReviewResponse
	if err := json.NewDecoder(rec.Body).Decode(&review); err != nil {
		t.Fatal(err)
	}
	if review.Transaction.Status != domain.ReconLinked {
		t.Errorf("expected transaction linked, got %s", review.Transaction.Status)
	}
	if review.Transaction.LinkedInvoiceID != invoice.ID {
		t.Errorf("expected linked_invoice_id %s, got %s", invoice.ID, review.Transaction.LinkedInvoiceID)
	}

	// --- Linked invoice no longer a candidate ---
	rec = doJSON(t, router, http.MethodGet, "/v1/invoices", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list invoices: expected 200, got %d", rec.Code)
	}
	var invoices struct {
		Invoices []domain.Invoice `json:"invoices"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&invoices); err != nil {
		t.Fatal(err)
	}
	if len(invoices.Invoices) != 0 {
		t.Errorf("expected no open invoices after linking, got %d", len(invoices.Invoices))
	}
}

// TestIntegration_ReviewLearnsPreference verifies remember=true creates
// a vendor preference that drives the next suggestion.
func TestIntegration_ReviewLearnsPreference(t *testing.T) {
	backend := newFakePostgrest()
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	router := buildRouter(t, server.URL)

	doJSON(t, router, http.MethodPost, "/v1/auth/register", "", domain.RegisterRequest{
		Email: "learn@careledger.test", Name: "L", Password: "longenough",
	})
	rec := doJSON(t, router, http.MethodPost, "/v1/auth/login", "", domain.LoginRequest{
		Email: "learn@careledger.test", Password: "longenough",
	})
	var login domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&login); err != nil {
		t.Fatal(err)
	}
	token := login.AccessToken

	// A vendor the static classifier does not know.
	rec = doJSON(t, router, http.MethodPost, "/v1/transactions", token, domain.CreateTransactionRequest{
		Date: "2026-04-01", Vendor: "Lakeside Acupuncture", Amount: -95,
	})
	var tx domain.Transaction
	if err := json.NewDecoder(rec.Body).Decode(&tx); err != nil {
		t.Fatal(err)
	}

	// First suggestion: nothing matches, engine admits uncertainty.
	rec = doJSON(t, router, http.MethodGet, "/v1/transactions/"+tx.ID+"/suggestion", token, nil)
	var sug domain.Suggestion
	if err := json.NewDecoder(rec.Body).Decode(&sug); err != nil {
		t.Fatal(err)
	}
	if sug.Type != domain.SuggestSkip {
		t.Fatalf("expected skip for unknown vendor, got %s", sug.Type)
	}

	// Review: medical, and remember the vendor.
	rec = doJSON(t, router, http.MethodPost, "/v1/transactions/"+tx.ID+"/review", token, domain.ReviewRequest{
		Action:   domain.SuggestMarkMedical,
		Remember: true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("review: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var review domain.ReviewResponse
	if err := json.NewDecoder(rec.Body).Decode(&review); err != nil {
		t.Fatal(err)
	}
	if !review.Learned {
		t.Fatal("expected learned=true")
	}

	// A second transaction from the same vendor now hits the preference.
	rec = doJSON(t, router, http.MethodPost, "/v1/transactions", token, domain.CreateTransactionRequest{
		Date: "2026-04-15", Vendor: "Lakeside Acupuncture", Amount: -95,
	})
	var tx2 domain.Transaction
	if err := json.NewDecoder(rec.Body).Decode(&tx2); err != nil {
		t.Fatal(err)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/transactions/"+tx2.ID+"/suggestion", token, nil)
	if err := json.NewDecoder(rec.Body).Decode(&sug); err != nil {
		t.Fatal(err)
	}
	if sug.Type != domain.SuggestMarkMedical {
		t.Fatalf("expected mark_medical from learned preference, got %s", sug.Type)
	}
	if sug.Confidence != 0.95 {
		t.Errorf("expected preference confidence 0.95, got %f", sug.Confidence)
	}
}

// TestIntegration_BackendDown verifies a dead backend degrades to a 5xx
// instead of hanging or panicking.
func TestIntegration_BackendDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	router := buildRouter(t, server.URL)

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/login", "", domain.LoginRequest{
		Email: "who@careledger.test", Password: "longenough",
	})
	if rec.Code < 500 {
		t.Errorf("expected 5xx when the backend is down, got %d", rec.Code)
	}
}
