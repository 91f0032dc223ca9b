// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/careledger/careledger-go/internal/domain"
)

// ExpenseStore defines all data operations for transactions, invoices
// and vendor preferences. Implemented by the Supabase adapter.
type ExpenseStore interface {
	// Transactions
	GetTransaction(ctx context.Context, userID, txID string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, userID string, status domain.ReconStatus, limit, offset int) ([]domain.Transaction, error)
	CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, txID string, updates map[string]any) error

	// Invoices
	GetInvoice(ctx context.Context, userID, invoiceID string) (*domain.Invoice, error)
	ListOpenInvoices(ctx context.Context, userID string) ([]domain.Invoice, error)
	CreateInvoice(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error)
	MarkInvoiceLinked(ctx context.Context, userID, invoiceID string) error

	// Vendor preferences
	ListPreferences(ctx context.Context, userID string) ([]domain.VendorPreference, error)
	UpsertPreference(ctx context.Context, pref *domain.VendorPreference) (*domain.VendorPreference, error)
	DeletePreference(ctx context.Context, userID, prefID string) error
}

// AnalyticsStore feeds the spending-summary read side.
type AnalyticsStore interface {
	ListTransactionsInRange(ctx context.Context, userID string, from, to time.Time) ([]domain.Transaction, error)
}

// DisputeStore defines data operations for billing disputes.
type DisputeStore interface {
	CreateDispute(ctx context.Context, d *domain.Dispute) (*domain.Dispute, error)
	GetDispute(ctx context.Context, userID, disputeID string) (*domain.Dispute, error)
	ListDisputes(ctx context.Context, userID string) ([]domain.Dispute, error)
	UpdateDispute(ctx context.Context, userID, disputeID string, updates map[string]any) error
}

// ProviderStore defines data operations for healthcare providers.
type ProviderStore interface {
	ListProviders(ctx context.Context) ([]domain.Provider, error)
	UpsertProvider(ctx context.Context, rec *domain.NPIRecord) error
}

// AuthStore defines all data operations for the authentication system.
type AuthStore interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	CreateUserWithCredentials(ctx context.Context, req *domain.RegisterRequest, passwordHash string) (string, error)

	GetCredentials(ctx context.Context, userID string) (*domain.AuthCredential, error)
	UpdateCredentials(ctx context.Context, userID string, updates map[string]any) error

	StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.AuthRefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

// NPIRegistry queries the CMS provider registry.
type NPIRegistry interface {
	Lookup(ctx context.Context, npi string) (*domain.NPIRecord, error)
	SearchOrganization(ctx context.Context, name, state string) ([]domain.NPIRecord, error)
}

// EmailSender delivers transactional mail.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) (string, error)
}

// LetterDrafter produces dispute letter text. Implemented by the LLM
// agent adapter; a template fallback is used when no agent is configured.
type LetterDrafter interface {
	DraftDisputeLetter(ctx context.Context, invoice *domain.Invoice, reason string) (string, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
