package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/google/uuid"
)

// ============================================================
// AuthStore implementation — users, credentials and refresh
// tokens via PostgREST
// ============================================================

// GetUserByEmail returns nil, nil when no user exists; auth lookups
// treat missing as a normal outcome, not an error.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByEmail")
	defer span.End()

	path := fmt.Sprintf("users?email=eq.%s&limit=1", url.QueryEscape(email))
	body, err := c.doRequest(ctx, "GET", path)
	if err != nil {
		return nil, err
	}
	if body == nil || string(body) == "[]" {
		return nil, nil
	}

	var rows []domain.User
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// GetUserByID fetches one user.
func (c *Client) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByID")
	defer span.End()

	path := fmt.Sprintf("users?id=eq.%s&limit=1", userID)
	body, err := c.doRequest(ctx, "GET", path)
	if err != nil {
		return nil, err
	}
	if body == nil || string(body) == "[]" {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}

	var rows []domain.User
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	return &rows[0], nil
}

// CreateUserWithCredentials creates the user row and its credential row.
func (c *Client) CreateUserWithCredentials(ctx context.Context, req *domain.RegisterRequest, passwordHash string) (string, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateUserWithCredentials")
	defer span.End()

	userID := uuid.New().String()

	userData := map[string]any{
		"id":         userID,
		"email":      req.Email,
		"name":       req.Name,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := c.doPost(ctx, "users", userData); err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	credData := map[string]any{
		"id":            uuid.New().String(),
		"user_id":       userID,
		"password_hash": passwordHash,
	}
	if _, err := c.doPost(ctx, "auth_credentials", credData); err != nil {
		return "", fmt.Errorf("create auth credentials: %w", err)
	}

	return userID, nil
}

// GetCredentials fetches the stored password hash for a user.
func (c *Client) GetCredentials(ctx context.Context, userID string) (*domain.AuthCredential, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCredentials")
	defer span.End()

	path := fmt.Sprintf("auth_credentials?user_id=eq.%s&limit=1", userID)
	body, err := c.doRequest(ctx, "GET", path)
	if err != nil {
		return nil, err
	}
	if body == nil || string(body) == "[]" {
		return nil, &domain.ErrNotFound{Resource: "credentials", ID: userID}
	}

	var rows []domain.AuthCredential
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode auth_credentials: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "credentials", ID: userID}
	}
	return &rows[0], nil
}

// UpdateCredentials patches credential fields (e.g. last_login_at).
func (c *Client) UpdateCredentials(ctx context.Context, userID string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCredentials")
	defer span.End()

	path := fmt.Sprintf("auth_credentials?user_id=eq.%s", userID)
	return c.doPatch(ctx, path, updates)
}

// --- Refresh tokens ---

func (c *Client) StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	ctx, span := tracer.Start(ctx, "Supabase.StoreRefreshToken")
	defer span.End()

	data := map[string]any{
		"id":         uuid.New().String(),
		"user_id":    userID,
		"token_hash": tokenHash,
		"expires_at": expiresAt.Format(time.RFC3339),
		"revoked":    false,
	}

	_, err := c.doPost(ctx, "auth_refresh_tokens", data)
	return err
}

func (c *Client) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.AuthRefreshToken, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRefreshToken")
	defer span.End()

	path := fmt.Sprintf("auth_refresh_tokens?token_hash=eq.%s&revoked=eq.false&limit=1", tokenHash)
	body, err := c.doRequest(ctx, "GET", path)
	if err != nil {
		return nil, err
	}
	if body == nil || string(body) == "[]" {
		return nil, nil
	}

	var rows []domain.AuthRefreshToken
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode auth_refresh_tokens: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (c *Client) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeRefreshToken")
	defer span.End()

	path := fmt.Sprintf("auth_refresh_tokens?token_hash=eq.%s", tokenHash)
	return c.doPatch(ctx, path, map[string]any{"revoked": true})
}

func (c *Client) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeAllRefreshTokens")
	defer span.End()

	path := fmt.Sprintf("auth_refresh_tokens?user_id=eq.%s&revoked=eq.false", userID)
	return c.doPatch(ctx, path, map[string]any{"revoked": true})
}
