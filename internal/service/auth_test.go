package service_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/careledger/careledger-go/internal/service"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// --- Mocks ---

type mockAuthStore struct {
	user *domain.User
	cred *domain.AuthCredential

	refreshToken *domain.AuthRefreshToken

	createdUserID string
	storedHashes  []string
	revokedHashes []string
	revokedAll    bool
}

func (m *mockAuthStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	if m.user != nil && m.user.Email == email {
		cp := *m.user
		return &cp, nil
	}
	return nil, nil
}

func (m *mockAuthStore) GetUserByID(_ context.Context, userID string) (*domain.User, error) {
	if m.user != nil && m.user.ID == userID {
		cp := *m.user
		return &cp, nil
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
}

func (m *mockAuthStore) CreateUserWithCredentials(_ context.Context, _ *domain.RegisterRequest, passwordHash string) (string, error) {
	m.createdUserID = "user-new"
	m.storedHashes = append(m.storedHashes, passwordHash)
	return m.createdUserID, nil
}

func (m *mockAuthStore) GetCredentials(_ context.Context, userID string) (*domain.AuthCredential, error) {
	if m.cred != nil && m.cred.UserID == userID {
		cp := *m.cred
		return &cp, nil
	}
	return nil, &domain.ErrNotFound{Resource: "credentials", ID: userID}
}

func (m *mockAuthStore) UpdateCredentials(_ context.Context, _ string, _ map[string]any) error {
	return nil
}

func (m *mockAuthStore) StoreRefreshToken(_ context.Context, _, tokenHash string, _ time.Time) error {
	m.storedHashes = append(m.storedHashes, tokenHash)
	return nil
}

func (m *mockAuthStore) GetRefreshToken(_ context.Context, tokenHash string) (*domain.AuthRefreshToken, error) {
	if m.refreshToken != nil && m.refreshToken.TokenHash == tokenHash {
		cp := *m.refreshToken
		return &cp, nil
	}
	return nil, nil
}

func (m *mockAuthStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	m.revokedHashes = append(m.revokedHashes, tokenHash)
	return nil
}

func (m *mockAuthStore) RevokeAllRefreshTokens(_ context.Context, _ string) error {
	m.revokedAll = true
	return nil
}

func newAuthService(store *mockAuthStore) *service.AuthService {
	return service.NewAuthService(store, "test-secret", 15*time.Minute, 7*24*time.Hour, zap.NewNop())
}

// --- Tests ---

func TestRegister_Validation(t *testing.T) {
	svc := newAuthService(&mockAuthStore{})

	tests := []struct {
		name string
		req  domain.RegisterRequest
	}{
		{"missing email", domain.RegisterRequest{Password: "longenough"}},
		{"bad email", domain.RegisterRequest{Email: "not-an-email", Password: "longenough"}},
		{"short password", domain.RegisterRequest{Email: "a@b.com", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), &tt.req)
			var vErr *domain.ErrValidation
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRegister_EmailConflict(t *testing.T) {
	store := &mockAuthStore{
		user: &domain.User{ID: "user-1", Email: "taken@example.com"},
	}
	svc := newAuthService(store)

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email:    "Taken@Example.com", // case-insensitive match
		Password: "longenough",
	})

	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestRegister_Success(t *testing.T) {
	store := &mockAuthStore{}
	svc := newAuthService(store)

	resp, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email:    "new@example.com",
		Name:     "New User",
		Password: "longenough",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.UserID != "user-new" {
		t.Errorf("expected user-new, got %s", resp.UserID)
	}
	if len(store.storedHashes) != 1 || store.storedHashes[0] == "longenough" {
		t.Error("expected the password stored hashed, not in plain text")
	}
}

func TestLogin_And_ValidateAccessToken(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	store := &mockAuthStore{
		user: &domain.User{ID: "user-1", Email: "a@b.com", Name: "Alice"},
		cred: &domain.AuthCredential{UserID: "user-1", PasswordHash: string(hash)},
	}
	svc := newAuthService(store)

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "a@b.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if resp.UserName != "Alice" {
		t.Errorf("expected user name Alice, got %s", resp.UserName)
	}

	claims, err := svc.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if claims.Sub != "user-1" || claims.Email != "a@b.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	store := &mockAuthStore{
		user: &domain.User{ID: "user-1", Email: "a@b.com"},
		cred: &domain.AuthCredential{UserID: "user-1", PasswordHash: string(hash)},
	}
	svc := newAuthService(store)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "a@b.com",
		Password: "wrong",
	})

	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newAuthService(&mockAuthStore{})

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever1",
	})

	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	store := &mockAuthStore{
		user: &domain.User{ID: "user-1", Email: "a@b.com"},
		cred: &domain.AuthCredential{UserID: "user-1", PasswordHash: string(hash)},
	}
	svc := newAuthService(store)

	login, err := svc.Login(context.Background(), &domain.LoginRequest{Email: "a@b.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Wire the stored hash back as the lookup result, as the real store would.
	store.refreshToken = &domain.AuthRefreshToken{
		UserID:    "user-1",
		TokenHash: store.storedHashes[len(store.storedHashes)-1],
		ExpiresAt: time.Now().Add(time.Hour),
	}

	refreshed, err := svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Error("expected a new refresh token on rotation")
	}
	if len(store.revokedHashes) != 1 {
		t.Errorf("expected old token revoked, got %d revocations", len(store.revokedHashes))
	}
}

func TestRefresh_ExpiredToken(t *testing.T) {
	store := &mockAuthStore{
		refreshToken: &domain.AuthRefreshToken{
			UserID:    "user-1",
			TokenHash: "", // set below
			ExpiresAt: time.Now().Add(-time.Hour),
		},
	}
	svc := newAuthService(store)

	// Any raw token whose hash matches the stored row.
	raw := "deadbeef"
	store.refreshToken.TokenHash = sha256Hex(raw)

	_, err := svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: raw})

	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected unauthorized for expired token, got %v", err)
	}
	if len(store.revokedHashes) != 1 {
		t.Error("expected expired token to be revoked")
	}
}

func TestValidateAccessToken_RejectsGarbage(t *testing.T) {
	svc := newAuthService(&mockAuthStore{})

	for _, token := range []string{"", "not.a.jwt", "eyJhbGciOiJIUzI1NiJ9.e30.bad"} {
		_, err := svc.ValidateAccessToken(token)
		var unauthorized *domain.ErrUnauthorized
		if !errors.As(err, &unauthorized) {
			t.Errorf("token %q: expected unauthorized, got %v", token, err)
		}
	}
}

// sha256Hex mirrors the token hashing used by the service so the mock
// store can match raw tokens against stored rows.
func sha256Hex(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

func TestLogout_RevokesEverything(t *testing.T) {
	store := &mockAuthStore{}
	svc := newAuthService(store)

	if err := svc.Logout(context.Background(), "user-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !store.revokedAll {
		t.Error("expected all refresh tokens revoked")
	}
}
