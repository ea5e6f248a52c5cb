package auth

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/caretap/caretap_backend/config"
	"github.com/caretap/caretap_backend/internal/store"
	"github.com/caretap/caretap_backend/internal/store/memory"
	pasetotoken "github.com/caretap/caretap_backend/pkg/paseto"
)

func newService(t *testing.T) (Service, *memory.Memory, *pasetotoken.Manager) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	keys := pasetotoken.NewLocalKeys()
	mgr, err := pasetotoken.New(pasetotoken.Config{
		Mode:     pasetotoken.ModeLocal,
		Issuer:   "caretap-test",
		Audience: "caretap-test",
	}, keys)
	if err != nil {
		t.Fatalf("paseto manager: %v", err)
	}

	cfg := &config.Config{}
	cfg.Authentication.SessionTTLMinutes = 60

	db := memory.New()
	return New(db, rdb, mgr, cfg), db, mgr
}

func TestRegister(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()

	u, tokens, err := svc.Register(ctx, RegisterRequest{
		Name:     "Sara Ahmadi",
		Email:    "Sara@Example.com",
		Phone:    "+14155550123",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != store.RolePatient {
		t.Errorf("Role = %q, want patient", u.Role)
	}
	if u.Email != "sara@example.com" {
		t.Errorf("Email = %q, want lowercased", u.Email)
	}
	if u.Phone != "+14155550123" {
		t.Errorf("Phone = %q, want E.164", u.Phone)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Error("expected both tokens issued")
	}

	stored, err := db.GetUserByEmail(ctx, "sara@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.PasswordHash == "correct horse battery" || stored.PasswordHash == "" {
		t.Error("password stored unprotected")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  RegisterRequest
		want error
	}{
		{"bad email", RegisterRequest{Email: "not-an-email", Password: "long enough pw"}, ErrInvalidEmail},
		{"short password", RegisterRequest{Email: "a@b.example", Password: "short"}, ErrPasswordTooShort},
		{"bad phone", RegisterRequest{Email: "a@b.example", Password: "long enough pw", Phone: "123"}, ErrInvalidPhone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	req := RegisterRequest{Name: "Sara", Email: "sara@example.com", Password: "long enough pw"}
	if _, _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, _, err := svc.Register(ctx, req)
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("second register err = %v, want ErrEmailExists", err)
	}
}

func TestLoginAndSession(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	u, _, err := svc.Register(ctx, RegisterRequest{
		Name: "Sara", Email: "sara@example.com", Password: "long enough pw",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, LoginRequest{Email: "sara@example.com", Password: "wrong password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "long enough pw"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email err = %v, want ErrInvalidCredentials", err)
	}

	tokens, err := svc.Login(ctx, LoginRequest{Email: "SARA@example.com", Password: "long enough pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.ID == uuid.Nil {
		t.Fatal("registered user has no id")
	}

	refreshed, err := svc.RefreshTokens(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken != tokens.RefreshToken {
		t.Error("refresh token changed on refresh")
	}
	if refreshed.AccessToken == "" {
		t.Error("no new access token issued")
	}

	// Access tokens are not refresh tokens.
	if _, err := svc.RefreshTokens(ctx, tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh with access token err = %v, want ErrInvalidToken", err)
	}
}

func TestLogout_EndsSession(t *testing.T) {
	svc, _, mgr := newService(t)
	ctx := context.Background()

	u, tokens, err := svc.Register(ctx, RegisterRequest{
		Name: "Sara", Email: "sara@example.com", Password: "long enough pw",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	claims, err := mgr.Verify(tokens.RefreshToken)
	if err != nil {
		t.Fatalf("verify refresh token: %v", err)
	}
	if claims.SessionID == nil {
		t.Fatal("refresh token carries no session id")
	}

	uid, err := svc.SessionUserID(ctx, *claims.SessionID)
	if err != nil {
		t.Fatalf("session lookup: %v", err)
	}
	if uid != u.ID {
		t.Errorf("session user = %s, want %s", uid, u.ID)
	}

	if err := svc.Logout(ctx, *claims.SessionID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := svc.SessionUserID(ctx, *claims.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("session after logout err = %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.RefreshTokens(ctx, tokens.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("refresh after logout err = %v, want ErrSessionNotFound", err)
	}

	// Logging out twice is harmless.
	if err := svc.Logout(ctx, *claims.SessionID); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}
