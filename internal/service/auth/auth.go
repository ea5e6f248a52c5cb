// Package auth covers patient registration, credential login and the
// redis-backed session lifecycle behind PASETO tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/redis/go-redis/v9"

	"github.com/caretap/caretap_backend/config"
	"github.com/caretap/caretap_backend/internal/store"
	pasetotoken "github.com/caretap/caretap_backend/pkg/paseto"
	"github.com/caretap/caretap_backend/pkg/util/password"
)

// redisKeySession returns the Redis key for a session.
func redisKeySession(sessionID string) string { return "session:" + sessionID }

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type RegisterRequest struct {
	Name     string
	Email    string
	Phone    string // optional; any format phonenumbers can parse
	Password string
}

type LoginRequest struct {
	Email    string
	Password string
}

type AuthTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds until access token expires
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Register self-enrolls a patient. Doctors are provisioned by the
	// operator through the CLI, never through this path.
	Register(ctx context.Context, req RegisterRequest) (*store.User, *AuthTokens, error)
	Login(ctx context.Context, req LoginRequest) (*AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error

	// SessionUserID resolves a live session to its user, extending
	// nothing. Used by the HTTP auth middleware.
	SessionUserID(ctx context.Context, sessionID uuid.UUID) (uuid.UUID, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type authService struct {
	db     store.Store
	rdb    *redis.Client
	paseto *pasetotoken.Manager
	cfg    *config.Config
}

func New(db store.Store, rdb *redis.Client, paseto *pasetotoken.Manager, cfg *config.Config) Service {
	return &authService{db: db, rdb: rdb, paseto: paseto, cfg: cfg}
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*store.User, *AuthTokens, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)

	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, nil, ErrInvalidEmail
	}
	if len(req.Password) < 8 {
		return nil, nil, ErrPasswordTooShort
	}

	phone := ""
	if req.Phone != "" {
		region := s.cfg.Server.DefaultRegion
		if region == "" {
			region = "US"
		}
		num, err := phonenumbers.Parse(req.Phone, region)
		if err != nil || !phonenumbers.IsValidNumber(num) {
			return nil, nil, ErrInvalidPhone
		}
		phone = phonenumbers.Format(num, phonenumbers.E164)
	}

	passHash, err := password.Hash(req.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	u := &store.User{
		Role:         store.RolePatient,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        phone,
		PasswordHash: passHash,
	}
	if err := s.db.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, nil, ErrEmailExists
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.createSession(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return u, tokens, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthTokens, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	u, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := password.Verify(req.Password, u.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.createSession(ctx, u)
}

func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.paseto.Verify(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Type != pasetotoken.TokenTypeRefresh || claims.SessionID == nil {
		return nil, ErrInvalidToken
	}

	sessionKey := redisKeySession(claims.SessionID.String())
	if err := s.rdb.Get(ctx, sessionKey).Err(); err == redis.Nil {
		return nil, ErrSessionNotFound
	} else if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	// Extend the session; the refresh token itself stays valid until
	// logout.
	s.rdb.Expire(ctx, sessionKey, s.sessionTTL())

	access, err := s.paseto.IssueAccess(claims.UserID, claims.Role, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.paseto.AccessTTL().Seconds()),
	}, nil
}

func (s *authService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	deleted, err := s.rdb.Del(ctx, redisKeySession(sessionID.String())).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if deleted == 0 {
		slog.Debug("logout: session already expired", "session_id", sessionID)
	}
	return nil
}

func (s *authService) SessionUserID(ctx context.Context, sessionID uuid.UUID) (uuid.UUID, error) {
	val, err := s.rdb.Get(ctx, redisKeySession(sessionID.String())).Result()
	if err == redis.Nil {
		return uuid.Nil, ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("redis get session: %w", err)
	}
	uid, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed session value: %w", err)
	}
	return uid, nil
}

func (s *authService) createSession(ctx context.Context, u *store.User) (*AuthTokens, error) {
	sessionID := uuid.Must(uuid.NewV7())

	sessionKey := redisKeySession(sessionID.String())
	if err := s.rdb.Set(ctx, sessionKey, u.ID.String(), s.sessionTTL()).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	access, err := s.paseto.IssueAccess(u.ID, string(u.Role), &sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.paseto.IssueRefresh(u.ID, string(u.Role), &sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.paseto.AccessTTL().Seconds()),
	}, nil
}

func (s *authService) sessionTTL() time.Duration {
	return time.Duration(s.cfg.Authentication.SessionTTLMinutes) * time.Minute
}
