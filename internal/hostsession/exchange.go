package hostsession

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"github.com/odyssey-erp/estimator/internal/shared"
)

// ExchangeRequest is the handshake payload relayed from the host window.
type ExchangeRequest struct {
	CustomToken string    `json:"custom_token" validate:"required"`
	SessionID   string    `json:"session_id" validate:"required"`
	PageID      string    `json:"page_id"`
	UserID      string    `json:"user_id" validate:"required"`
	ExpiresAt   time.Time `json:"expires_at" validate:"required"`
	IssuedAt    time.Time `json:"issued_at"`
	Page        any       `json:"page,omitempty"`
	User        any       `json:"user,omitempty"`
}

// Exchanger verifies host-issued tokens and opens sessions.
type Exchanger struct {
	secret   []byte
	origin   string
	store    *Store
	validate *validator.Validate
	now      func() time.Time
}

// NewExchanger constructs an Exchanger accepting tokens signed with secret
// from the allow-listed origin.
func NewExchanger(secret, origin string, store *Store) *Exchanger {
	return &Exchanger{
		secret:   []byte(secret),
		origin:   NormalizeOrigin(origin),
		store:    store,
		validate: shared.NewValidator(),
		now:      time.Now,
	}
}

// NormalizeOrigin strips surrounding spaces and trailing slashes.
func NormalizeOrigin(origin string) string {
	return strings.TrimRight(strings.TrimSpace(origin), "/")
}

// Exchange validates the handshake and stores a new session. The token may
// be exchanged once.
func (e *Exchanger) Exchange(ctx context.Context, origin string, req ExchangeRequest) (*Session, error) {
	if e.origin == "" || NormalizeOrigin(origin) != e.origin {
		return nil, fmt.Errorf("%w: origin not allowed", shared.ErrUnauthorized)
	}
	if err := shared.ValidateStruct(e.validate, req); err != nil {
		return nil, err
	}
	claims, err := e.verify(req.CustomToken)
	if err != nil {
		return nil, err
	}
	if claims.Subject != req.UserID {
		return nil, fmt.Errorf("%w: token subject does not match user", shared.ErrUnauthorized)
	}

	first, err := e.store.ConsumeToken(ctx, req.CustomToken, claims.ExpiresAt.Sub(e.now()))
	if err != nil {
		return nil, fmt.Errorf("record token use: %w", err)
	}
	if !first {
		return nil, fmt.Errorf("%w: token already used", shared.ErrUnauthorized)
	}

	issuedAt := req.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = e.now()
	}
	sess := &Session{
		HostSessionID: req.SessionID,
		UserID:        req.UserID,
		PageID:        req.PageID,
		ExpiresAt:     req.ExpiresAt.UTC(),
		IssuedAt:      issuedAt.UTC(),
		Page:          req.Page,
		User:          req.User,
	}
	if err := e.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (e *Exchanger) verify(token string) (*jwt.RegisteredClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return e.secret, nil
	}, jwt.WithTimeFunc(e.now), jwt.WithExpirationRequired(), jwt.WithIssuedAt())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token: %w", shared.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: invalid token claims", shared.ErrUnauthorized)
	}
	return claims, nil
}
