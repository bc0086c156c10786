// Package hostsession exchanges a host-issued one-time token for a bearer
// session and resolves that session into the request identity.
package hostsession

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/odyssey-erp/estimator/internal/shared"
)

// Session is the host context bound to a bearer id.
type Session struct {
	ID            string    `json:"id"`
	HostSessionID string    `json:"host_session_id"`
	UserID        string    `json:"user_id"`
	PageID        string    `json:"page_id,omitempty"`
	ExpiresAt     time.Time `json:"expires_at"`
	IssuedAt      time.Time `json:"issued_at"`
	Page          any       `json:"page,omitempty"`
	User          any       `json:"user,omitempty"`
}

// Identity projects the session for request scoping.
func (s Session) Identity() shared.Identity {
	ctx := map[string]any{}
	if s.Page != nil {
		ctx["page"] = s.Page
	}
	if s.User != nil {
		ctx["user"] = s.User
	}
	return shared.Identity{
		UserID:    s.UserID,
		SessionID: s.HostSessionID,
		PageID:    s.PageID,
		Context:   ctx,
	}
}

// Store keeps sessions in Redis with a bounded lifetime.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewStore constructs a Store. ttl caps every session lifetime.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl, now: time.Now}
}

// Save assigns an id when missing and stores the session until the earlier
// of its expiry and the configured TTL.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	ttl := s.lifetime(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("%w: session already expired", shared.ErrUnauthorized)
	}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(sess.ID), data, ttl).Err()
}

// Load returns the session for id or ErrUnauthorized when it is unknown or expired.
func (s *Store) Load(ctx context.Context, id string) (*Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: unknown session", shared.ErrUnauthorized)
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	if !sess.ExpiresAt.IsZero() && !s.now().Before(sess.ExpiresAt) {
		return nil, fmt.Errorf("%w: session expired", shared.ErrUnauthorized)
	}
	return &sess, nil
}

// Destroy removes the session.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// ConsumeToken records token as used until ttl elapses and reports whether
// this was the first use. ttl should cover the token's remaining validity.
func (s *Store) ConsumeToken(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	return s.client.SetNX(ctx, tokenKey(token), 1, ttl).Result()
}

func (s *Store) lifetime(expiresAt time.Time) time.Duration {
	if expiresAt.IsZero() {
		return s.ttl
	}
	remaining := expiresAt.Sub(s.now())
	if s.ttl > 0 && remaining > s.ttl {
		return s.ttl
	}
	return remaining
}

func sessionKey(id string) string {
	return "session:" + id
}

func tokenKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return "session:token:" + hex.EncodeToString(sum[:])
}
