// Package session issues the opaque tokens that scope a shopper's cart,
// favorites and popup state.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid session token")

// Session is an issued shopper session.
type Session struct {
	ID        string    `json:"sessionId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Service struct {
	tokens *tokenManager
	ttl    time.Duration
}

func New(ttl time.Duration) *Service {
	return newWithClock(ttl, time.Now)
}

func newWithClock(ttl time.Duration, now func() time.Time) *Service {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{tokens: newTokenManager(now), ttl: ttl}
}

func (s *Service) Issue(ctx context.Context) (Session, error) {
	id := uuid.NewString()
	token, expires, err := s.tokens.Issue(id, s.ttl)
	if err != nil {
		return Session{}, err
	}
	return Session{ID: id, Token: token, ExpiresAt: expires}, nil
}

// Lookup resolves a token to its session id.
func (s *Service) Lookup(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}
	meta, ok := s.tokens.Validate(token)
	if !ok {
		return "", ErrInvalidToken
	}
	return meta.SessionID, nil
}

func (s *Service) Revoke(ctx context.Context, token string) {
	s.tokens.Revoke(token)
}

// Sweep removes expired tokens and returns their session ids so callers can
// release per-session state.
func (s *Service) Sweep() []string {
	return s.tokens.Sweep()
}

func (s *Service) TTLSeconds() int {
	return int(s.ttl.Seconds())
}
