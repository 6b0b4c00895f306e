package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fleetrent/fleetrent/internal/authz"
	"github.com/fleetrent/fleetrent/internal/shared"
)

// SessionCookie is the cookie carrying the opaque session id.
const SessionCookie = "fleetrent_session"

type sessionPayload struct {
	UserID           string `json:"user_id"`
	Role             string `json:"role"`
	CompanyID        string `json:"company_id,omitempty"`
	LinkedInvestorID string `json:"linked_investor_id,omitempty"`
}

// SessionStore keeps verified principal claims in Redis keyed by an opaque
// session id. The login flow writes entries; the gateway only reads them.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return "session:" + id
}

// Put stores the principal claims under the session id.
func (s *SessionStore) Put(ctx context.Context, sessionID string, p authz.Principal) error {
	payload := sessionPayload{
		UserID:           p.ID,
		Role:             string(p.Role),
		CompanyID:        p.CompanyID,
		LinkedInvestorID: p.LinkedInvestorID,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("gateway: encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("gateway: store session: %w", err)
	}
	return nil
}

// Get resolves a session id back into a principal.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (authz.Principal, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return authz.Principal{}, shared.ErrUnauthenticated
		}
		return authz.Principal{}, fmt.Errorf("%w: %w", shared.ErrStoreUnavailable, err)
	}
	var payload sessionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return authz.Principal{}, shared.ErrUnauthenticated
	}
	role, err := authz.ParseRole(payload.Role)
	if err != nil {
		return authz.Principal{}, shared.ErrUnauthenticated
	}
	return authz.Principal{
		ID:               payload.UserID,
		Role:             role,
		CompanyID:        payload.CompanyID,
		LinkedInvestorID: payload.LinkedInvestorID,
	}, nil
}

// Delete revokes a session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("gateway: delete session: %w", err)
	}
	return nil
}
