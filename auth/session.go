package auth

import (
	"fmt"
	"strings"

	"chat-sync/errors"
)

// CookieName is the cookie carrying the session token.
const CookieName = "session"

type contextKey string

// UserIDKey stores the resolved session user id in request locals.
const UserIDKey contextKey = "user_id"

// Sessions is the mocked authentication layer. Without any credential every
// caller is the fixed default identity. A presented token must be valid, and
// then names the session user.
type Sessions struct {
	tokens        *Tokens
	defaultUserID string
}

func NewSessions(tokens *Tokens, defaultUserID string) *Sessions {
	return &Sessions{tokens: tokens, defaultUserID: defaultUserID}
}

func (s *Sessions) DefaultUserID() string {
	return s.defaultUserID
}

// Issue returns a session token for userID.
func (s *Sessions) Issue(userID string) (string, error) {
	return s.tokens.GenerateToken(userID)
}

// Resolve returns the user id behind a credential, accepting either a raw
// token or an "Authorization: Bearer <token>" header value.
func (s *Sessions) Resolve(credential string) (string, error) {
	token := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(credential), "Bearer "))
	if token == "" {
		return s.defaultUserID, nil
	}
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrUnauthenticated, err)
	}
	return claims.UserID, nil
}
