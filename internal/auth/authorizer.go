package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/maxq/console/internal/domain"
)

// Authorizer derives the caller's principal from its bearer token. Nothing is
// cached; every call reads and verifies the token again.
type Authorizer struct {
	tokens    TokenStore
	verifier  *TokenVerifier
	adminRole string
	logger    *zap.Logger
}

// NewAuthorizer builds an Authorizer checking for adminRole.
func NewAuthorizer(tokens TokenStore, verifier *TokenVerifier, adminRole string, logger *zap.Logger) *Authorizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authorizer{tokens: tokens, verifier: verifier, adminRole: adminRole, logger: logger}
}

// Verify checks a token with the configured verifier.
func (a *Authorizer) Verify(token string) (*Claims, bool) {
	return a.verifier.Verify(token)
}

// Tokens exposes the underlying token store.
func (a *Authorizer) Tokens() TokenStore {
	return a.tokens
}

// Resolve builds a principal from an explicit bearer token, falling back to
// the token stored for session. Tokens failing verification resolve to an
// unauthenticated principal.
func (a *Authorizer) Resolve(ctx context.Context, session, bearer string) domain.Principal {
	principal := domain.Principal{Session: session}

	token := bearer
	if token == "" && session != "" && a.tokens != nil {
		stored, err := a.tokens.Read(ctx, session)
		if err != nil && !errors.Is(err, ErrNoToken) {
			a.logger.Warn("token store read failed", zap.Error(err))
		}
		token = stored
	}

	claims, ok := a.verifier.Verify(token)
	if !ok {
		return principal
	}

	principal.Token = token
	principal.Subject = claims.Subject
	principal.Roles = claims.Roles
	principal.Admin = claims.HasRole(a.adminRole)
	return principal
}

// IsAdmin reports whether the token stored for session carries the admin role.
func (a *Authorizer) IsAdmin(ctx context.Context, session string) bool {
	return a.Resolve(ctx, session, "").Admin
}
