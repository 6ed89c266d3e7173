package auth

import (
	"context"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims is the part of the bearer token payload the console reads.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole reports whether the role claim list contains role, ignoring case.
func (c *Claims) HasRole(role string) bool {
	if c == nil {
		return false
	}
	for _, r := range c.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// TokenVerifier checks the signature and expiry of bearer tokens issued by
// the MaxQ identity service.
type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenVerifier builds a verifier for HMAC tokens signed with secret.
func NewTokenVerifier(secret string, leeway time.Duration) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{
				jwt.SigningMethodHS256.Alg(),
				jwt.SigningMethodHS384.Alg(),
				jwt.SigningMethodHS512.Alg(),
			}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(leeway),
		),
	}
}

// Verify returns the claims of a valid token. Malformed, forged or expired
// tokens yield false.
func (v *TokenVerifier) Verify(token string) (*Claims, bool) {
	token = strings.TrimSpace(token)
	if v == nil || len(v.secret) == 0 || token == "" {
		return nil, false
	}
	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, false
	}
	return claims, true
}

type tokenCtxKey struct{}

// ContextWithToken attaches the caller's bearer token to ctx for outbound calls.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

// TokenFromContext returns the bearer token attached by ContextWithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenCtxKey{}).(string)
	return token, ok && token != ""
}

type subjectCtxKey struct{}

// ContextWithSubject attaches the verified token subject to ctx.
func ContextWithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectCtxKey{}, subject)
}

// SubjectFromContext returns the subject attached by ContextWithSubject.
func SubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(subjectCtxKey{}).(string)
	return subject
}
