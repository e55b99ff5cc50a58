// Package auth issues and verifies merchant bearer tokens.
package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/xenking/storefront/internal/domain/apperr"
)

// DefaultTTL is the lifetime of issued tokens when none is configured.
const DefaultTTL = 168 * time.Hour

// ErrUnauthenticated is returned for missing, malformed or expired tokens.
var ErrUnauthenticated = apperr.Unauthenticated("Invalid or expired token")

// Principal identifies the merchant making a request.
type Principal struct {
	OwnerID string
}

// Config configures token signing.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Tokens signs and verifies HS256 JWTs whose subject is the owner id.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates Tokens. An empty secret is rejected.
func NewTokens(cfg Config) (*Tokens, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Tokens{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
	}, nil
}

// Issue returns a signed token for ownerID.
func (t *Tokens) Issue(ownerID string) (string, error) {
	if ownerID == "" {
		return "", errors.New("owner id is empty")
	}
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   ownerID,
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Verify parses raw and returns its principal. Every failure is reported as
// ErrUnauthenticated.
func (t *Tokens) Verify(raw string) (Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.NewParser(opts...).ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil || claims.Subject == "" {
		return Principal{}, ErrUnauthenticated
	}
	return Principal{OwnerID: claims.Subject}, nil
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
