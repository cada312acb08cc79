package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
	ErrRevokedToken = errors.New("revoked bearer token")
)

type Config struct {
	Secret string
	Issuer string
}

// Claims is the verified payload of a bearer token. UserID is the "sub"
// claim and always a UUID.
type Claims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

type revocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Verifier validates HS256 tokens issued by the identity provider.
// Tokens are never issued here.
type Verifier struct {
	config      Config
	revocations revocationChecker
}

// NewVerifier creates a verifier. revocations may be nil.
func NewVerifier(config Config, revocations revocationChecker) *Verifier {
	return &Verifier{
		config:      config,
		revocations: revocations,
	}
}

func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := Parse(token, v.config)
	if err != nil {
		return nil, err
	}

	if v.revocations == nil || claims.TokenID == "" {
		return claims, nil
	}

	revoked, err := v.revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrRevokedToken
	}

	return claims, nil
}

// Parse validates a JWT and returns its claims.
func Parse(token string, cfg Config) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil || uuid.Validate(subject) != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}
	tokenID, _ := claims["jti"].(string)

	return &Claims{
		UserID:    subject,
		TokenID:   tokenID,
		ExpiresAt: exp.Time,
	}, nil
}
