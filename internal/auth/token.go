// Package auth issues and verifies the HS256 bearer tokens that identify API
// callers.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cimillas/event-horizon/internal/clock"
	"github.com/cimillas/event-horizon/internal/domain"
)

var (
	ErrTokenMissing = errors.New("bearer token is required")
	ErrTokenInvalid = errors.New("bearer token is invalid")
	ErrTokenExpired = errors.New("bearer token is expired")
)

const minSecretLength = 16

// claims is the token payload: the standard registered claims plus the role.
type claims struct {
	jwt.RegisteredClaims
	Role domain.Role `json:"role"`
}

type Config struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Clock  clock.Clock
}

func (c Config) validate() error {
	if len(c.Secret) < minSecretLength {
		return fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)
	}
	if strings.TrimSpace(c.Issuer) == "" {
		return errors.New("jwt issuer is required")
	}
	return nil
}

// Issuer mints tokens for a principal.
type Issuer struct {
	cfg Config
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("jwt ttl must be positive")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewSystem()
	}
	return &Issuer{cfg: cfg}, nil
}

func (i *Issuer) Issue(p domain.Principal) (string, error) {
	if strings.TrimSpace(p.ID) == "" {
		return "", errors.New("token subject is required")
	}
	if !p.Role.Valid() {
		return "", fmt.Errorf("unknown role %q", p.Role)
	}

	now := i.cfg.Clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.TTL)),
		},
		Role: p.Role,
	})
	signed, err := token.SignedString(i.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verifier turns a bearer token back into a principal.
type Verifier struct {
	cfg    Config
	parser *jwt.Parser
}

func NewVerifier(cfg Config) (*Verifier, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Verifier{
		cfg: cfg,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(clock.Func(cfg.Clock)),
		),
	}, nil
}

func (v *Verifier) Verify(token string) (domain.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Principal{}, ErrTokenMissing
	}

	var parsed claims
	_, err := v.parser.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return v.cfg.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, ErrTokenExpired
		}
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if strings.TrimSpace(parsed.Subject) == "" || !parsed.Role.Valid() {
		return domain.Principal{}, ErrTokenInvalid
	}
	return domain.Principal{ID: parsed.Subject, Role: parsed.Role}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrTokenMissing
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrTokenInvalid
	}
	return strings.TrimSpace(token), nil
}
