package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token verification failures. Clients only ever see a generic 401; these are for logs.
var (
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
	ErrMalformed        = errors.New("token malformed")
	ErrMissingSubject   = errors.New("token subject missing")
)

// ErrInvalidTokenConfig is returned by NewTokenCodec for unusable settings.
var ErrInvalidTokenConfig = errors.New("invalid token configuration")

// DefaultTokenTTL matches ACCESS_TOKEN_EXPIRE_MINUTES when unset.
const DefaultTokenTTL = 30 * time.Minute

// TokenConfig carries the signing settings loaded once at startup.
type TokenConfig struct {
	Secret    string
	Algorithm string
	TTL       time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// TokenCodec issues and verifies HMAC-signed bearer tokens whose subject is the user's email.
// It holds no mutable state and is safe for concurrent use.
type TokenCodec struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec validates cfg and builds a codec.
func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("%w: empty secret", ErrInvalidTokenConfig)
	}

	var method jwt.SigningMethod
	switch strings.ToUpper(strings.TrimSpace(cfg.Algorithm)) {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidTokenConfig, cfg.Algorithm)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &TokenCodec{
		secret: []byte(cfg.Secret),
		method: method,
		ttl:    ttl,
		now:    now,
	}, nil
}

// Issue signs a token for subject. aux claims are copied verbatim except sub, exp and iat,
// which the codec always owns. A non-positive ttl uses the configured default.
func (c *TokenCodec) Issue(subject string, aux map[string]any, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", ErrMissingSubject
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	now := c.now()
	claims := jwt.MapClaims{}
	for k, v := range aux {
		claims[k] = v
	}
	claims["sub"] = subject
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(now.Add(ttl))

	return jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
}

// Verify checks signature, algorithm and expiry and returns the subject claim.
func (c *TokenCodec) Verify(token string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)

	parsed, err := parser.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return "", classifyParseError(err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", ErrMalformed
	}
	subject, err := claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if strings.TrimSpace(subject) == "" {
		return "", ErrMissingSubject
	}
	return subject, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
