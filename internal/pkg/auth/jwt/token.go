package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

const (
	// DefaultAccessTTL is the access token lifetime when none is configured.
	DefaultAccessTTL = 15 * time.Minute

	// TokenIssuer is written to the iss claim.
	TokenIssuer = "aqimonitor"
)

// ErrInvalidToken covers malformed tokens, bad signatures, foreign algorithms and expired tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// Issuer signs and verifies access tokens with a process-wide HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer returns an Issuer. A zero ttl selects DefaultAccessTTL.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl == 0 {
		ttl = DefaultAccessTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the lifetime given to issued tokens.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for identity. Each call carries a fresh jti, so two tokens
// for the same identity differ even within the same second.
func (i *Issuer) Issue(identity Identity) (string, error) {
	now := time.Now()

	payload := &Payload{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Subject:   identity.Username,
			Issuer:    TokenIssuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(i.ttl).Unix(),
		},
		Identity: identity,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the embedded identity.
func (i *Issuer) Verify(tokenString string) (*Identity, error) {
	payload := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, payload, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || payload.Identity.Username == "" {
		return nil, ErrInvalidToken
	}

	identity := payload.Identity
	return &identity, nil
}
