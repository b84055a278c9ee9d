package auth

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/cristalhq/jwt/v4"
)

const (
	jwtIssuer = "SRMS"

	DefaultTokenExpiry = 24 * time.Hour
	jwtAudienceAdmin   = "admin"
	jwtAlg             = jwt.HS256

	minSecretLength = 32
)

// AuthRepository implements Repository.
type AuthRepository struct {
	aud      string
	expiry   time.Duration
	builder  *jwt.Builder
	verifier jwt.Verifier
}

// NewRepository returns a new instance of *AuthRepository. Tokens are signed
// with secret, or with a random secret when secret is empty, in which case
// tokens do not survive a restart. A zero expiry means DefaultTokenExpiry.
func NewRepository(secret []byte, expiry time.Duration) (Repository, error) {
	if len(secret) == 0 {
		secret = make([]byte, minSecretLength)
		_, err := rand.Read(secret)
		if err != nil {
			return nil, fmt.Errorf("rand.Read error: %w", err)
		}
	} else if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)
	}

	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}

	signer, err := jwt.NewSignerHS(jwtAlg, secret)
	if err != nil {
		return nil, fmt.Errorf("jwt.NewSignerHS error: %w", err)
	}

	verifier, err := jwt.NewVerifierHS(jwtAlg, secret)
	if err != nil {
		return nil, fmt.Errorf("jwt.NewVerifierHS error: %w", err)
	}

	return &AuthRepository{
		aud:      jwtAudienceAdmin,
		expiry:   expiry,
		builder:  jwt.NewBuilder(signer),
		verifier: verifier,
	}, nil
}

// GenerateToken generates a new auth token for uniqueID.
// Implements Repository.
func (ar *AuthRepository) GenerateToken(uniqueID string) (string, error) {
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		ID:        uniqueID,
		Audience:  jwt.Audience{ar.aud},
		Issuer:    jwtIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ar.expiry)),
	}

	token, err := ar.builder.Build(claims)
	if err != nil {
		return "", fmt.Errorf("builder.Build error: %w", err)
	}

	return token.String(), nil
}

// IsValid checks the token is valid and return it's uniqueID.
// Implements Repository.
func (ar *AuthRepository) IsValid(jwtToken string) (string, bool) {
	jwtClaims := new(jwt.RegisteredClaims)
	err := jwt.ParseClaims([]byte(jwtToken), ar.verifier, jwtClaims)
	if err != nil || !(jwtClaims.IsIssuer(jwtIssuer) && jwtClaims.IsValidAt(time.Now())) || !jwtClaims.IsForAudience(ar.aud) {
		return "", false
	}

	return jwtClaims.ID, true
}
