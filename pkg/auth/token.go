package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/casahojaldre/chatbot-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintAdminToken issues a signed JWT for the provided payload using the configured TTL.
func MintAdminToken(cfg config.AdminJWTConfig, now time.Time, payload AdminTokenPayload) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if cfg.ExpirationMinutes <= 0 {
		return "", fmt.Errorf("jwt expiration minutes must be positive")
	}
	if strings.TrimSpace(payload.Subject) == "" {
		return "", fmt.Errorf("token subject is required")
	}
	if len(payload.Capabilities) == 0 {
		return "", fmt.Errorf("at least one capability is required")
	}

	issuedAt := jwt.NewNumericDate(now)
	expiry := jwt.NewNumericDate(now.Add(cfg.Expiration()))

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := AdminTokenClaims{
		Capabilities: payload.Capabilities,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   payload.Subject,
			IssuedAt:  issuedAt,
			ExpiresAt: expiry,
			ID:        jti,
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAdminToken validates the JWT string and returns typed claims.
func ParseAdminToken(cfg config.AdminJWTConfig, tokenString string) (*AdminTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &AdminTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}

	return claims, nil
}

// Checker answers whether a bearer token grants a capability. The chat
// surface never needs it; only the back-office HTTP routes do.
type Checker interface {
	Allow(token string, capability Capability) error
}

// JWTChecker validates HMAC-signed admin tokens.
type JWTChecker struct {
	cfg config.AdminJWTConfig
}

// NewJWTChecker builds a Checker backed by the configured signing secret.
func NewJWTChecker(cfg config.AdminJWTConfig) *JWTChecker {
	return &JWTChecker{cfg: cfg}
}

// Allow validates the token and confirms the capability grant.
func (c *JWTChecker) Allow(token string, capability Capability) error {
	claims, err := ParseAdminToken(c.cfg, token)
	if err != nil {
		return fmt.Errorf("parsing admin token: %w", err)
	}
	if !claims.HasCapability(capability) {
		return fmt.Errorf("token lacks capability %q", capability)
	}
	return nil
}
