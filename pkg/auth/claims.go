package auth

import "github.com/golang-jwt/jwt/v5"

// Capability names an admin action a token may perform.
type Capability string

const (
	CapabilityOrdersRead       Capability = "orders:read"
	CapabilityOrdersTransition Capability = "orders:transition"
	CapabilityKnowledgeWrite   Capability = "knowledge:write"
)

// AdminTokenPayload captures the data available when minting an admin JWT.
type AdminTokenPayload struct {
	Subject      string
	Capabilities []Capability
	JTI          string
}

// AdminTokenClaims represents the typed JWT issued to back-office operators.
type AdminTokenClaims struct {
	Capabilities []Capability `json:"capabilities"`
	jwt.RegisteredClaims
}

// HasCapability reports whether the claims grant the requested capability.
func (c *AdminTokenClaims) HasCapability(capability Capability) bool {
	if c == nil {
		return false
	}
	for _, granted := range c.Capabilities {
		if granted == capability {
			return true
		}
	}
	return false
}
