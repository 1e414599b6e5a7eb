package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/casahojaldre/chatbot-backend/pkg/config"
)

func testJWTConfig() config.AdminJWTConfig {
	return config.AdminJWTConfig{
		Secret:            "test-secret",
		Issuer:            "casahojaldre-test",
		ExpirationMinutes: 60,
	}
}

func TestMintAndParseAdminToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()

	token, err := MintAdminToken(cfg, now, AdminTokenPayload{
		Subject:      "ops@casahojaldre.co",
		Capabilities: []Capability{CapabilityOrdersRead, CapabilityOrdersTransition},
	})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	claims, err := ParseAdminToken(cfg, token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.Subject != "ops@casahojaldre.co" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if !claims.HasCapability(CapabilityOrdersTransition) {
		t.Fatalf("expected transition capability")
	}
	if claims.HasCapability(CapabilityKnowledgeWrite) {
		t.Fatalf("knowledge capability should not be granted")
	}
}

func TestMintAdminTokenValidation(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()

	if _, err := MintAdminToken(cfg, now, AdminTokenPayload{Capabilities: []Capability{CapabilityOrdersRead}}); err == nil {
		t.Fatal("expected error for missing subject")
	}
	if _, err := MintAdminToken(cfg, now, AdminTokenPayload{Subject: "ops"}); err == nil {
		t.Fatal("expected error for empty capabilities")
	}

	noSecret := cfg
	noSecret.Secret = ""
	if _, err := MintAdminToken(noSecret, now, AdminTokenPayload{Subject: "ops", Capabilities: []Capability{CapabilityOrdersRead}}); err == nil {
		t.Fatal("expected error for missing secret")
	}
}

func TestParseAdminTokenRejectsWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAdminToken(cfg, time.Now(), AdminTokenPayload{
		Subject:      "ops",
		Capabilities: []Capability{CapabilityOrdersRead},
	})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseAdminToken(other, token); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}

func TestJWTCheckerAllow(t *testing.T) {
	cfg := testJWTConfig()
	checker := NewJWTChecker(cfg)

	token, err := MintAdminToken(cfg, time.Now(), AdminTokenPayload{
		Subject:      "ops",
		Capabilities: []Capability{CapabilityOrdersRead},
	})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	if err := checker.Allow(token, CapabilityOrdersRead); err != nil {
		t.Fatalf("expected read capability to pass: %v", err)
	}
	err = checker.Allow(token, CapabilityOrdersTransition)
	if err == nil || !strings.Contains(err.Error(), "lacks capability") {
		t.Fatalf("expected capability rejection, got %v", err)
	}
	if err := checker.Allow("garbage", CapabilityOrdersRead); err == nil {
		t.Fatal("expected malformed token to fail")
	}
}
