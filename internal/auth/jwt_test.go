package auth

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	userID := primitive.NewObjectID()
	tenantID := primitive.NewObjectID()

	signed, err := GenerateToken(userID, tenantID, "admin", testSecret, time.Minute)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := ValidateToken(signed, testSecret)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	gotUser, gotTenant, err := claims.Identity()
	if err != nil {
		t.Fatalf("identity failed: %v", err)
	}
	if gotUser != userID || gotTenant != tenantID {
		t.Fatalf("claims ids mismatch: %v/%v", gotUser, gotTenant)
	}
	if claims.Role != "admin" {
		t.Fatalf("expected role admin, got %s", claims.Role)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	signed, err := GenerateToken(primitive.NewObjectID(), primitive.NewObjectID(), "user", testSecret, time.Minute)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := ValidateToken(signed, "other-secret"); err == nil {
		t.Fatal("expected validation to fail with wrong secret")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	signed, err := GenerateToken(primitive.NewObjectID(), primitive.NewObjectID(), "user", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := ValidateToken(signed, testSecret); err == nil {
		t.Fatal("expected validation to fail for expired token")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	if _, err := ValidateToken("not-a-token", testSecret); err == nil {
		t.Fatal("expected validation to fail for malformed token")
	}
}
