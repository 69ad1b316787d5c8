package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	userID := uuid.New()

	token, err := svc.Generate(userID, "ada@uni.edu", true)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("expected user id %s, got %s", userID, claims.UserID)
	}
	if !claims.IsLecturer {
		t.Errorf("expected lecturer flag set")
	}
	if claims.Email != "ada@uni.edu" {
		t.Errorf("unexpected email claim: %s", claims.Email)
	}
}

func TestValidateWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", 1).Generate(uuid.New(), "s@uni.edu", false)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	if _, err := NewJWTService("secret-b", 1).Validate(token); err == nil {
		t.Fatalf("expected validation to fail with wrong secret")
	}
}

func TestValidateExpired(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	claims := Claims{
		UserID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, err := svc.Validate(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}
