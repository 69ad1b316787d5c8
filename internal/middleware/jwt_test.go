package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ontime/backend/internal/auth"
)

func newTestRouter(jwtService *auth.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWT(jwtService), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/lecturers-only", JWT(jwtService), RequireLecturer(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestJWTMiddleware(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	r := newTestRouter(svc)

	// Missing header.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	// Malformed header.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for malformed header, got %d", w.Code)
	}

	// Valid token.
	token, err := svc.Generate(uuid.New(), "s@uni.edu", false)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with valid token, got %d", w.Code)
	}
}

func TestRequireLecturer(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	r := newTestRouter(svc)

	studentToken, _ := svc.Generate(uuid.New(), "s@uni.edu", false)
	lecturerToken, _ := svc.Generate(uuid.New(), "l@uni.edu", true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/lecturers-only", nil)
	req.Header.Set("Authorization", "Bearer "+studentToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for student, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/lecturers-only", nil)
	req.Header.Set("Authorization", "Bearer "+lecturerToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for lecturer, got %d", w.Code)
	}
}
