package attendance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ontime/backend/internal/auth"
	"github.com/ontime/backend/internal/middleware"
	"github.com/ontime/backend/pkg/response"
)

func newTestRouter(pool *pgxpool.Pool, jwtService *auth.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(NewRepository(pool), nil, nil)

	router := gin.New()
	authRequired := middleware.JWT(jwtService)
	group := router.Group("/api/attendance", authRequired)
	group.POST("/:courseId/mark-as-attended/:date", handler.Mark)
	group.GET("/:courseId", handler.ListHistory)
	group.GET("/:courseId/class/dates", middleware.RequireLecturer(), handler.ListDates)
	group.GET("/:courseId/:date", middleware.RequireLecturer(), handler.ListAttendees)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token string) (*httptest.ResponseRecorder, response.Body) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body response.Body
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, body
}

func TestMarkEndpoint(t *testing.T) {
	pool := openTestPool(t)
	jwtService := auth.NewJWTService("test-secret", 1)
	router := newTestRouter(pool, jwtService)
	ctx := context.Background()

	lecturer := createTestUser(t, pool, true)
	student := createTestUser(t, pool, false)
	courseID := createTestCourse(t, pool, lecturer)

	repo := NewRepository(pool)
	const date = "2026-10-01"
	if _, err := repo.OpenSession(ctx, courseID, lecturer, date); err != nil {
		t.Fatalf("open session: %v", err)
	}

	studentToken, err := jwtService.Generate(student, "student@test.local", false)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	lecturerToken, err := jwtService.Generate(lecturer, "lecturer@test.local", true)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	markPath := "/api/attendance/" + courseID.String() + "/mark-as-attended/" + date

	rec, body := doRequest(t, router, http.MethodPost, markPath, studentToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("first mark status = %d, body %s", rec.Code, rec.Body.String())
	}
	if body.Message != "You have been marked as attended!" {
		t.Fatalf("first mark message = %q", body.Message)
	}

	rec, body = doRequest(t, router, http.MethodPost, markPath, studentToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat mark status = %d", rec.Code)
	}
	if body.Message != "You have already been marked as attended!" {
		t.Fatalf("repeat mark message = %q", body.Message)
	}

	rec, _ = doRequest(t, router, http.MethodGet,
		"/api/attendance/"+courseID.String()+"/"+date, lecturerToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("list attendees status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), student.String()) {
		t.Fatalf("attendees missing student: %s", rec.Body.String())
	}
}

func TestMarkEndpointAuthz(t *testing.T) {
	pool := openTestPool(t)
	jwtService := auth.NewJWTService("test-secret", 1)
	router := newTestRouter(pool, jwtService)

	lecturer := createTestUser(t, pool, true)
	student := createTestUser(t, pool, false)
	courseID := createTestCourse(t, pool, lecturer)

	studentToken, err := jwtService.Generate(student, "student@test.local", false)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	// No token.
	req := httptest.NewRequest(http.MethodPost,
		"/api/attendance/"+courseID.String()+"/mark-as-attended/2026-10-02", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", rec.Code)
	}

	// Students cannot read roster views.
	rec, _ = doRequest(t, router, http.MethodGet,
		"/api/attendance/"+courseID.String()+"/class/dates", studentToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student dates status = %d, want 403", rec.Code)
	}

	// Marking against a date with no open session.
	rec, _ = doRequest(t, router, http.MethodPost,
		"/api/attendance/"+courseID.String()+"/mark-as-attended/2026-10-02", studentToken)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("no session status = %d, want 404", rec.Code)
	}

	// Bad course id.
	rec, _ = doRequest(t, router, http.MethodPost,
		"/api/attendance/not-a-uuid/mark-as-attended/2026-10-02", studentToken)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", rec.Code)
	}
}
