package enrollments

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ontime/backend/internal/courses"
	"github.com/ontime/backend/pkg/database"
)

func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func createTestUser(t *testing.T, pool *pgxpool.Pool, isLecturer bool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, name, email, matric_number, department, faculty, phone_number, password_hash, is_lecturer)
		VALUES ($1, $2, $3, $4, 'CS', 'Science', '08000000000', 'x', $5)`,
		id, "Test User "+id.String()[:8], id.String()[:8]+"@test.local", id.String()[:12], isLecturer,
	)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

func TestEnrollOncePerCourse(t *testing.T) {
	pool := openTestPool(t)
	repo := NewRepository(pool)
	courseRepo := courses.NewRepository(pool)
	ctx := context.Background()

	lecturer := createTestUser(t, pool, true)
	student := createTestUser(t, pool, false)
	code := fmt.Sprintf("ENR%s", uuid.New().String()[:6])
	course, err := courseRepo.Create(ctx, lecturer, code, "Databases", "3")
	if err != nil {
		t.Fatalf("create course: %v", err)
	}

	if _, err := repo.Create(ctx, student, course.ID); err != nil {
		t.Fatalf("first enroll: %v", err)
	}
	if _, err := repo.Create(ctx, student, course.ID); !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("second enroll: err = %v, want ErrAlreadyEnrolled", err)
	}

	list, err := repo.ListByStudent(ctx, student)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d enrollments, want 1", len(list))
	}
	if list[0].Course == nil || list[0].Course.ID != course.ID {
		t.Fatalf("course not joined: %+v", list[0])
	}
	if list[0].Course.Owner == nil || list[0].Course.Owner.ID != lecturer {
		t.Fatalf("course owner not joined: %+v", list[0].Course)
	}
}

func TestListByStudentNewestFirst(t *testing.T) {
	pool := openTestPool(t)
	repo := NewRepository(pool)
	courseRepo := courses.NewRepository(pool)
	ctx := context.Background()

	lecturer := createTestUser(t, pool, true)
	student := createTestUser(t, pool, false)

	var last uuid.UUID
	for i := 0; i < 3; i++ {
		code := fmt.Sprintf("LST%s", uuid.New().String()[:6])
		course, err := courseRepo.Create(ctx, lecturer, code, fmt.Sprintf("Course %d", i), "2")
		if err != nil {
			t.Fatalf("create course: %v", err)
		}
		if _, err := repo.Create(ctx, student, course.ID); err != nil {
			t.Fatalf("enroll: %v", err)
		}
		last = course.ID
	}

	list, err := repo.ListByStudent(ctx, student)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d enrollments, want 3", len(list))
	}
	if list[0].CourseID != last {
		t.Fatalf("list[0].CourseID = %s, want most recent %s", list[0].CourseID, last)
	}
}
