package courses

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

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

func createTestLecturer(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, name, email, matric_number, department, faculty, phone_number, password_hash, is_lecturer)
		VALUES ($1, $2, $3, $4, 'CS', 'Science', '08000000000', 'x', TRUE)`,
		id, "Test Lecturer "+id.String()[:8], id.String()[:8]+"@test.local", id.String()[:12],
	)
	if err != nil {
		t.Fatalf("create lecturer: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

func TestCreateProvisionsRoster(t *testing.T) {
	pool := openTestPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	owner := createTestLecturer(t, pool)
	code := fmt.Sprintf("CSC%s", uuid.New().String()[:6])

	course, err := repo.Create(ctx, owner, code, "Operating Systems", "3")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if course.Code != code || course.OwnerID != owner {
		t.Fatalf("course = %+v", course)
	}

	// The roster must exist as soon as the course does.
	var rosterCount int
	err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM rosters WHERE course_id = $1 AND owner_id = $2`,
		course.ID, owner).Scan(&rosterCount)
	if err != nil {
		t.Fatalf("count rosters: %v", err)
	}
	if rosterCount != 1 {
		t.Fatalf("got %d rosters, want 1", rosterCount)
	}
}

func TestCreateDuplicateCode(t *testing.T) {
	pool := openTestPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	owner := createTestLecturer(t, pool)
	other := createTestLecturer(t, pool)
	code := fmt.Sprintf("CSC%s", uuid.New().String()[:6])

	if _, err := repo.Create(ctx, owner, code, "Operating Systems", "3"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := repo.Create(ctx, other, code, "Different Title", "2")
	if !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("err = %v, want ErrDuplicateCode", err)
	}

	// The failed transaction must not leave an orphan roster behind.
	var rosterCount int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM rosters WHERE owner_id = $1`, other).Scan(&rosterCount); err != nil {
		t.Fatalf("count rosters: %v", err)
	}
	if rosterCount != 0 {
		t.Fatalf("got %d orphan rosters, want 0", rosterCount)
	}
}

func TestListFiltersByOwnerAndKeyword(t *testing.T) {
	pool := openTestPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	owner := createTestLecturer(t, pool)
	other := createTestLecturer(t, pool)
	marker := uuid.New().String()[:8]

	if _, err := repo.Create(ctx, owner, "OWN"+marker, "Owned "+marker, "3"); err != nil {
		t.Fatalf("create owned: %v", err)
	}
	if _, err := repo.Create(ctx, other, "OTH"+marker, "Other "+marker, "2"); err != nil {
		t.Fatalf("create other: %v", err)
	}

	owned, err := repo.List(ctx, &owner, "")
	if err != nil {
		t.Fatalf("list owned: %v", err)
	}
	if len(owned) != 1 || owned[0].Code != "OWN"+marker {
		t.Fatalf("owned = %+v", owned)
	}
	if owned[0].Owner == nil || owned[0].Owner.ID != owner {
		t.Fatalf("owner not joined: %+v", owned[0].Owner)
	}

	all, err := repo.List(ctx, nil, marker)
	if err != nil {
		t.Fatalf("list keyword: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d keyword matches, want 2", len(all))
	}
}

func TestGetOwnedScoping(t *testing.T) {
	pool := openTestPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	owner := createTestLecturer(t, pool)
	other := createTestLecturer(t, pool)
	code := fmt.Sprintf("CSC%s", uuid.New().String()[:6])

	course, err := repo.Create(ctx, owner, code, "Compilers", "3")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := repo.GetOwned(ctx, course.ID, owner); err != nil {
		t.Fatalf("get as owner: %v", err)
	}
	if _, err := repo.GetOwned(ctx, course.ID, other); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("get as non-owner: err = %v, want ErrCourseNotFound", err)
	}
}
