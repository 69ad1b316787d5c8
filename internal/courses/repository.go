package courses

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ontime/backend/internal/models"
)

var (
	// ErrDuplicateCode is returned when a course code is already taken.
	ErrDuplicateCode = errors.New("course code already exists")
	// ErrCourseNotFound is returned when no course matches the lookup.
	ErrCourseNotFound = errors.New("course not found")
)

const courseColumns = `c.id, c.owner_id, c.code, c.title, c.unit, c.created_at,
	u.id, u.name, u.email, u.matric_number, u.department, u.faculty, u.phone_number, u.image_url, u.is_lecturer`

// Repository handles course and roster persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a course repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	var course models.Course
	var owner models.UserPublic
	err := row.Scan(&course.ID, &course.OwnerID, &course.Code, &course.Title, &course.Unit, &course.CreatedAt,
		&owner.ID, &owner.Name, &owner.Email, &owner.MatricNumber, &owner.Department, &owner.Faculty,
		&owner.PhoneNumber, &owner.ImageURL, &owner.IsLecturer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	course.Owner = &owner
	return &course, nil
}

// Create inserts a course and its empty roster in one transaction. A course
// must never exist without exactly one roster.
func (r *Repository) Create(ctx context.Context, ownerID uuid.UUID, code, title, unit string) (*models.Course, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var course models.Course
	err = tx.QueryRow(ctx,
		`INSERT INTO courses (owner_id, code, title, unit) VALUES ($1, $2, $3, $4)
		RETURNING id, owner_id, code, title, unit, created_at`,
		ownerID, code, title, unit,
	).Scan(&course.ID, &course.OwnerID, &course.Code, &course.Title, &course.Unit, &course.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO rosters (owner_id, course_id) VALUES ($1, $2)`,
		ownerID, course.ID,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns courses joined with their owner, newest first. When ownerID is
// non-nil only that lecturer's courses are returned. Keyword filters with a
// case-insensitive substring match across code, title and unit.
func (r *Repository) List(ctx context.Context, ownerID *uuid.UUID, keyword string) ([]models.Course, error) {
	q := `SELECT ` + courseColumns + ` FROM courses c JOIN users u ON u.id = c.owner_id`
	var args []interface{}
	var conds []string
	if keyword != "" {
		args = append(args, "%"+keyword+"%")
		conds = append(conds, `(c.code ILIKE $1 OR c.title ILIKE $1 OR c.unit ILIKE $1)`)
	}
	if ownerID != nil {
		args = append(args, *ownerID)
		if len(args) == 1 {
			conds = append(conds, `c.owner_id = $1`)
		} else {
			conds = append(conds, `c.owner_id = $2`)
		}
	}
	for i, cond := range conds {
		if i == 0 {
			q += " WHERE " + cond
		} else {
			q += " AND " + cond
		}
	}
	q += " ORDER BY c.created_at DESC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *course)
	}
	return list, rows.Err()
}

// GetByID returns a course with its owner joined.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	const q = `SELECT ` + courseColumns + ` FROM courses c JOIN users u ON u.id = c.owner_id WHERE c.id = $1`
	return scanCourse(r.pool.QueryRow(ctx, q, id))
}

// GetOwned returns a course only when it belongs to the given lecturer.
func (r *Repository) GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*models.Course, error) {
	const q = `SELECT ` + courseColumns + ` FROM courses c JOIN users u ON u.id = c.owner_id
		WHERE c.id = $1 AND c.owner_id = $2`
	return scanCourse(r.pool.QueryRow(ctx, q, id, ownerID))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
