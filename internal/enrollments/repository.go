package enrollments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ontime/backend/internal/models"
)

// ErrAlreadyEnrolled is returned when the (student, course) pair exists.
var ErrAlreadyEnrolled = errors.New("already enrolled")

// Repository handles enrollment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an enrollments repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an enrollment. A second call for the same pair fails with
// ErrAlreadyEnrolled rather than silently succeeding.
func (r *Repository) Create(ctx context.Context, studentID, courseID uuid.UUID) (*models.Enrollment, error) {
	const q = `INSERT INTO enrollments (student_id, course_id) VALUES ($1, $2)
		RETURNING id, student_id, course_id, created_at`
	var e models.Enrollment
	err := r.pool.QueryRow(ctx, q, studentID, courseID).Scan(&e.ID, &e.StudentID, &e.CourseID, &e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyEnrolled
		}
		return nil, err
	}
	return &e, nil
}

// ListByStudent returns a student's enrollments joined with course and
// course owner, newest first.
func (r *Repository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Enrollment, error) {
	const q = `SELECT e.id, e.student_id, e.course_id, e.created_at,
			c.id, c.owner_id, c.code, c.title, c.unit, c.created_at,
			u.id, u.name, u.email, u.matric_number, u.department, u.faculty, u.phone_number, u.image_url, u.is_lecturer
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		JOIN users u ON u.id = c.owner_id
		WHERE e.student_id = $1
		ORDER BY e.created_at DESC`
	rows, err := r.pool.Query(ctx, q, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Enrollment
	for rows.Next() {
		var e models.Enrollment
		var course models.Course
		var owner models.UserPublic
		if err := rows.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.CreatedAt,
			&course.ID, &course.OwnerID, &course.Code, &course.Title, &course.Unit, &course.CreatedAt,
			&owner.ID, &owner.Name, &owner.Email, &owner.MatricNumber, &owner.Department, &owner.Faculty,
			&owner.PhoneNumber, &owner.ImageURL, &owner.IsLecturer); err != nil {
			return nil, err
		}
		course.Owner = &owner
		e.Course = &course
		list = append(list, e)
	}
	return list, rows.Err()
}
