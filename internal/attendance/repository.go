package attendance

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
	// ErrRosterNotFound is returned when a course has no roster for the
	// requesting owner. Roster creation is atomic with course creation, so
	// for an existing owned course this is an invariant violation.
	ErrRosterNotFound = errors.New("no attendance record found")
	// ErrSessionNotFound is returned when no session matches the date key.
	ErrSessionNotFound = errors.New("class on the specified date not found")
	// ErrDuplicateSession is returned when a session already exists for the
	// date within the roster.
	ErrDuplicateSession = errors.New("class on that date already exists")
)

// Repository handles roster, session and mark persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an attendance repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// OpenSession appends a new date-keyed session to the course's roster, scoped
// to the owning lecturer. At most one session may exist per date.
func (r *Repository) OpenSession(ctx context.Context, courseID, ownerID uuid.UUID, date string) (*models.Session, error) {
	var rosterID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM rosters WHERE course_id = $1 AND owner_id = $2`,
		courseID, ownerID,
	).Scan(&rosterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRosterNotFound
		}
		return nil, err
	}

	var s models.Session
	err = r.pool.QueryRow(ctx,
		`INSERT INTO roster_sessions (roster_id, date) VALUES ($1, $2)
		RETURNING id, roster_id, date, created_at`,
		rosterID, date,
	).Scan(&s.ID, &s.RosterID, &s.Date, &s.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateSession
		}
		return nil, err
	}
	return &s, nil
}

// Mark records a student present for the (course, date) session. The attendee
// insert is a single conditional statement, so a repeated call never produces
// a second mark and never disturbs other students' marks. An attendance event
// row is appended on every call, including repeats.
func (r *Repository) Mark(ctx context.Context, courseID uuid.UUID, date string, studentID uuid.UUID) (alreadyMarked bool, err error) {
	var sessionID uuid.UUID
	err = r.pool.QueryRow(ctx,
		`SELECT s.id FROM roster_sessions s
		JOIN rosters r ON r.id = s.roster_id
		WHERE r.course_id = $1 AND s.date = $2`,
		courseID, date,
	).Scan(&sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrSessionNotFound
		}
		return false, err
	}

	tag, err := r.pool.Exec(ctx,
		`INSERT INTO session_attendees (session_id, student_id) VALUES ($1, $2)
		ON CONFLICT (session_id, student_id) DO NOTHING`,
		sessionID, studentID,
	)
	if err != nil {
		return false, err
	}
	alreadyMarked = tag.RowsAffected() == 0

	_, err = r.pool.Exec(ctx,
		`INSERT INTO attendance_events (student_id, course_id, date) VALUES ($1, $2, $3)`,
		studentID, courseID, date,
	)
	if err != nil {
		return alreadyMarked, err
	}
	return alreadyMarked, nil
}

// ListDates returns the roster's session date keys, most recent first, scoped
// to the owning lecturer.
func (r *Repository) ListDates(ctx context.Context, courseID, ownerID uuid.UUID) ([]string, error) {
	var rosterID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM rosters WHERE course_id = $1 AND owner_id = $2`,
		courseID, ownerID,
	).Scan(&rosterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRosterNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT date FROM roster_sessions WHERE roster_id = $1 ORDER BY created_at DESC`,
		rosterID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// ListAttendees returns the marks for the exact (course, date, owner)
// session with each attendee's identity joined from the users table. Only
// the matching session is touched.
func (r *Repository) ListAttendees(ctx context.Context, courseID uuid.UUID, date string, ownerID uuid.UUID) ([]models.AttendeeMark, error) {
	var sessionID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT s.id FROM roster_sessions s
		JOIN rosters r ON r.id = s.roster_id
		WHERE r.course_id = $1 AND s.date = $2 AND r.owner_id = $3`,
		courseID, date, ownerID,
	).Scan(&sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT a.session_id, a.student_id, a.marked_at,
			u.id, u.name, u.email, u.matric_number, u.department, u.faculty, u.phone_number, u.image_url, u.is_lecturer
		FROM session_attendees a
		JOIN users u ON u.id = a.student_id
		WHERE a.session_id = $1
		ORDER BY a.marked_at DESC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var marks []models.AttendeeMark
	for rows.Next() {
		var m models.AttendeeMark
		var student models.UserPublic
		if err := rows.Scan(&m.SessionID, &m.StudentID, &m.MarkedAt,
			&student.ID, &student.Name, &student.Email, &student.MatricNumber, &student.Department,
			&student.Faculty, &student.PhoneNumber, &student.ImageURL, &student.IsLecturer); err != nil {
			return nil, err
		}
		m.Student = &student
		marks = append(marks, m)
	}
	return marks, rows.Err()
}

// ListHistory returns all attendance events for (student, course), each
// joined with the course and its owner.
func (r *Repository) ListHistory(ctx context.Context, studentID, courseID uuid.UUID) ([]models.AttendanceEvent, error) {
	const q = `SELECT e.id, e.student_id, e.course_id, e.date, e.created_at,
			c.id, c.owner_id, c.code, c.title, c.unit, c.created_at,
			u.id, u.name, u.email, u.matric_number, u.department, u.faculty, u.phone_number, u.image_url, u.is_lecturer
		FROM attendance_events e
		JOIN courses c ON c.id = e.course_id
		JOIN users u ON u.id = c.owner_id
		WHERE e.student_id = $1 AND e.course_id = $2`
	rows, err := r.pool.Query(ctx, q, studentID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.AttendanceEvent
	for rows.Next() {
		var e models.AttendanceEvent
		var course models.Course
		var owner models.UserPublic
		if err := rows.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.Date, &e.CreatedAt,
			&course.ID, &course.OwnerID, &course.Code, &course.Title, &course.Unit, &course.CreatedAt,
			&owner.ID, &owner.Name, &owner.Email, &owner.MatricNumber, &owner.Department, &owner.Faculty,
			&owner.PhoneNumber, &owner.ImageURL, &owner.IsLecturer); err != nil {
			return nil, err
		}
		course.Owner = &owner
		e.Course = &course
		events = append(events, e)
	}
	return events, rows.Err()
}

// StudentName returns the display name for a student, used in live feed
// broadcasts.
func (r *Repository) StudentName(ctx context.Context, studentID uuid.UUID) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM users WHERE id = $1`, studentID).Scan(&name)
	return name, err
}
