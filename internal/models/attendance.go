package models

import (
	"time"

	"github.com/google/uuid"
)

// Roster is the per-course attendance aggregate. Exactly one exists per
// course, created together with it.
type Roster struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CourseID  uuid.UUID `json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is one date-keyed class meeting within a roster. The date is an
// opaque string key, unique within the roster.
type Session struct {
	ID        uuid.UUID `json:"id"`
	RosterID  uuid.UUID `json:"roster_id"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// AttendeeMark records that a student is present for a session.
type AttendeeMark struct {
	SessionID uuid.UUID  `json:"session_id"`
	StudentID uuid.UUID  `json:"student_id"`
	MarkedAt  time.Time  `json:"marked_at"`
	Student   *UserPublic `json:"student,omitempty"`
}

// AttendanceEvent is one row of the flat append-only mark log, used for
// per-student history queries.
type AttendanceEvent struct {
	ID        uuid.UUID `json:"id"`
	StudentID uuid.UUID `json:"student_id"`
	CourseID  uuid.UUID `json:"course_id"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
	Course    *Course   `json:"course,omitempty"`
}
