package models

import (
	"time"

	"github.com/google/uuid"
)

// Course is a lecturer-owned course. Code is unique system-wide.
type Course struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	Code      string     `json:"code"`
	Title     string     `json:"title"`
	Unit      string     `json:"unit"`
	CreatedAt time.Time  `json:"created_at"`
	Owner     *UserPublic `json:"owner,omitempty"`
}

// Enrollment records a student following a course. Unique per (student, course).
type Enrollment struct {
	ID        uuid.UUID `json:"id"`
	StudentID uuid.UUID `json:"student_id"`
	CourseID  uuid.UUID `json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
	Course    *Course   `json:"course,omitempty"`
}
