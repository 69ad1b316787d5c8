package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultImageURL is the avatar assigned to users before they upload one.
const DefaultImageURL = "https://icon-library.com/images/anonymous-avatar-icon/anonymous-avatar-icon-25.jpg"

// User represents a registered student or lecturer.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	MatricNumber string    `json:"matric_number"`
	Department   string    `json:"department"`
	Faculty      string    `json:"faculty"`
	PhoneNumber  string    `json:"phone_number"`
	Password     string    `json:"-"`
	ImageURL     string    `json:"image"`
	ImageKey     string    `json:"-"`
	IsLecturer   bool      `json:"is_lecturer"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserPublic is User without credential fields for embedding in API responses.
type UserPublic struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	MatricNumber string    `json:"matric_number"`
	Department   string    `json:"department"`
	Faculty      string    `json:"faculty"`
	PhoneNumber  string    `json:"phone_number"`
	ImageURL     string    `json:"image"`
	IsLecturer   bool      `json:"is_lecturer"`
}

// ToPublic strips credential fields.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		MatricNumber: u.MatricNumber,
		Department:   u.Department,
		Faculty:      u.Faculty,
		PhoneNumber:  u.PhoneNumber,
		ImageURL:     u.ImageURL,
		IsLecturer:   u.IsLecturer,
	}
}

// PasswordResetToken is a pending 6-digit verification code for a user.
type PasswordResetToken struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}
