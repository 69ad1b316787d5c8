package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ontime/backend/internal/models"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrTokenNotFound is returned when no reset token matches.
	ErrTokenNotFound = errors.New("reset token not found")
)

const userColumns = `id, name, email, matric_number, department, faculty, phone_number,
	password_hash, image_url, COALESCE(image_key,''), is_lecturer, created_at, updated_at`

// Repository handles user and password-reset persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.MatricNumber, &u.Department, &u.Faculty,
		&u.PhoneNumber, &u.Password, &u.ImageURL, &u.ImageKey, &u.IsLecturer, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetByMatricNumber returns a user by matriculation/admission number.
func (r *Repository) GetByMatricNumber(ctx context.Context, matricNumber string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE matric_number = $1`, matricNumber))
}

// CreateUserParams holds the fields of a new user record.
type CreateUserParams struct {
	Name         string
	Email        string
	MatricNumber string
	Department   string
	Faculty      string
	PhoneNumber  string
	PasswordHash string
	IsLecturer   bool
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, p CreateUserParams) (*models.User, error) {
	const q = `INSERT INTO users (name, email, matric_number, department, faculty, phone_number, password_hash, is_lecturer)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q,
		p.Name, p.Email, p.MatricNumber, p.Department, p.Faculty, p.PhoneNumber, p.PasswordHash, p.IsLecturer))
}

// UpdateProfile replaces the mutable profile fields and returns the updated user.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, name, matricNumber, department, faculty, phoneNumber string) (*models.User, error) {
	const q = `UPDATE users SET name = $2, matric_number = $3, department = $4, faculty = $5,
		phone_number = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, id, name, matricNumber, department, faculty, phoneNumber))
}

// UpdatePassword sets a new password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateImage stores the uploaded image URL and object key.
func (r *Repository) UpdateImage(ctx context.Context, id uuid.UUID, imageURL, imageKey string) (*models.User, error) {
	const q = `UPDATE users SET image_url = $2, image_key = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, id, imageURL, imageKey))
}

// GetResetToken returns the pending reset token for a user, if any.
func (r *Repository) GetResetToken(ctx context.Context, userID uuid.UUID) (*models.PasswordResetToken, error) {
	const q = `SELECT id, user_id, code, created_at FROM password_reset_tokens WHERE user_id = $1`
	var t models.PasswordResetToken
	err := r.pool.QueryRow(ctx, q, userID).Scan(&t.ID, &t.UserID, &t.Code, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetResetTokenByCode returns the reset token matching (user, code).
func (r *Repository) GetResetTokenByCode(ctx context.Context, userID uuid.UUID, code string) (*models.PasswordResetToken, error) {
	const q = `SELECT id, user_id, code, created_at FROM password_reset_tokens WHERE user_id = $1 AND code = $2`
	var t models.PasswordResetToken
	err := r.pool.QueryRow(ctx, q, userID, code).Scan(&t.ID, &t.UserID, &t.Code, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &t, nil
}

// CreateResetToken inserts a reset token for a user.
func (r *Repository) CreateResetToken(ctx context.Context, userID uuid.UUID, code string) (*models.PasswordResetToken, error) {
	const q = `INSERT INTO password_reset_tokens (user_id, code) VALUES ($1, $2)
		RETURNING id, user_id, code, created_at`
	var t models.PasswordResetToken
	if err := r.pool.QueryRow(ctx, q, userID, code).Scan(&t.ID, &t.UserID, &t.Code, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteResetToken removes a user's reset token after use.
func (r *Repository) DeleteResetToken(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM password_reset_tokens WHERE user_id = $1`, userID)
	return err
}

// CreateEmailLog inserts a pending email log row and returns its ID.
func (r *Repository) CreateEmailLog(ctx context.Context, userID uuid.UUID, emailType, recipient, subject string) (uuid.UUID, error) {
	const q = `INSERT INTO email_logs (user_id, email_type, recipient_email, subject)
		VALUES ($1, $2, $3, $4) RETURNING id`
	var id uuid.UUID
	if err := r.pool.QueryRow(ctx, q, userID, emailType, recipient, subject).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
