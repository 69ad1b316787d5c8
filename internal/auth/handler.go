package auth

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math/rand"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ontime/backend/internal/models"
	"github.com/ontime/backend/pkg/queue"
	"github.com/ontime/backend/pkg/response"
	"github.com/ontime/backend/pkg/storage"
	"github.com/ontime/backend/pkg/utils"
)

// RegisterStudentRequest is the body for POST /api/users.
type RegisterStudentRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	MatricNumber string `json:"matric_number" binding:"required,min=8,max=12"`
	Department   string `json:"department" binding:"required"`
	Faculty      string `json:"faculty" binding:"required"`
	PhoneNumber  string `json:"phone_number" binding:"required,len=11"`
	Password     string `json:"password" binding:"required,min=6"`
}

// RegisterLecturerRequest is the body for POST /api/users/lecturer.
type RegisterLecturerRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Department  string `json:"department" binding:"required"`
	Faculty     string `json:"faculty" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Password    string `json:"password" binding:"required,min=6"`
}

// LoginRequest is the body for POST /api/users/auth.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles user and credential HTTP endpoints.
type Handler struct {
	repo   *Repository
	jwt    *JWTService
	jobs   *queue.Queue
	images *storage.S3 // nil when image storage is not configured
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, jobs *queue.Queue, images *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, jobs: jobs, images: images, logger: logger}
}

// RegisterStudent handles POST /api/users.
func (h *Handler) RegisterStudent(c *gin.Context) {
	var req RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if _, err := h.repo.GetByEmail(c.Request.Context(), req.Email); err == nil {
		response.Conflict(c, "User already exists!")
		return
	}
	if _, err := h.repo.GetByMatricNumber(c.Request.Context(), req.MatricNumber); err == nil {
		response.Conflict(c, "User with matriculation/admission number already exist!")
		return
	}

	h.createAndRespond(c, CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		MatricNumber: req.MatricNumber,
		Department:   req.Department,
		Faculty:      req.Faculty,
		PhoneNumber:  req.PhoneNumber,
		IsLecturer:   false,
	}, req.Password)
}

// RegisterLecturer handles POST /api/users/lecturer. Lecturers get a
// generated matric number since they have none.
func (h *Handler) RegisterLecturer(c *gin.Context) {
	var req RegisterLecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if _, err := h.repo.GetByEmail(c.Request.Context(), req.Email); err == nil {
		response.Conflict(c, "User already exists!")
		return
	}

	h.createAndRespond(c, CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		MatricNumber: uuid.New().String(),
		Department:   req.Department,
		Faculty:      req.Faculty,
		PhoneNumber:  req.PhoneNumber,
		IsLecturer:   true,
	}, req.Password)
}

func (h *Handler) createAndRespond(c *gin.Context, params CreateUserParams, password string) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	params.PasswordHash = hash

	user, err := h.repo.Create(c.Request.Context(), params)
	if err != nil {
		h.logger.Error("create user failed", zap.Error(err), zap.String("email", params.Email))
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, user.IsLecturer)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /api/users/auth.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil || !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "Invalid email or password!")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, user.IsLecturer)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Logout handles POST /api/users/logout. Tokens are stateless; the client
// simply discards its copy.
func (h *Handler) Logout(c *gin.Context) {
	response.OKMessage(c, "Logged out successfully!", nil)
}

// UpdateProfileRequest is the body for PUT /api/users/profile. Empty fields
// keep their current value.
type UpdateProfileRequest struct {
	Name         string `json:"name"`
	MatricNumber string `json:"matric_number"`
	Department   string `json:"department"`
	Faculty      string `json:"faculty"`
	PhoneNumber  string `json:"phone_number"`
}

// UpdateProfile handles PUT /api/users/profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}

	updated, err := h.repo.UpdateProfile(c.Request.Context(), userID,
		orDefault(req.Name, user.Name),
		orDefault(req.MatricNumber, user.MatricNumber),
		orDefault(req.Department, user.Department),
		orDefault(req.Faculty, user.Faculty),
		orDefault(req.PhoneNumber, user.PhoneNumber),
	)
	if err != nil {
		h.logger.Error("update profile failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to update profile")
		return
	}

	token, err := h.jwt.Generate(updated.ID, updated.Email, updated.IsLecturer)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: updated.ToPublic()})
}

// UpdatePasswordRequest is the body for PUT /api/users/password.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// UpdatePassword handles PUT /api/users/password.
func (h *Handler) UpdatePassword(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		response.BadRequest(c, "Passwords do not match!")
		return
	}

	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}
	if !utils.CheckPassword(req.CurrentPassword, user.Password) {
		response.Unauthorized(c, "Current password is incorrect!")
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	if err := h.repo.UpdatePassword(c.Request.Context(), userID, hash); err != nil {
		response.Internal(c, "failed to update password")
		return
	}
	response.OKMessage(c, "Password updated successfully!", nil)
}

// ResetPasswordRequest is the body for POST /api/users/reset-password.
type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPassword handles POST /api/users/reset-password. Issues a 6-digit
// verification code and queues the email for the background worker; delivery
// status lands in email_logs.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "The email provided doesn't match any existing user! Please sign up now!")
		return
	}

	if _, err := h.repo.GetResetToken(c.Request.Context(), user.ID); err == nil {
		response.Unauthorized(c, "A verification code has already been dispatched to your email!")
		return
	}

	code := fmt.Sprintf("%06d", 100000+rand.Intn(900000))
	token, err := h.repo.CreateResetToken(c.Request.Context(), user.ID, code)
	if err != nil {
		h.logger.Error("create reset token failed", zap.Error(err), zap.String("user_id", user.ID.String()))
		response.Internal(c, "failed to create verification code")
		return
	}

	subject := "Verification code"
	logID, err := h.repo.CreateEmailLog(c.Request.Context(), user.ID, models.EmailTypeVerificationCode, user.Email, subject)
	if err != nil {
		h.logger.Error("create email log failed", zap.Error(err))
		response.Internal(c, "failed to queue email")
		return
	}

	err = h.jobs.EnqueueEmail(c.Request.Context(), queue.EmailPayload{
		EmailLogID:     logID,
		UserID:         user.ID,
		RecipientEmail: user.Email,
		RecipientName:  user.Name,
		Subject:        subject,
		BodyText:       "Your verification code is: " + token.Code,
		BodyHTML:       verificationEmailHTML(token.Code),
	})
	if err != nil {
		h.logger.Error("enqueue email failed", zap.Error(err))
		response.Internal(c, "failed to queue email")
		return
	}

	response.Created(c, gin.H{"message": "Email sent successfully!"})
}

// VerifyCodeRequest is the body for POST /api/users/verify-code.
type VerifyCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// VerifyCode handles POST /api/users/verify-code.
func (h *Handler) VerifyCode(c *gin.Context) {
	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "The email provided doesn't match any existing user!")
		return
	}
	if _, err := h.repo.GetResetTokenByCode(c.Request.Context(), user.ID, req.Code); err != nil {
		response.Unauthorized(c, "Invalid verification code!")
		return
	}
	response.OK(c, gin.H{"id": user.ID, "code": req.Code})
}

// UpdateNewPasswordRequest is the body for POST /api/users/update-password/:id/:code.
type UpdateNewPasswordRequest struct {
	NewPassword     string `json:"new_password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// UpdateNewPassword handles POST /api/users/update-password/:id/:code. Final
// step of the reset flow; consumes the verification code.
func (h *Handler) UpdateNewPassword(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	code := c.Param("code")

	var req UpdateNewPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		response.BadRequest(c, "Passwords do not match!")
		return
	}

	if _, err := h.repo.GetResetTokenByCode(c.Request.Context(), userID, code); err != nil {
		response.Unauthorized(c, "Invalid verification code!")
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	if err := h.repo.UpdatePassword(c.Request.Context(), userID, hash); err != nil {
		response.Internal(c, "failed to update password")
		return
	}
	if err := h.repo.DeleteResetToken(c.Request.Context(), userID); err != nil {
		h.logger.Warn("delete reset token failed", zap.Error(err), zap.String("user_id", userID.String()))
	}
	response.OKMessage(c, "Password updated successfully!", nil)
}

// UploadImageRequest is the body for PUT /api/users/image. Image is a base64
// data URL (data:image/png;base64,...).
type UploadImageRequest struct {
	Image string `json:"image" binding:"required"`
}

// UploadImage handles PUT /api/users/image. Stores the decoded image in S3
// and saves its public URL on the user.
func (h *Handler) UploadImage(c *gin.Context) {
	if h.images == nil {
		response.Internal(c, "image storage not configured")
		return
	}
	userID := c.MustGet("user_id").(uuid.UUID)

	var req UploadImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	contentType, data, err := decodeDataURL(req.Image)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ext, ok := storage.AllowedImageTypes[contentType]
	if !ok {
		response.BadRequest(c, "unsupported image type: "+contentType)
		return
	}
	if len(data) > storage.MaxImageSize {
		response.BadRequest(c, "image exceeds size limit")
		return
	}

	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}

	key := storage.ImageKey(userID.String(), ext)
	url, err := h.images.UploadImage(c.Request.Context(), key, contentType, bytes.NewReader(data))
	if err != nil {
		h.logger.Error("image upload failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "image upload failed")
		return
	}

	// Remove the previous object when the extension changed.
	if user.ImageKey != "" && user.ImageKey != key {
		if err := h.images.DeleteObject(c.Request.Context(), user.ImageKey); err != nil {
			h.logger.Warn("delete previous image failed", zap.Error(err), zap.String("key", user.ImageKey))
		}
	}

	updated, err := h.repo.UpdateImage(c.Request.Context(), userID, url, key)
	if err != nil {
		response.Internal(c, "failed to save image")
		return
	}

	token, err := h.jwt.Generate(updated.ID, updated.Email, updated.IsLecturer)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: updated.ToPublic()})
}

func decodeDataURL(s string) (contentType string, data []byte, err error) {
	const marker = ";base64,"
	if !strings.HasPrefix(s, "data:") {
		return "", nil, fmt.Errorf("image must be a base64 data URL")
	}
	idx := strings.Index(s, marker)
	if idx < 0 {
		return "", nil, fmt.Errorf("image must be a base64 data URL")
	}
	contentType = s[len("data:"):idx]
	data, err = base64.StdEncoding.DecodeString(s[idx+len(marker):])
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 image data")
	}
	return contentType, data, nil
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func verificationEmailHTML(code string) string {
	return `<div style="font-family: Montserrat, sans-serif; font-size: 15px; padding: 2rem;">
		<h2>On Time</h2>
		<p>We received a request to reset the password for your account. To proceed with the password reset process, please use the following verification code:</p>
		<h1>` + code + `</h1>
		<p>Please enter this code on the password reset page to complete the process. There's nothing to do or worry about if it wasn't you.</p>
		<p>Best regards,</p>
		<p>On Time</p>
	</div>`
}
