package qrcode

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ontime/backend/internal/attendance"
	"github.com/ontime/backend/internal/courses"
	"github.com/ontime/backend/internal/middleware"
	"github.com/ontime/backend/pkg/redis"
	"github.com/ontime/backend/pkg/response"
)

// codeTTL bounds how long a generated code stays scannable.
const codeTTL = time.Hour

// Handler generates per-class QR codes for course owners.
type Handler struct {
	courses    *courses.Repository
	attendance *attendance.Repository
	cache      *redis.Client
	clientURL  string
	logger     *zap.Logger
}

// NewHandler creates a QR code handler. cache may be nil, in which case the
// generated data URL is not cached.
func NewHandler(courseRepo *courses.Repository, attendanceRepo *attendance.Repository, cache *redis.Client, clientURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		courses:    courseRepo,
		attendance: attendanceRepo,
		cache:      cache,
		clientURL:  clientURL,
		logger:     logger,
	}
}

// GenerateRequest is the POST body for code generation.
type GenerateRequest struct {
	Date string `json:"date" binding:"required"`
}

// GenerateResponse carries the rendered image and the link it encodes.
type GenerateResponse struct {
	QRCode    string `json:"qrcode"`
	URL       string `json:"url"`
	Date      string `json:"date"`
	ExpiresAt string `json:"expiresAt"`
}

func cacheKey(courseID uuid.UUID, date string) string {
	return fmt.Sprintf("qrcode:%s:%s", courseID.String(), date)
}

// Generate handles POST /api/qrcode/generate/:courseId. It opens the class
// session for the given date and returns a scannable code for it. The caller
// must own the course.
func (h *Handler) Generate(c *gin.Context) {
	ownerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "date is required")
		return
	}

	if _, err := h.courses.GetOwned(c.Request.Context(), courseID, ownerID); err != nil {
		if errors.Is(err, courses.ErrCourseNotFound) {
			response.NotFound(c, "Course not found.")
			return
		}
		h.logger.Error("course lookup failed", zap.Error(err), zap.String("course_id", courseID.String()))
		response.Internal(c, "failed to generate QR code")
		return
	}

	if _, err := h.attendance.OpenSession(c.Request.Context(), courseID, ownerID, req.Date); err != nil {
		switch {
		case errors.Is(err, attendance.ErrDuplicateSession):
			response.Conflict(c, "Class on that date already exists!")
		case errors.Is(err, attendance.ErrRosterNotFound):
			response.NotFound(c, "No attendance record found.")
		default:
			h.logger.Error("open session failed", zap.Error(err),
				zap.String("course_id", courseID.String()), zap.String("date", req.Date))
			response.Internal(c, "failed to generate QR code")
		}
		return
	}

	dataURL, err := Generate(h.clientURL, courseID, req.Date)
	if err != nil {
		h.logger.Error("qr encode failed", zap.Error(err), zap.String("course_id", courseID.String()))
		response.Internal(c, "failed to generate QR code")
		return
	}

	expiresAt := time.Now().Add(codeTTL)
	if h.cache != nil {
		if err := h.cache.Set(c.Request.Context(), cacheKey(courseID, req.Date), dataURL, codeTTL).Err(); err != nil {
			h.logger.Warn("qr cache write failed", zap.Error(err))
		}
	}

	response.Created(c, GenerateResponse{
		QRCode:    dataURL,
		URL:       MarkURL(h.clientURL, courseID, req.Date),
		Date:      req.Date,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}
