package enrollments

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ontime/backend/internal/courses"
	"github.com/ontime/backend/internal/middleware"
	"github.com/ontime/backend/pkg/response"
)

// EnrollRequest is the body for POST /api/courses/students.
type EnrollRequest struct {
	CourseID string `json:"id" binding:"required,uuid"`
}

// Handler handles enrollment HTTP endpoints.
type Handler struct {
	repo       *Repository
	courseRepo *courses.Repository
	logger     *zap.Logger
}

// NewHandler creates an enrollments handler.
func NewHandler(repo *Repository, courseRepo *courses.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, courseRepo: courseRepo, logger: logger}
}

// Enroll handles POST /api/courses/students.
func (h *Handler) Enroll(c *gin.Context) {
	studentID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	courseID := uuid.MustParse(req.CourseID)

	if _, err := h.courseRepo.GetByID(c.Request.Context(), courseID); err != nil {
		response.NotFound(c, "course not found")
		return
	}

	if _, err := h.repo.Create(c.Request.Context(), studentID, courseID); err != nil {
		if errors.Is(err, ErrAlreadyEnrolled) {
			response.Conflict(c, "You are already offering this course!")
			return
		}
		h.logger.Error("enroll failed", zap.Error(err), zap.String("course_id", courseID.String()))
		response.Internal(c, "failed to add course")
		return
	}
	response.Created(c, gin.H{"message": "You have successfully added the course!"})
}

// ListMine handles GET /api/courses/students/mine.
func (h *Handler) ListMine(c *gin.Context) {
	studentID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		h.logger.Error("list enrollments failed", zap.Error(err))
		response.Internal(c, "failed to list courses")
		return
	}
	response.OK(c, list)
}
