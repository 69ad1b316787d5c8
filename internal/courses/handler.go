package courses

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ontime/backend/internal/middleware"
	"github.com/ontime/backend/pkg/response"
)

// CreateRequest is the body for POST /api/courses/lecturers.
type CreateRequest struct {
	Title string `json:"title" binding:"required"`
	Code  string `json:"code" binding:"required"`
	Unit  string `json:"unit" binding:"required"`
}

// Handler handles course HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a courses handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /api/courses/lecturers. Creates the course together
// with its empty roster.
func (h *Handler) Create(c *gin.Context) {
	ownerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	course, err := h.repo.Create(c.Request.Context(), ownerID, req.Code, req.Title, req.Unit)
	if err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			response.Conflict(c, "Course with that code exist!")
			return
		}
		h.logger.Error("create course failed", zap.Error(err), zap.String("code", req.Code))
		response.Internal(c, "failed to create course")
		return
	}
	response.Created(c, course)
}

// ListOwn handles GET /api/courses/lecturers. Lists the caller's courses,
// optionally filtered by ?keyword=.
func (h *Handler) ListOwn(c *gin.Context) {
	ownerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.List(c.Request.Context(), &ownerID, c.Query("keyword"))
	if err != nil {
		h.logger.Error("list courses failed", zap.Error(err))
		response.Internal(c, "failed to list courses")
		return
	}
	response.OK(c, list)
}

// ListAll handles GET /api/courses/students. Lists every course, optionally
// filtered by ?keyword=.
func (h *Handler) ListAll(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), nil, c.Query("keyword"))
	if err != nil {
		h.logger.Error("list courses failed", zap.Error(err))
		response.Internal(c, "failed to list courses")
		return
	}
	response.OK(c, list)
}

// GetOwn handles GET /api/courses/lecturers/:id. Restricted to the owner.
func (h *Handler) GetOwn(c *gin.Context) {
	ownerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	course, err := h.repo.GetOwned(c.Request.Context(), id, ownerID)
	if err != nil {
		response.NotFound(c, "course not found")
		return
	}
	response.OK(c, course)
}

// Get handles GET /api/courses/students/:id. Unrestricted detail view.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	course, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "course not found")
		return
	}
	response.OK(c, course)
}
