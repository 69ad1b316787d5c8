package attendance

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ontime/backend/internal/middleware"
	"github.com/ontime/backend/internal/models"
	"github.com/ontime/backend/internal/realtime"
	"github.com/ontime/backend/pkg/response"
)

// Handler handles attendance HTTP endpoints.
type Handler struct {
	repo   *Repository
	hub    *realtime.Hub
	logger *zap.Logger
}

// NewHandler creates an attendance handler.
func NewHandler(repo *Repository, hub *realtime.Hub, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, hub: hub, logger: logger}
}

// Mark handles POST /api/attendance/:courseId/mark-as-attended/:date. The
// caller marks themselves present for the session.
func (h *Handler) Mark(c *gin.Context) {
	studentID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	date := c.Param("date")

	alreadyMarked, err := h.repo.Mark(c.Request.Context(), courseID, date, studentID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			response.NotFound(c, "Class on the specified date not found.")
			return
		}
		h.logger.Error("mark failed", zap.Error(err),
			zap.String("course_id", courseID.String()), zap.String("date", date))
		response.Internal(c, "failed to mark attendance")
		return
	}

	h.broadcast(c, courseID, date, studentID, alreadyMarked)

	if alreadyMarked {
		marksTotal.WithLabelValues("duplicate").Inc()
		response.OKMessage(c, "You have already been marked as attended!", nil)
		return
	}
	marksTotal.WithLabelValues("marked").Inc()
	response.OKMessage(c, "You have been marked as attended!", nil)
}

func (h *Handler) broadcast(c *gin.Context, courseID uuid.UUID, date string, studentID uuid.UUID, alreadyMarked bool) {
	if h.hub == nil {
		return
	}
	name, err := h.repo.StudentName(c.Request.Context(), studentID)
	if err != nil {
		h.logger.Warn("resolve student name failed", zap.Error(err))
	}
	h.hub.BroadcastMark(realtime.MarkEvent{
		CourseID:      courseID,
		Date:          date,
		StudentID:     studentID,
		StudentName:   name,
		AlreadyMarked: alreadyMarked,
	})
}

// ListDates handles GET /api/attendance/:courseId/class/dates. Scoped to the
// course's owning lecturer.
func (h *Handler) ListDates(c *gin.Context) {
	ownerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}

	dates, err := h.repo.ListDates(c.Request.Context(), courseID, ownerID)
	if err != nil {
		if errors.Is(err, ErrRosterNotFound) {
			response.NotFound(c, "No attendance record found.")
			return
		}
		h.logger.Error("list dates failed", zap.Error(err), zap.String("course_id", courseID.String()))
		response.Internal(c, "failed to list class dates")
		return
	}
	if dates == nil {
		dates = []string{}
	}
	response.OK(c, dates)
}

// ListAttendees handles GET /api/attendance/:courseId/:date. Scoped to the
// course's owning lecturer.
func (h *Handler) ListAttendees(c *gin.Context) {
	ownerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	date := c.Param("date")

	marks, err := h.repo.ListAttendees(c.Request.Context(), courseID, date, ownerID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			response.NotFound(c, "No attendance record found for the specified date.")
			return
		}
		h.logger.Error("list attendees failed", zap.Error(err),
			zap.String("course_id", courseID.String()), zap.String("date", date))
		response.Internal(c, "failed to list attendees")
		return
	}
	if marks == nil {
		marks = []models.AttendeeMark{}
	}
	response.OK(c, marks)
}

// ListHistory handles GET /api/attendance/:courseId. Returns the caller's own
// mark history for the course.
func (h *Handler) ListHistory(c *gin.Context) {
	studentID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}

	events, err := h.repo.ListHistory(c.Request.Context(), studentID, courseID)
	if err != nil {
		h.logger.Error("list history failed", zap.Error(err), zap.String("course_id", courseID.String()))
		response.Internal(c, "failed to list attendance history")
		return
	}
	if events == nil {
		events = []models.AttendanceEvent{}
	}
	response.OK(c, events)
}
