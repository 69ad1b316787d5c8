package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MarkEvent is broadcast to a course's live feed on every mark call.
type MarkEvent struct {
	CourseID      uuid.UUID `json:"course_id"`
	Date          string    `json:"date"`
	StudentID     uuid.UUID `json:"student_id"`
	StudentName   string    `json:"student_name"`
	AlreadyMarked bool      `json:"already_marked"`
}

type client struct {
	courseID uuid.UUID
	conn     *websocket.Conn
	send     chan []byte
}

type courseMessage struct {
	courseID uuid.UUID
	data     []byte
}

// Hub fans mark events out to WebSocket clients watching a course. All
// client-set mutation happens on the Run goroutine.
type Hub struct {
	logger     *zap.Logger
	register   chan *client
	unregister chan *client
	broadcast  chan courseMessage
	clients    map[uuid.UUID]map[*client]bool
}

// NewHub creates a hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:     logger,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan courseMessage, 64),
		clients:    make(map[uuid.UUID]map[*client]bool),
	}
}

// Run processes registration and broadcast events until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for c := range conns {
					close(c.send)
				}
			}
			return
		case c := <-h.register:
			if h.clients[c.courseID] == nil {
				h.clients[c.courseID] = make(map[*client]bool)
			}
			h.clients[c.courseID][c] = true
		case c := <-h.unregister:
			if conns, ok := h.clients[c.courseID]; ok && conns[c] {
				delete(conns, c)
				close(c.send)
				if len(conns) == 0 {
					delete(h.clients, c.courseID)
				}
			}
		case msg := <-h.broadcast:
			for c := range h.clients[msg.courseID] {
				select {
				case c.send <- msg.data:
				default:
					// Slow consumer, drop it.
					delete(h.clients[msg.courseID], c)
					close(c.send)
				}
			}
		}
	}
}

// BroadcastMark sends a mark event to every client watching the course.
func (h *Hub) BroadcastMark(ev MarkEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Warn("marshal mark event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- courseMessage{courseID: ev.CourseID, data: data}:
	default:
		h.logger.Warn("broadcast queue full, dropping mark event",
			zap.String("course_id", ev.CourseID.String()))
	}
}
