package realtime

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ontime/backend/internal/auth"
	"github.com/ontime/backend/internal/courses"
	"github.com/ontime/backend/pkg/response"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS handles GET /ws/attendance/:courseId?token=. Only the course's
// owning lecturer may subscribe to the live mark feed. The token travels in
// the query since browsers cannot set headers on WebSocket upgrades.
func ServeWS(hub *Hub, jwtService *auth.JWTService, courseRepo *courses.Repository, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID, err := uuid.Parse(c.Param("courseId"))
		if err != nil {
			response.BadRequest(c, "invalid course id")
			return
		}

		claims, err := jwtService.Validate(c.Query("token"))
		if err != nil {
			response.Unauthorized(c, "Not authorized, token failed!")
			return
		}
		if !claims.IsLecturer {
			response.Forbidden(c, "Not authorized as a lecturer")
			return
		}
		if _, err := courseRepo.GetOwned(c.Request.Context(), courseID, claims.UserID); err != nil {
			response.NotFound(c, "course not found")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", zap.Error(err))
			return
		}

		cl := &client{courseID: courseID, conn: conn, send: make(chan []byte, 16)}
		hub.register <- cl

		go writePump(cl)
		go readPump(hub, cl)
	}
}

func writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound messages; the feed is one-way. It exists to
// notice the close handshake and unregister the client.
func readPump(hub *Hub, c *client) {
	defer func() {
		hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
