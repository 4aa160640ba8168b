// Package ws отдает события сессии по WebSocket.
package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/shenikar/incident_response_system/internal/pipeline"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// EventsHandler транслирует SessionEvent подписчику
type EventsHandler struct {
	pipeline pipeline.Pipeline
	logger   *logrus.Logger
	upgrader websocket.Upgrader
}

func NewEventsHandler(p pipeline.Pipeline, logger *logrus.Logger) *EventsHandler {
	return &EventsHandler{
		pipeline: p,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes регистрирует маршрут потока событий
func (h *EventsHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/sessions/:id/events", h.stream)
}

// @Summary Session event stream
// @Description WebSocket stream of state, progress, notification and translation events. The first message carries the current state.
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 101 {object} models.SessionEvent
// @Failure 404 {object} map[string]string
// @Router /sessions/{id}/events [get]
func (h *EventsHandler) stream(c *gin.Context) {
	log := h.logger.WithFields(logrus.Fields{
		"handler": "ws",
		"method":  "stream",
	})

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}
	log = log.WithField("session_id", id)

	ctx := c.Request.Context()
	events, cancel, err := h.pipeline.Subscribe(ctx, id)
	if err != nil {
		if errors.Is(err, pipeline.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		log.WithError(err).Error("Failed to subscribe")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to subscribe"})
		return
	}
	defer cancel()

	snap, err := h.pipeline.Session(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to upgrade connection")
		return
	}
	defer conn.Close()

	log.Info("Subscriber connected")

	closed := make(chan struct{})
	go h.readLoop(conn, closed, log)

	initial := models.SessionEvent{
		Type:      models.EventState,
		SessionID: id,
		State:     snap.State,
		Progress:  snap.Progress,
		Timestamp: snap.UpdatedAt,
	}
	if err := h.write(conn, initial); err != nil {
		log.WithError(err).Warn("Failed to write event")
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(writeWait))
				log.Info("Session closed, subscriber released")
				return
			}
			if err := h.write(conn, ev); err != nil {
				log.WithError(err).Warn("Failed to write event")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.WithError(err).Debug("Ping failed")
				return
			}
		case <-closed:
			log.Info("Subscriber disconnected")
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *EventsHandler) write(conn *websocket.Conn, ev models.SessionEvent) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(ev)
}

// readLoop читает входящие кадры, чтобы обрабатывались pong и close
func (h *EventsHandler) readLoop(conn *websocket.Conn, closed chan<- struct{}, log *logrus.Entry) {
	defer close(closed)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("Unexpected close")
			}
			return
		}
	}
}
