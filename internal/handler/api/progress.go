package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"PriceOpt/internal/domain/models"
	domrepo "PriceOpt/internal/domain/repository"
	"PriceOpt/pkg/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// ProgressHandler streams enrichment progress of one session over a websocket.
type ProgressHandler struct {
	logger   *logger.Logger
	broker   domrepo.ProgressBroker
	upgrader websocket.Upgrader
}

func NewProgressHandler(lgr *logger.Logger, broker domrepo.ProgressBroker) *ProgressHandler {
	return &ProgressHandler{
		logger: lgr,
		broker: broker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *ProgressHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/data/:session/progress", h.Stream)
}

// Stream closes the socket after the complete or failed event.
func (h *ProgressHandler) Stream(c echo.Context) error {
	session := c.Param("session")
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already wrote the HTTP error
		h.logger.Warn("progress upgrade failed", logger.String("session", session), logger.Error(err))
		return nil
	}
	defer conn.Close()

	events, cancel := h.broker.Subscribe(session)
	defer cancel()

	// read loop: handles pongs and notices the client going away
	gone := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	h.logger.Debug("progress stream opened", logger.String("session", session))

	for {
		select {
		case <-gone:
			return nil
		case <-c.Request().Context().Done():
			return nil
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug("progress write failed", logger.String("session", session), logger.Error(err))
				return nil
			}
			if ev.Stage == models.StageComplete || ev.Stage == models.StageFailed {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(ev.Stage)),
					time.Now().Add(wsWriteWait))
				return nil
			}
		}
	}
}
