package notification

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

// UserIDHeader заголовок, который выставляет аутентифицирующий прокси
const UserIDHeader = "X-User-ID"

const (
	wsWriteTimeout = 5 * time.Second
	wsPingInterval = 30 * time.Second
)

// WSHandler отдаёт события пользователя по websocket в виде JSON
type WSHandler struct {
	hub          *Hub
	pingInterval time.Duration
	logger       *zap.Logger
}

func NewWSHandler(hub *Hub, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:          hub,
		pingInterval: wsPingInterval,
		logger:       logger,
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.Header.Get(UserIDHeader), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket accept failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	sub := h.hub.Subscribe(userID)
	defer sub.Close()

	h.logger.Info("Websocket connected", zap.Int64("user_id", userID))

	// Входящие сообщения не ожидаются; CloseRead отменяет ctx при закрытии клиентом
	ctx := conn.CloseRead(r.Context())

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Websocket disconnected", zap.Int64("user_id", userID))
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := h.write(ctx, conn, event); err != nil {
				h.logger.Warn("Websocket write failed", zap.Int64("user_id", userID), zap.Error(err))
				conn.Close(websocket.StatusAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				h.logger.Info("Websocket ping failed", zap.Int64("user_id", userID), zap.Error(err))
				conn.Close(websocket.StatusGoingAway, "heartbeat failed")
				return
			}
		}
	}
}

func (h *WSHandler) write(ctx context.Context, conn *websocket.Conn, v any) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}
