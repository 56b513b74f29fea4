package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Время, разрешенное для записи сообщения клиенту.
	writeWait = 10 * time.Second
	// Время, разрешенное для чтения следующего pong сообщения от клиента.
	pongWait = 60 * time.Second
	// Отправлять пинги клиенту с этим периодом. Должно быть меньше pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Максимальный размер сообщения, разрешенный от клиента.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS для websocket проверяется на уровне reverse proxy
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveWS обрабатывает входящий запрос на установку WebSocket соединения.
// Токен передается query-параметром: браузерный WebSocket API не умеет
// выставлять Authorization-заголовок.
func (h *ApiHandler) serveWS(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.String(http.StatusUnauthorized, "Unauthorized: Missing token")
		return
	}

	claims, err := h.authService.VerifyAccessToken(c.Request.Context(), tokenString)
	if err != nil {
		h.logger.Warn("WebSocket token verification failed", zap.Error(err))
		c.String(http.StatusUnauthorized, "Unauthorized: invalid token")
		return
	}
	profileID := claims.UserID.String()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Не пишем ошибку в ResponseWriter, upgrader уже это сделал
		h.logger.Error("Failed to upgrade connection", zap.Error(err), zap.String("profileID", profileID))
		return
	}

	h.logger.Info("WebSocket connection established", zap.String("profileID", profileID))

	client := &WSClient{
		ProfileID: profileID,
		Conn:      conn,
		send:      make(chan []byte, 256),
	}

	h.wsManager.RegisterClient(client)

	// Горутины чтения и записи этого соединения
	go client.writePump(h.wsManager, h.logger.With(zap.String("profileID", profileID)))
	go client.readPump(h.wsManager, h.logger.With(zap.String("profileID", profileID)))
}

// readPump откачивает сообщения от WebSocket соединения.
// Клиент ничего не должен присылать, входящие сообщения игнорируются.
func (c *WSClient) readPump(manager *ConnectionManager, logger *zap.Logger) {
	defer func() {
		manager.UnregisterClient(c)
		_ = c.Conn.Close()
		logger.Debug("readPump finished")
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error", zap.Error(err))
			}
			break
		}
		logger.Warn("Received unexpected message from client (ignored)", zap.Int("size", len(message)))
	}
}

// writePump откачивает сообщения из канала send в WebSocket соединение.
func (c *WSClient) writePump(manager *ConnectionManager, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		logger.Debug("writePump finished")
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Warn("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}
