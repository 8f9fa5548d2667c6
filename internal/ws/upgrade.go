package ws

import (
	"net/http"
	"strings"
	"time"

	"eloboost/config"
	"eloboost/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const maxInboundMessage = 4096

// Serve authenticates the request (token query parameter or bearer header), upgrades it and
// registers the connection until the peer goes away. Inbound frames are ignored.
func Serve(jwtCfg *config.JWTConfig, rt config.RealtimeConfig, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}
		claims, err := auth.ParseAccessToken(jwtCfg, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.Debug("upgrade failed", zap.Error(err))
			return
		}
		client := NewClient(claims.UserID, claims.Roles, rt.SendBuffer)
		hub.Register(client)
		hub.log.Debug("connected", zap.Uint("user_id", client.UserID), zap.Strings("roles", client.Roles))

		go writePump(client, conn, rt)
		readPump(conn, rt)
		client.Close()
		hub.log.Debug("disconnected", zap.Uint("user_id", client.UserID))
	}
}

// writePump copies messages from client.Send to the connection and keeps it alive with pings.
func writePump(c *Client, conn *websocket.Conn, rt config.RealtimeConfig) {
	ticker := time.NewTicker(rt.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			conn.SetWriteDeadline(time.Now().Add(rt.WriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(rt.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the connection until it fails or the pong deadline passes.
func readPump(conn *websocket.Conn, rt config.RealtimeConfig) {
	conn.SetReadLimit(maxInboundMessage)
	conn.SetReadDeadline(time.Now().Add(rt.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(rt.PongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
