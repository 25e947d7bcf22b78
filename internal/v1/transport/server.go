package transport

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/oceanlight-game/server/internal/v1/logging"
	"github.com/oceanlight-game/server/internal/v1/metrics"
	"github.com/oceanlight-game/server/internal/v1/ratelimit"
	"github.com/oceanlight-game/server/internal/v1/room"
	"github.com/oceanlight-game/server/internal/v1/types"
	"go.uber.org/zap"
)

// Server accepts WebSocket upgrades and binds each connection to a room
// via the manager. Browser games connect from arbitrary origins (itch.io
// iframes included), so the upgrader accepts any origin; the rate limiter
// is the admission control.
type Server struct {
	manager     *room.Manager
	rateLimiter *ratelimit.RateLimiter
	upgrader    websocket.Upgrader
}

func NewServer(manager *room.Manager, rateLimiter *ratelimit.RateLimiter) *Server {
	return &Server{
		manager:     manager,
		rateLimiter: rateLimiter,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
			WriteBufferPool: &sync.Pool{
				New: func() any {
					return make([]byte, 4096)
				},
			},
		},
	}
}

// ServeWs upgrades the request and admits the player. The `room` query
// param asks for a specific room (friends joining each other); the `name`
// param seeds the display name until JOIN_GAME replaces it.
func (s *Server) ServeWs(c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "websocket upgrade required"})
		return
	}

	// Response already written by CheckWebSocket on refusal.
	if !s.rateLimiter.CheckWebSocket(c) {
		return
	}

	preferredRoom := types.RoomIdType(c.Query("room"))
	displayName := types.CleanDisplayName(c.Query("name"))

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to upgrade connection", zap.Error(err))
		return
	}

	s.handleConnection(c, conn, preferredRoom, displayName)
}

// handleConnection places an upgraded connection into a room and starts
// its pumps. Split from ServeWs so tests can drive it with a fake socket.
func (s *Server) handleConnection(c *gin.Context, conn wsConnection, preferredRoom types.RoomIdType, displayName types.DisplayNameType) {
	r := s.manager.FindRoom(preferredRoom)

	client := newClient(conn, r)
	playerID, err := r.AddPlayer(client, displayName)
	if err != nil {
		// FindRoom only returns full rooms on a race; tell the peer and
		// close rather than leaving it hanging.
		logging.Warn(c.Request.Context(), "Admission failed after upgrade",
			zap.String("room_id", string(r.GetID())), zap.Error(err))
		if errors.Is(err, room.ErrRoomFull) {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "room full"))
		}
		conn.Close()
		return
	}
	client.playerID = playerID

	metrics.IncConnection()
	logging.Info(c.Request.Context(), "Player connected",
		zap.Int("player_id", int(playerID)),
		zap.String("room_id", string(r.GetID())),
		zap.String("remote_addr", c.ClientIP()),
	)

	go client.writePump()
	go client.readPump()
}
