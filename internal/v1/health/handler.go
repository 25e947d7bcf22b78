// Package health serves the read-only HTTP surface: liveness for probes,
// plus aggregate stats and a room listing for dashboards.
package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oceanlight-game/server/internal/v1/room"
)

// Directory is the view of the room manager the HTTP surface needs.
type Directory interface {
	GetStats() room.Stats
	GetRoomList() []room.Info
}

// Handler serves the health and introspection endpoints.
type Handler struct {
	directory Directory
	startedAt time.Time
}

// NewHandler creates a handler over the given room directory.
func NewHandler(directory Directory) *Handler {
	return &Handler{
		directory: directory,
		startedAt: time.Now(),
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// Health handles GET /health. The server has no external dependencies, so
// answering at all means it is healthy.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Stats handles GET /stats with aggregate room and player counts.
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.directory.GetStats())
}

// Rooms handles GET /rooms with one entry per active room, fullest first.
func (h *Handler) Rooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.directory.GetRoomList()})
}

// Register mounts the endpoints on the given router group.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/stats", h.Stats)
	r.GET("/rooms", h.Rooms)
}
