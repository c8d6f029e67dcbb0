package relay

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/aaronzipp/link-race/internal/models"
)

// Handler holds the relay's HTTP endpoints
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates the handler set
func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes registers all routes on the Gin engine
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/ws/:code", h.WebSocket)
}

// Health reports connection counts
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"clients": h.hub.ClientCount(),
		"matches": h.hub.MatchCount(),
	})
}

// WebSocket upgrades a peer joining match :code as ?id=&name=
func (h *Handler) WebSocket(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	id := strings.TrimSpace(c.Query("id"))
	name := strings.TrimSpace(c.Query("name"))
	if code == "" || id == "" || name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code, id and name are required"})
		return
	}
	if strings.Contains(id, ":") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must not contain ':'"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response
		return
	}
	client := NewClient(code, models.PlayerProfile{PlayerID: id, Name: name}, conn, h.hub)
	client.Run(c.Request.Context())
}
