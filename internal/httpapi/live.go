package httpapi

import (
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"attendance-console/internal/auth"
	"attendance-console/internal/live"
)

func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// Live streams mark and unmark outcomes of a schedule over a websocket.
func (h *Handler) Live(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "live feed disabled"})
		return
	}
	claims, err := auth.Parse(c.Query("token"), h.signingKey, h.issuer)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if _, err := h.sessions.Load(c.Request.Context(), claims.Subject); err != nil {
		writeError(c, err)
		return
	}

	// subscribe before the handshake completes so nothing published after
	// the client sees the upgrade is missed
	msgs, cancel := h.hub.Subscribe(c.Param("scheduleId"))
	defer cancel()

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("live: upgrade failed: %v", err)
		return
	}
	live.Serve(conn, msgs)
}
