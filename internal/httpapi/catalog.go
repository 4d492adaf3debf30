package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"attendance-console/internal/attendance"
)

// ListEvents filters the catalog by ?q=, ?organizer= and ?day=.
func (h *Handler) ListEvents(c *gin.Context) {
	f := attendance.EventFilter{
		Query:     c.Query("q"),
		Organizer: c.Query("organizer"),
		Day:       c.Query("day"),
	}
	events, err := h.catalog.ListEvents(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	if events == nil {
		events = []attendance.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *Handler) Organizers(c *gin.Context) {
	orgs, err := h.catalog.Organizers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organizers": orgs})
}

func (h *Handler) ListSchedules(c *gin.Context) {
	ev, err := h.catalog.GetEvent(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		writeError(c, err)
		return
	}
	schedules, err := h.catalog.ListSchedules(c.Request.Context(), ev.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	if schedules == nil {
		schedules = []attendance.Schedule{}
	}
	c.JSON(http.StatusOK, gin.H{"event": ev, "schedules": schedules})
}

// History lists recent mark/unmark outcomes of a schedule.
func (h *Handler) History(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	entries, err := h.catalog.History(c.Request.Context(), c.Param("scheduleId"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []attendance.Outcome{}
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}
