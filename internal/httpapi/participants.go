package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"attendance-console/internal/attendance"
	"attendance-console/internal/qrcode"
	"attendance-console/internal/scan"
	"attendance-console/internal/session"
)

// schedule loads the :scheduleId schedule and makes it the active one.
func (h *Handler) schedule(c *gin.Context) (attendance.Schedule, session.Session, bool) {
	sch, err := h.catalog.GetSchedule(c.Request.Context(), c.Param("scheduleId"))
	if err != nil {
		writeError(c, err)
		return attendance.Schedule{}, session.Session{}, false
	}
	sess, err := h.activate(c, sch)
	if err != nil {
		writeError(c, err)
		return attendance.Schedule{}, session.Session{}, false
	}
	return sch, sess, true
}

func (h *Handler) fetcher(sess session.Session, sch attendance.Schedule) func(context.Context) ([]attendance.Participant, error) {
	return func(ctx context.Context) ([]attendance.Participant, error) {
		return h.upstream.Participants(ctx, sess.UpstreamToken, sch.EventID, sch.ID)
	}
}

// ListParticipants returns one page of the roster, filtered by ?q=.
// ?refresh=1 reloads the list from upstream.
func (h *Handler) ListParticipants(c *gin.Context) {
	sch, sess, ok := h.schedule(c)
	if !ok {
		return
	}
	var (
		roster *attendance.Roster
		err    error
	)
	if c.Query("refresh") == "1" || c.Query("refresh") == "true" {
		var ps []attendance.Participant
		ps, err = h.fetcher(sess, sch)(c.Request.Context())
		if err == nil {
			roster = h.rosters.Load(sch.ID, ps)
		}
	} else {
		roster, err = h.rosters.Ensure(c.Request.Context(), sch.ID, h.fetcher(sess, sch))
	}
	if err != nil {
		writeError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	c.JSON(http.StatusOK, gin.H{
		"schedule": sch,
		"page":     attendance.Paginate(roster.Search(c.Query("q")), page, attendance.PerPage),
	})
}

// ParticipantActions lists the enabled and disabled actions of one participant.
func (h *Handler) ParticipantActions(c *gin.Context) {
	sch, sess, ok := h.schedule(c)
	if !ok {
		return
	}
	roster, err := h.rosters.Ensure(c.Request.Context(), sch.ID, h.fetcher(sess, sch))
	if err != nil {
		writeError(c, err)
		return
	}
	p, found := roster.Get(c.Param("participantId"))
	if !found {
		writeError(c, attendance.ErrParticipantNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participant": p, "actions": attendance.Available(p, sch.Config())})
}

type markRequest struct {
	Action string `json:"action" binding:"required,oneof=CHECKIN CHECKOUT BOTH"`
}

func (h *Handler) Mark(c *gin.Context) {
	h.toggle(c, attendance.DirectionMark)
}

func (h *Handler) Unmark(c *gin.Context) {
	h.toggle(c, attendance.DirectionUnmark)
}

func (h *Handler) toggle(c *gin.Context, dir attendance.Direction) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	action, _ := attendance.ParseAction(req.Action)

	sch, sess, ok := h.schedule(c)
	if !ok {
		return
	}
	if _, err := h.rosters.Ensure(c.Request.Context(), sch.ID, h.fetcher(sess, sch)); err != nil {
		writeError(c, err)
		return
	}

	cmd := attendance.Command{
		ScheduleID:    sch.ID,
		ParticipantID: c.Param("participantId"),
		Config:        sch.Config(),
		Action:        action,
		Token:         sess.UpstreamToken,
		Source:        "manual",
	}
	var (
		p   attendance.Participant
		err error
	)
	if dir == attendance.DirectionMark {
		p, err = h.dispatcher.Mark(c.Request.Context(), cmd)
	} else {
		p, err = h.dispatcher.Unmark(c.Request.Context(), cmd)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	msg := "Attendance Marked"
	if dir == attendance.DirectionUnmark {
		msg = "Attendance Unmarked"
	}
	c.JSON(http.StatusOK, gin.H{
		"participant": p,
		"actions":     attendance.Available(p, sch.Config()),
		"message":     msg,
	})
}

// Scan submits a scanned payload against the schedule in the path.
func (h *Handler) Scan(c *gin.Context) {
	var req struct {
		Raw  string `json:"raw" binding:"required"`
		Mode string `json:"mode" binding:"omitempty,oneof=IN OUT"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sch, sess, ok := h.schedule(c)
	if !ok {
		return
	}
	if _, err := h.rosters.Ensure(c.Request.Context(), sch.ID, h.fetcher(sess, sch)); err != nil {
		writeError(c, err)
		return
	}

	res, err := h.station.Scan(c.Request.Context(), scan.Request{
		Raw:      req.Raw,
		Mode:     scan.Mode(req.Mode),
		Schedule: sch,
		Token:    sess.UpstreamToken,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ScannerState reports idle/pending/success/error for the schedule's scanner.
func (h *Handler) ScannerState(c *gin.Context) {
	sch, err := h.catalog.GetSchedule(c.Request.Context(), c.Param("scheduleId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.station.State(sch.ID))
}

// Badge renders the QR code a participant shows at the door.
func (h *Handler) Badge(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(qrcode.DefaultSize)))
	if size < 64 || size > 1024 {
		size = qrcode.DefaultSize
	}
	png, err := qrcode.Badge(c.Param("participantId"), c.Param("scheduleId"), size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
