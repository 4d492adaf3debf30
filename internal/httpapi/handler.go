package httpapi

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"attendance-console/internal/attendance"
	"attendance-console/internal/auth"
	"attendance-console/internal/live"
	"attendance-console/internal/scan"
	"attendance-console/internal/session"
)

// Catalog is the event/schedule catalog and outcome history.
type Catalog interface {
	ListEvents(ctx context.Context, f attendance.EventFilter) ([]attendance.Event, error)
	Organizers(ctx context.Context) ([]string, error)
	GetEvent(ctx context.Context, id string) (attendance.Event, error)
	ListSchedules(ctx context.Context, eventID string) ([]attendance.Schedule, error)
	GetSchedule(ctx context.Context, id string) (attendance.Schedule, error)
	History(ctx context.Context, scheduleID string, limit int) ([]attendance.Outcome, error)
}

// Upstream is the participant-listing and login side of the attendance API.
type Upstream interface {
	Login(ctx context.Context, email, password string) (string, error)
	Participants(ctx context.Context, token, eventID, scheduleID string) ([]attendance.Participant, error)
}

// Handler serves the console API.
type Handler struct {
	catalog    Catalog
	upstream   Upstream
	sessions   session.Store
	rosters    *attendance.Rosters
	dispatcher *attendance.Dispatcher
	station    *scan.Station
	hub        *live.Hub
	origins    []string

	issuer     string
	signingKey string
	accessTTL  time.Duration
}

// Options collects Handler dependencies.
type Options struct {
	Catalog    Catalog
	Upstream   Upstream
	Sessions   session.Store
	Rosters    *attendance.Rosters
	Dispatcher *attendance.Dispatcher
	Station    *scan.Station
	// Hub is optional; without it the live feed answers 404.
	Hub *live.Hub
	// Origins allowed to open the live feed. "*" allows any.
	Origins    []string
	Issuer     string
	SigningKey string
	AccessTTL  time.Duration
}

func New(o Options) *Handler {
	return &Handler{
		catalog:    o.Catalog,
		upstream:   o.Upstream,
		sessions:   o.Sessions,
		rosters:    o.Rosters,
		dispatcher: o.Dispatcher,
		station:    o.Station,
		hub:        o.Hub,
		origins:    o.Origins,
		issuer:     o.Issuer,
		signingKey: o.SigningKey,
		accessTTL:  o.AccessTTL,
	}
}

// Routes registers the console API on r.
func (h *Handler) Routes(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.POST("/login", h.Login)
	v1.GET("/events", h.ListEvents)
	v1.GET("/organizers", h.Organizers)
	v1.GET("/events/:eventId/schedules", h.ListSchedules)
	// browsers cannot set headers on websocket requests; the token is a query param
	v1.GET("/schedules/:scheduleId/live", h.Live)

	authed := v1.Group("", auth.OrganizerAuth(h.signingKey, h.issuer), h.loadSession)
	authed.GET("/session", h.GetSession)
	authed.DELETE("/session", h.Logout)
	authed.POST("/session/select", h.SelectSchedule)

	sch := authed.Group("/schedules/:scheduleId")
	sch.GET("/participants", h.ListParticipants)
	sch.GET("/participants/:participantId/actions", h.ParticipantActions)
	sch.POST("/participants/:participantId/mark", h.Mark)
	sch.POST("/participants/:participantId/unmark", h.Unmark)
	sch.GET("/participants/:participantId/qr", h.Badge)
	sch.POST("/scan", h.Scan)
	sch.GET("/scanner", h.ScannerState)
	sch.GET("/history", h.History)
}
