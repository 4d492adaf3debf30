package httpapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance-console/internal/attendance"
	"attendance-console/internal/auth"
	"attendance-console/internal/remote"
	"attendance-console/internal/session"
)

const sessionKey = "session"

func (h *Handler) loadSession(c *gin.Context) {
	claims, ok := auth.FromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}
	sess, err := h.sessions.Load(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired", "code": "session_expired"})
			return
		}
		log.Printf("session load failed: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Set(sessionKey, sess)
	c.Next()
}

func currentSession(c *gin.Context) session.Session {
	v, _ := c.Get(sessionKey)
	sess, _ := v.(session.Session)
	return sess
}

// Login proxies credentials upstream and opens a console session.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upstreamToken, err := h.upstream.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var apiErr *remote.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		writeError(c, err)
		return
	}

	sess := session.New(req.Email, upstreamToken)
	if err := h.sessions.Save(c.Request.Context(), sess); err != nil {
		writeError(c, err)
		return
	}
	tok, err := auth.Issue(sess.ID, auth.RoleOrganizer, h.issuer, h.signingKey, h.accessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"access_token": tok.AccessToken,
		"expires_at":   tok.ExpiresAt.Unix(),
	})
}

// Logout drops the session.
func (h *Handler) Logout(c *gin.Context) {
	sess := currentSession(c)
	if err := h.sessions.Delete(c.Request.Context(), sess.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSession returns who is logged in and what is selected.
func (h *Handler) GetSession(c *gin.Context) {
	sess := currentSession(c)
	c.JSON(http.StatusOK, gin.H{
		"email":    sess.Email,
		"event":    sess.Event,
		"schedule": sess.Schedule,
	})
}

// SelectSchedule sets the active event and schedule.
func (h *Handler) SelectSchedule(c *gin.Context) {
	var req struct {
		EventID    string `json:"eventId" binding:"required"`
		ScheduleID string `json:"scheduleId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sch, err := h.catalog.GetSchedule(c.Request.Context(), req.ScheduleID)
	if err != nil {
		writeError(c, err)
		return
	}
	if sch.EventID != req.EventID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "schedule does not belong to event"})
		return
	}
	sess, err := h.activate(c, sch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": sess.Event, "schedule": sess.Schedule})
}

// activate makes sch the session's selected schedule, saving only on change.
func (h *Handler) activate(c *gin.Context, sch attendance.Schedule) (session.Session, error) {
	sess := currentSession(c)
	if sess.Schedule != nil && sess.Schedule.ID == sch.ID {
		return sess, nil
	}
	ev, err := h.catalog.GetEvent(c.Request.Context(), sch.EventID)
	if err != nil {
		return sess, err
	}
	sess.Select(ev, sch)
	if err := h.sessions.Save(c.Request.Context(), sess); err != nil {
		return sess, err
	}
	c.Set(sessionKey, sess)
	return sess, nil
}
