package scan

import (
	"context"
	"errors"

	"attendance-console/internal/attendance"
	"attendance-console/internal/metrics"
)

// ErrBusy means the scanner is still showing a previous attempt.
var ErrBusy = errors.New("scanner busy")

// Mode selects check-in or check-out on DUO schedules.
type Mode string

const (
	ModeIn  Mode = "IN"
	ModeOut Mode = "OUT"
)

// Marker is the part of the dispatcher a station needs.
type Marker interface {
	Mark(ctx context.Context, cmd attendance.Command) (attendance.Participant, error)
}

// Request is one scanned payload.
type Request struct {
	Raw      string
	Mode     Mode
	Schedule attendance.Schedule
	Token    string
}

// Result is the outcome shown to the organizer after a successful scan.
type Result struct {
	Participant attendance.Participant `json:"participant"`
	Message     string                 `json:"message"`
}

// Station runs scans: decode, pick the action, mark.
type Station struct {
	scanners *Registry
	marker   Marker
}

// NewStation wires a station.
func NewStation(scanners *Registry, marker Marker) *Station {
	return &Station{scanners: scanners, marker: marker}
}

// State returns the scanner state of a schedule.
func (st *Station) State(scheduleID string) State {
	return st.scanners.State(scheduleID)
}

// ActionFor maps the scanner mode onto the schedule's marking type.
func ActionFor(m attendance.MarkingType, mode Mode) attendance.Action {
	if m == attendance.MarkingDuo {
		if mode == ModeOut {
			return attendance.ActionCheckOut
		}
		return attendance.ActionCheckIn
	}
	return attendance.ActionBoth
}

// Scan decodes req and marks the participant. Decode failures never reach
// the dispatcher.
func (st *Station) Scan(ctx context.Context, req Request) (Result, error) {
	sc := st.scanners.For(req.Schedule.ID)
	gen, ok := sc.Begin()
	if !ok {
		metrics.Scans.WithLabelValues("busy").Inc()
		return Result{}, ErrBusy
	}

	payload, err := Decode(req.Raw, req.Schedule.ID)
	if err != nil {
		sc.Finish(gen, err.Error(), err)
		metrics.Scans.WithLabelValues(resultLabel(err)).Inc()
		return Result{}, err
	}

	action := ActionFor(req.Schedule.MarkingType, req.Mode)
	p, err := st.marker.Mark(ctx, attendance.Command{
		ScheduleID:    req.Schedule.ID,
		ParticipantID: payload.SubjectID,
		Config:        req.Schedule.Config(),
		Action:        action,
		Token:         req.Token,
		Source:        "scan",
	})
	if err != nil {
		sc.Finish(gen, Message(err), err)
		metrics.Scans.WithLabelValues("failed").Inc()
		return Result{}, err
	}

	msg := successMessage(action)
	sc.Finish(gen, msg, nil)
	metrics.Scans.WithLabelValues("ok").Inc()
	return Result{Participant: p, Message: msg}, nil
}

// Message is the organizer-facing text for a scan or dispatch error.
func Message(err error) string {
	var derr *attendance.DispatchError
	switch {
	case errors.As(err, &derr):
		return derr.Message()
	case errors.Is(err, attendance.ErrActionUnavailable):
		return "Attendance already recorded"
	case errors.Is(err, attendance.ErrParticipantNotFound):
		return "Participant is not registered for this session"
	case errors.Is(err, attendance.ErrInFlight):
		return "Request already in progress"
	}
	return err.Error()
}

func successMessage(a attendance.Action) string {
	switch a {
	case attendance.ActionCheckIn:
		return "Check-in marked successfully"
	case attendance.ActionCheckOut:
		return "Check-out marked successfully"
	}
	return "Attendance Marked"
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrSessionMismatch):
		return "session_mismatch"
	case errors.Is(err, ErrInvalidID):
		return "invalid_id"
	}
	return "malformed"
}
