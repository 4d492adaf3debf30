package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"attendance-console/internal/attendance"
)

type recordingMarker struct {
	cmds []attendance.Command
	err  error
}

func (m *recordingMarker) Mark(_ context.Context, cmd attendance.Command) (attendance.Participant, error) {
	m.cmds = append(m.cmds, cmd)
	if m.err != nil {
		return attendance.Participant{}, m.err
	}
	return attendance.Participant{ID: cmd.ParticipantID, CheckInStatus: true}, nil
}

func duoSchedule() attendance.Schedule {
	return attendance.Schedule{
		ID:          scheduleID,
		MarkingType: attendance.MarkingDuo,
		SubjectType: attendance.SubjectIndividual,
	}
}

func TestStationScanMarks(t *testing.T) {
	m := &recordingMarker{}
	st := NewStation(NewRegistry(time.Hour), m)

	res, err := st.Scan(context.Background(), Request{
		Raw:      studentID + ":" + scheduleID,
		Mode:     ModeIn,
		Schedule: duoSchedule(),
		Token:    "tok",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != "Check-in marked successfully" {
		t.Errorf("message = %q", res.Message)
	}
	if len(m.cmds) != 1 {
		t.Fatalf("marker called %d times", len(m.cmds))
	}
	cmd := m.cmds[0]
	if cmd.ParticipantID != studentID || cmd.Action != attendance.ActionCheckIn || cmd.Source != "scan" || cmd.Token != "tok" {
		t.Errorf("command = %+v", cmd)
	}
	if s := st.State(scheduleID); s.Status != StatusSuccess {
		t.Errorf("scanner status = %s", s.Status)
	}
}

func TestStationRejectsBadScans(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"other session", "abc:xyz", ErrSessionMismatch},
		{"malformed", "garbage", ErrMalformed},
		{"bad id", "nope:" + scheduleID, ErrInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &recordingMarker{}
			st := NewStation(NewRegistry(time.Hour), m)
			_, err := st.Scan(context.Background(), Request{Raw: tt.raw, Schedule: duoSchedule()})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if len(m.cmds) != 0 {
				t.Error("invalid scan reached the dispatcher")
			}
			s := st.State(scheduleID)
			if s.Status != StatusError || s.Message != err.Error() {
				t.Errorf("scanner state = %+v", s)
			}
		})
	}
}

func TestStationBusyWhileShowingResult(t *testing.T) {
	m := &recordingMarker{}
	st := NewStation(NewRegistry(time.Hour), m)
	req := Request{Raw: "garbage", Schedule: duoSchedule()}
	st.Scan(context.Background(), req)

	req.Raw = studentID + ":" + scheduleID
	if _, err := st.Scan(context.Background(), req); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if len(m.cmds) != 0 {
		t.Error("busy scanner reached the dispatcher")
	}
}

func TestStationDispatchFailureMessage(t *testing.T) {
	m := &recordingMarker{err: &attendance.DispatchError{Direction: attendance.DirectionMark, Err: errors.New("503")}}
	st := NewStation(NewRegistry(time.Hour), m)
	_, err := st.Scan(context.Background(), Request{Raw: studentID + ":" + scheduleID, Schedule: duoSchedule()})
	if err == nil {
		t.Fatal("expected error")
	}
	if s := st.State(scheduleID); s.Message != "Failed to mark attendance" {
		t.Errorf("scanner message = %q", s.Message)
	}
}

func TestActionFor(t *testing.T) {
	tests := []struct {
		marking attendance.MarkingType
		mode    Mode
		want    attendance.Action
	}{
		{attendance.MarkingSolo, ModeIn, attendance.ActionBoth},
		{attendance.MarkingSolo, ModeOut, attendance.ActionBoth},
		{attendance.MarkingDuo, ModeIn, attendance.ActionCheckIn},
		{attendance.MarkingDuo, "", attendance.ActionCheckIn},
		{attendance.MarkingDuo, ModeOut, attendance.ActionCheckOut},
	}
	for _, tt := range tests {
		if got := ActionFor(tt.marking, tt.mode); got != tt.want {
			t.Errorf("ActionFor(%s, %q) = %s, want %s", tt.marking, tt.mode, got, tt.want)
		}
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{attendance.ErrActionUnavailable, "Attendance already recorded"},
		{attendance.ErrParticipantNotFound, "Participant is not registered for this session"},
		{attendance.ErrInFlight, "Request already in progress"},
		{&attendance.DispatchError{Direction: attendance.DirectionUnmark, Err: errors.New("x")}, "Failed to unmark attendance"},
		{ErrMalformed, "invalid QR code"},
	}
	for _, tt := range tests {
		if got := Message(tt.err); got != tt.want {
			t.Errorf("Message(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
