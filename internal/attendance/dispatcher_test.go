package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"attendance-console/internal/queue"
)

type fakeUpstream struct {
	mu      sync.Mutex
	calls   []string
	tokens  []string
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeUpstream) Post(ctx context.Context, token, path string) error {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	f.tokens = append(f.tokens, token)
	started, release, err := f.started, f.release, f.err
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return err
}

func (f *fakeUpstream) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type userErr struct{ msg string }

func (e userErr) Error() string       { return "upstream: " + e.msg }
func (e userErr) UserMessage() string { return e.msg }

func newTestDispatcher(ps []Participant) (*Dispatcher, *fakeUpstream, *queue.InMemory) {
	rs := NewRosters()
	rs.Load("sch1", ps)
	up := &fakeUpstream{}
	q := queue.NewInMemory(16)
	return NewDispatcher(rs, up, q), up, q
}

func TestDispatcherMarkAppliesAfterSuccess(t *testing.T) {
	d, up, q := newTestDispatcher([]Participant{{ID: "p1", CheckInStatus: true}})

	got, err := d.Mark(context.Background(), Command{
		ScheduleID:    "sch1",
		ParticipantID: "p1",
		Config:        Config{MarkingDuo, SubjectIndividual},
		Action:        ActionCheckOut,
		Token:         "tok",
		Source:        "manual",
	})
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if !got.CheckInStatus || !got.CheckOutStatus {
		t.Errorf("got %+v, want checked in and out", got)
	}
	if stored, _ := d.rosters.Get("sch1").Get("p1"); stored != got {
		t.Errorf("roster = %+v, want %+v", stored, got)
	}
	if len(up.calls) != 1 || up.calls[0] != "/attendance/solo/mark/OUT/p1/sch1" || up.tokens[0] != "tok" {
		t.Errorf("upstream calls = %v tokens = %v", up.calls, up.tokens)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msgs, _ := q.Consume(ctx)
	msg := <-msgs
	var o Outcome
	if err := msg.Decode(&o); err != nil {
		t.Fatal(err)
	}
	if !o.Success || o.Direction != DirectionMark || o.Action != ActionCheckOut || o.ParticipantID != "p1" || o.ID == "" {
		t.Errorf("outcome = %+v", o)
	}
}

func TestDispatcherFailureLeavesState(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"server message", userErr{"Student not enrolled"}, "Student not enrolled"},
		{"generic", errors.New("connection refused"), "Failed to mark attendance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := Participant{ID: "p1"}
			d, up, _ := newTestDispatcher([]Participant{before})
			up.err = tt.err

			_, err := d.Mark(context.Background(), Command{
				ScheduleID: "sch1", ParticipantID: "p1",
				Config: Config{MarkingSolo, SubjectGroup}, Action: ActionBoth,
			})
			var derr *DispatchError
			if !errors.As(err, &derr) {
				t.Fatalf("expected DispatchError, got %v", err)
			}
			if derr.Message() != tt.wantMsg {
				t.Errorf("message = %q, want %q", derr.Message(), tt.wantMsg)
			}
			if !errors.Is(err, tt.err) {
				t.Error("dispatch error does not wrap the upstream error")
			}
			if after, _ := d.rosters.Get("sch1").Get("p1"); after != before {
				t.Errorf("state changed on failure: %+v", after)
			}
		})
	}
}

func TestDispatcherUnmarkMessage(t *testing.T) {
	d, up, _ := newTestDispatcher([]Participant{{ID: "p1", AttendanceStatus: true}})
	up.err = errors.New("timeout")
	_, err := d.Unmark(context.Background(), Command{
		ScheduleID: "sch1", ParticipantID: "p1",
		Config: Config{MarkingSolo, SubjectIndividual}, Action: ActionBoth,
	})
	var derr *DispatchError
	if !errors.As(err, &derr) || derr.Message() != "Failed to unmark attendance" {
		t.Fatalf("got %v", err)
	}
}

func TestDispatcherRejectsBeforeCallingUpstream(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want error
	}{
		{
			name: "invalid configuration",
			cmd:  Command{ScheduleID: "sch1", ParticipantID: "p1", Config: Config{MarkingSolo, SubjectIndividual}, Action: ActionCheckIn},
			want: ErrInvalidConfiguration,
		},
		{
			name: "duplicate check-in",
			cmd:  Command{ScheduleID: "sch1", ParticipantID: "p1", Config: Config{MarkingDuo, SubjectIndividual}, Action: ActionCheckIn},
			want: ErrActionUnavailable,
		},
		{
			name: "unknown participant",
			cmd:  Command{ScheduleID: "sch1", ParticipantID: "ghost", Config: Config{MarkingDuo, SubjectIndividual}, Action: ActionCheckIn},
			want: ErrParticipantNotFound,
		},
		{
			name: "roster not loaded",
			cmd:  Command{ScheduleID: "other", ParticipantID: "p1", Config: Config{MarkingDuo, SubjectIndividual}, Action: ActionCheckIn},
			want: ErrRosterNotLoaded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, up, _ := newTestDispatcher([]Participant{{ID: "p1", CheckInStatus: true}})
			if _, err := d.Mark(context.Background(), tt.cmd); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if up.callCount() != 0 {
				t.Errorf("upstream called %d times", up.callCount())
			}
		})
	}
}

func TestDispatcherUnmarkRequiresFlag(t *testing.T) {
	d, up, _ := newTestDispatcher([]Participant{{ID: "p1"}})
	_, err := d.Unmark(context.Background(), Command{
		ScheduleID: "sch1", ParticipantID: "p1",
		Config: Config{MarkingDuo, SubjectGroup}, Action: ActionCheckOut,
	})
	if !errors.Is(err, ErrActionUnavailable) {
		t.Fatalf("expected ErrActionUnavailable, got %v", err)
	}
	if up.callCount() != 0 {
		t.Error("upstream called for an unavailable unmark")
	}
}

func TestDispatcherInFlightGuard(t *testing.T) {
	d, up, _ := newTestDispatcher([]Participant{{ID: "p1"}})
	up.started = make(chan struct{}, 1)
	up.release = make(chan struct{})

	cmd := Command{
		ScheduleID: "sch1", ParticipantID: "p1",
		Config: Config{MarkingDuo, SubjectIndividual}, Action: ActionCheckIn,
	}
	done := make(chan error, 1)
	go func() {
		_, err := d.Mark(context.Background(), cmd)
		done <- err
	}()
	<-up.started

	if _, err := d.Mark(context.Background(), cmd); !errors.Is(err, ErrInFlight) {
		t.Errorf("expected ErrInFlight, got %v", err)
	}

	close(up.release)
	if err := <-done; err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if up.callCount() != 1 {
		t.Errorf("upstream called %d times, want 1", up.callCount())
	}

	// once the flag is set the same mark is unavailable rather than in flight
	if _, err := d.Mark(context.Background(), cmd); !errors.Is(err, ErrActionUnavailable) {
		t.Errorf("expected ErrActionUnavailable, got %v", err)
	}
}

func TestDispatcherConcurrentMarksCallUpstreamOnce(t *testing.T) {
	d, up, _ := newTestDispatcher([]Participant{{ID: "p1"}})
	cmd := Command{
		ScheduleID: "sch1", ParticipantID: "p1",
		Config: Config{MarkingSolo, SubjectIndividual}, Action: ActionBoth,
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Mark(context.Background(), cmd)
		}()
	}
	wg.Wait()

	if n := up.callCount(); n != 1 {
		t.Errorf("upstream called %d times, want 1", n)
	}
	if p, _ := d.rosters.Get("sch1").Get("p1"); !p.AttendanceStatus {
		t.Errorf("participant = %+v", p)
	}
}
