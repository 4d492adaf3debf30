package live

import (
	"context"
	"testing"

	"attendance-console/internal/attendance"
	"attendance-console/internal/queue"
)

func TestHubPublishRoutesBySchedule(t *testing.T) {
	h := NewHub()
	mine, cancelMine := h.Subscribe("s1")
	defer cancelMine()
	other, cancelOther := h.Subscribe("s2")
	defer cancelOther()

	tests := []struct {
		outcome attendance.Outcome
		want    string
	}{
		{attendance.Outcome{ScheduleID: "s1", Direction: attendance.DirectionMark, Success: true}, EventMarked},
		{attendance.Outcome{ScheduleID: "s1", Direction: attendance.DirectionUnmark, Success: true}, EventUnmarked},
		{attendance.Outcome{ScheduleID: "s1", Direction: attendance.DirectionMark, Error: "503"}, EventFailed},
	}
	for _, tt := range tests {
		msg, _ := queue.NewMessage(queue.TypeOutcome, tt.outcome)
		if err := h.Publish(context.Background(), msg); err != nil {
			t.Fatal(err)
		}
		got := <-mine
		if got.Event != tt.want {
			t.Errorf("event = %s, want %s", got.Event, tt.want)
		}
	}
	select {
	case m := <-other:
		t.Errorf("other schedule received %+v", m)
	default:
	}
}

func TestHubIgnoresOtherTypes(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("s1")
	defer cancel()
	if err := h.Publish(context.Background(), queue.Message{Type: "other", Body: []byte(`{"scheduleId":"s1"}`)}); err != nil {
		t.Fatal(err)
	}
	if len(ch) != 0 {
		t.Error("non-outcome message broadcast")
	}
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe("s1")
	defer cancel()
	for i := 0; i < sendBuffer; i++ {
		h.Broadcast("s1", Message{Event: EventMarked})
	}
	if n := h.Broadcast("s1", Message{Event: EventMarked}); n != 0 {
		t.Errorf("sent %d to a full subscriber", n)
	}
}

func TestUnsubscribeClosesOnce(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("s1")
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel still open")
	}
	if n := h.Broadcast("s1", Message{}); n != 0 {
		t.Errorf("broadcast reached %d after unsubscribe", n)
	}
}
