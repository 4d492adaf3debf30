package session

import (
	"context"
	"errors"
	"testing"

	"attendance-console/internal/attendance"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s := New("org@example.com", "up-token")
	if s.ID == "" {
		t.Fatal("session has no id")
	}
	s.Select(
		attendance.Event{ID: "e1", Name: "Hack Day"},
		attendance.Schedule{ID: "s1", EventID: "e1", MarkingType: attendance.MarkingDuo},
	)
	if err := store.Save(ctx, s); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Schedule == nil || got.Schedule.ID != "s1" || got.Event.Name != "Hack Day" {
		t.Errorf("loaded %+v", got)
	}

	if err := store.Delete(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSelectCopiesValues(t *testing.T) {
	s := New("a@b.c", "t")
	sch := attendance.Schedule{ID: "s1"}
	s.Select(attendance.Event{ID: "e1"}, sch)
	sch.ID = "changed"
	if s.Schedule.ID != "s1" {
		t.Error("session aliases the caller's schedule")
	}
}
