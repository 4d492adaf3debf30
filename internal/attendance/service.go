package attendance

import (
	"context"
	"strings"
)

// Filter values the console UI sends to mean "no filter".
const (
	AllOrganizers = "All organizers"
	AllDays       = "All"
)

// EventFilter narrows the event catalog.
type EventFilter struct {
	Query     string
	Organizer string
	Day       string
}

// Normalize trims input and drops the "All" sentinels.
func (f EventFilter) Normalize() EventFilter {
	f.Query = strings.TrimSpace(f.Query)
	f.Organizer = strings.TrimSpace(f.Organizer)
	f.Day = strings.TrimSpace(f.Day)
	if f.Organizer == AllOrganizers {
		f.Organizer = ""
	}
	if f.Day == AllDays {
		f.Day = ""
	}
	return f
}

// Service is the catalog and history facade used by the HTTP layer.
type Service struct {
	repo *Repository
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// ListEvents returns events matching f.
func (s *Service) ListEvents(ctx context.Context, f EventFilter) ([]Event, error) {
	return s.repo.ListEvents(ctx, f.Normalize())
}

// Organizers lists organizer filter options, "All organizers" first.
func (s *Service) Organizers(ctx context.Context) ([]string, error) {
	orgs, err := s.repo.Organizers(ctx)
	if err != nil {
		return nil, err
	}
	return append([]string{AllOrganizers}, orgs...), nil
}

func (s *Service) GetEvent(ctx context.Context, id string) (Event, error) {
	return s.repo.GetEvent(ctx, id)
}

func (s *Service) ListSchedules(ctx context.Context, eventID string) ([]Schedule, error) {
	return s.repo.ListSchedules(ctx, eventID)
}

func (s *Service) GetSchedule(ctx context.Context, id string) (Schedule, error) {
	return s.repo.GetSchedule(ctx, id)
}

// History returns recent dispatch outcomes for a schedule.
func (s *Service) History(ctx context.Context, scheduleID string, limit int) ([]Outcome, error) {
	return s.repo.ListOutcomes(ctx, scheduleID, limit)
}

// Record persists an outcome consumed from the queue.
func (s *Service) Record(ctx context.Context, o Outcome) error {
	return s.repo.InsertOutcome(ctx, o)
}
