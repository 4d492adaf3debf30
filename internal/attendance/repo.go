package attendance

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a catalog row does not exist.
var ErrNotFound = errors.New("not found")

// Repository persists the event catalog and attendance history in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListEvents returns events matching f ordered by day then name.
func (r *Repository) ListEvents(ctx context.Context, f EventFilter) ([]Event, error) {
	query := `SELECT id, name, organizer, day, subject_type, COALESCE(marking_type, '') FROM events`
	var (
		args    []any
		clauses []string
	)
	if f.Query != "" {
		args = append(args, containsPattern(f.Query))
		n := "$" + strconv.Itoa(len(args))
		clauses = append(clauses, "(LOWER(name) LIKE "+n+` ESCAPE '\' OR LOWER(organizer) LIKE `+n+` ESCAPE '\')`)
	}
	if f.Organizer != "" {
		args = append(args, f.Organizer)
		clauses = append(clauses, "organizer = $"+strconv.Itoa(len(args)))
	}
	if f.Day != "" {
		args = append(args, f.Day)
		clauses = append(clauses, "day = $"+strconv.Itoa(len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY day, name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Organizer, &e.Day, &e.SubjectType, &e.MarkingType); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns free text into a lowercase LIKE pattern matching it
// anywhere, with the LIKE wildcards taken literally.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
}

// GetEvent returns a single event by id.
func (r *Repository) GetEvent(ctx context.Context, id string) (Event, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, organizer, day, subject_type, COALESCE(marking_type, '')
		FROM events WHERE id = $1
	`, id)
	var e Event
	if err := row.Scan(&e.ID, &e.Name, &e.Organizer, &e.Day, &e.SubjectType, &e.MarkingType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Event{}, ErrNotFound
		}
		return Event{}, err
	}
	return e, nil
}

// Organizers returns the distinct organizer names.
func (r *Repository) Organizers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT organizer FROM events ORDER BY organizer`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var o string
		if err := rows.Scan(&o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

const scheduleColumns = `id, event_id, title, venue, date, start_time, end_time, subject_type, marking_type`

func scanSchedule(row interface{ Scan(...any) error }) (Schedule, error) {
	var s Schedule
	err := row.Scan(&s.ID, &s.EventID, &s.Title, &s.Venue, &s.Date, &s.StartTime, &s.EndTime, &s.SubjectType, &s.MarkingType)
	return s, err
}

// ListSchedules returns the schedules of an event in start order.
func (r *Repository) ListSchedules(ctx context.Context, eventID string) ([]Schedule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE event_id = $1 ORDER BY date, start_time`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSchedule returns a single schedule by id.
func (r *Repository) GetSchedule(ctx context.Context, id string) (Schedule, error) {
	s, err := scanSchedule(r.db.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Schedule{}, ErrNotFound
		}
		return Schedule{}, err
	}
	return s, nil
}

// InsertOutcome appends a dispatch outcome to the history table. Replayed
// outcomes with a known id are ignored.
func (r *Repository) InsertOutcome(ctx context.Context, o Outcome) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_history (id, schedule_id, participant_id, action, direction, source, success, error, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO NOTHING
	`, o.ID, o.ScheduleID, o.ParticipantID, o.Action, o.Direction, o.Source, o.Success, o.Error, o.When)
	return err
}

// ListOutcomes returns the most recent outcomes of a schedule.
func (r *Repository) ListOutcomes(ctx context.Context, scheduleID string, limit int) ([]Outcome, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, schedule_id, participant_id, action, direction, source, success, error, occurred_at
		FROM attendance_history
		WHERE schedule_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`, scheduleID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Outcome
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(&o.ID, &o.ScheduleID, &o.ParticipantID, &o.Action, &o.Direction, &o.Source, &o.Success, &o.Error, &o.When); err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, rows.Err()
}
