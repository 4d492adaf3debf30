package attendance

import "time"

// MarkingType is the attendance discipline of a schedule.
type MarkingType string

const (
	MarkingSolo MarkingType = "SOLO"
	MarkingDuo  MarkingType = "DUO"
)

// SubjectType is what attendance is recorded against.
type SubjectType string

const (
	SubjectIndividual SubjectType = "INDIVIDUAL"
	SubjectGroup      SubjectType = "GROUP"
)

// Action is the kind of mark an organizer applies.
type Action string

const (
	ActionCheckIn  Action = "CHECKIN"
	ActionCheckOut Action = "CHECKOUT"
	ActionBoth     Action = "BOTH"
)

// Direction tells whether a flag is being set or cleared.
type Direction string

const (
	DirectionMark   Direction = "mark"
	DirectionUnmark Direction = "unMark"
)

// ParseAction accepts the wire names used by the console.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionCheckIn, ActionCheckOut, ActionBoth:
		return Action(s), true
	}
	return "", false
}

// Participant is a subject (student or team) registered for a schedule.
// Under SOLO marking only AttendanceStatus is meaningful; under DUO only
// CheckInStatus and CheckOutStatus are.
type Participant struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	TeamName         string `json:"teamName,omitempty"`
	CheckInStatus    bool   `json:"checkInStatus"`
	CheckOutStatus   bool   `json:"checkOutStatus"`
	AttendanceStatus bool   `json:"attendanceStatus"`
}

// Event is a catalog entry organizers browse.
type Event struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Organizer   string      `json:"organizer"`
	Day         string      `json:"day"`
	SubjectType SubjectType `json:"type"`
	MarkingType MarkingType `json:"markingType,omitempty"`
}

// Schedule is one session of an event. It does not change while an
// organizer is working on it.
type Schedule struct {
	ID          string      `json:"id"`
	EventID     string      `json:"eventId"`
	Title       string      `json:"title"`
	Venue       string      `json:"venue"`
	Date        string      `json:"date"`
	StartTime   string      `json:"startTime"`
	EndTime     string      `json:"endTime"`
	SubjectType SubjectType `json:"type"`
	MarkingType MarkingType `json:"markingType"`
}

// Config returns the marking configuration of the schedule.
func (s Schedule) Config() Config {
	return Config{MarkingType: s.MarkingType, SubjectType: s.SubjectType}
}

// Outcome is the record of one dispatched mark or unmark.
type Outcome struct {
	ID            string    `json:"id"`
	ScheduleID    string    `json:"scheduleId"`
	ParticipantID string    `json:"participantId"`
	Action        Action    `json:"action"`
	Direction     Direction `json:"direction"`
	Source        string    `json:"source"`
	Success       bool      `json:"success"`
	Error         string    `json:"error,omitempty"`
	When          time.Time `json:"when"`

	// Participant is the updated record after a successful call.
	Participant *Participant `json:"participant,omitempty"`
}
