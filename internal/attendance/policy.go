package attendance

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrInvalidConfiguration means no endpoint is mapped for the requested
// marking type, subject type and action.
var ErrInvalidConfiguration = errors.New("invalid marking configuration")

// Config is the pair of schedule properties that select endpoints.
type Config struct {
	MarkingType MarkingType
	SubjectType SubjectType
}

// Flag identifies one boolean of a Participant.
type Flag int

const (
	FlagAttendance Flag = iota + 1
	FlagCheckIn
	FlagCheckOut
)

func (f Flag) String() string {
	switch f {
	case FlagAttendance:
		return "attendanceStatus"
	case FlagCheckIn:
		return "checkInStatus"
	case FlagCheckOut:
		return "checkOutStatus"
	}
	return "unknown"
}

// Route is a resolved marking decision: the upstream endpoint to call and
// the flag it flips.
type Route struct {
	Config    Config
	Action    Action
	Direction Direction
	Flag      Flag
}

type routeKey struct {
	marking   MarkingType
	subject   SubjectType
	action    Action
	direction Direction
}

// flagRules is the marking rule table. Unmark clears the same flag.
var flagRules = map[MarkingType]map[Action]Flag{
	MarkingSolo: {ActionBoth: FlagAttendance},
	MarkingDuo:  {ActionCheckIn: FlagCheckIn, ActionCheckOut: FlagCheckOut},
}

var routes = buildRoutes()

func buildRoutes() map[routeKey]Route {
	out := make(map[routeKey]Route)
	for marking, actions := range flagRules {
		for action, flag := range actions {
			for _, subject := range []SubjectType{SubjectIndividual, SubjectGroup} {
				for _, dir := range []Direction{DirectionMark, DirectionUnmark} {
					cfg := Config{MarkingType: marking, SubjectType: subject}
					out[routeKey{marking, subject, action, dir}] = Route{
						Config:    cfg,
						Action:    action,
						Direction: dir,
						Flag:      flag,
					}
				}
			}
		}
	}
	return out
}

// Resolve picks the route for an action under cfg.
func Resolve(cfg Config, action Action, dir Direction) (Route, error) {
	r, ok := routes[routeKey{cfg.MarkingType, cfg.SubjectType, action, dir}]
	if !ok {
		return Route{}, fmt.Errorf("%w: %s/%s/%s/%s", ErrInvalidConfiguration, cfg.MarkingType, cfg.SubjectType, action, dir)
	}
	return r, nil
}

// Actions lists the actions a marking type supports, in display order.
func Actions(m MarkingType) []Action {
	switch m {
	case MarkingSolo:
		return []Action{ActionBoth}
	case MarkingDuo:
		return []Action{ActionCheckIn, ActionCheckOut}
	}
	return nil
}

// Path renders the upstream endpoint:
// /attendance/{solo|team}/{mark|unMark}/{IN|OUT|BOTH}/{subjectId}/{scheduleId}
func (r Route) Path(subjectID, scheduleID string) string {
	return fmt.Sprintf("/attendance/%s/%s/%s/%s/%s",
		subjectSegment(r.Config.SubjectType),
		r.Direction,
		actionSegment(r.Action),
		url.PathEscape(subjectID),
		url.PathEscape(scheduleID),
	)
}

func subjectSegment(s SubjectType) string {
	if s == SubjectGroup {
		return "team"
	}
	return "solo"
}

func actionSegment(a Action) string {
	switch a {
	case ActionCheckIn:
		return "IN"
	case ActionCheckOut:
		return "OUT"
	}
	return "BOTH"
}
