package attendance

// Flag reports the current value of f on p.
func (p Participant) Flag(f Flag) bool {
	switch f {
	case FlagAttendance:
		return p.AttendanceStatus
	case FlagCheckIn:
		return p.CheckInStatus
	case FlagCheckOut:
		return p.CheckOutStatus
	}
	return false
}

// Apply returns p with the route's flag set (mark) or cleared (unmark).
// No other field is touched.
func (r Route) Apply(p Participant) Participant {
	v := r.Direction == DirectionMark
	switch r.Flag {
	case FlagAttendance:
		p.AttendanceStatus = v
	case FlagCheckIn:
		p.CheckInStatus = v
	case FlagCheckOut:
		p.CheckOutStatus = v
	}
	return p
}

// Allowed reports whether the route would change p. A mark on a flag that
// is already set, or an unmark on a clear one, is not offered.
func (r Route) Allowed(p Participant) bool {
	current := p.Flag(r.Flag)
	if r.Direction == DirectionMark {
		return !current
	}
	return current
}

// ActionOption is one entry of a participant's action menu.
type ActionOption struct {
	Action    Action    `json:"action"`
	Direction Direction `json:"direction"`
	Label     string    `json:"label"`
	Enabled   bool      `json:"enabled"`
}

var labels = map[Direction]map[Action]string{
	DirectionMark: {
		ActionBoth:     "Mark Present",
		ActionCheckIn:  "Mark Check In",
		ActionCheckOut: "Mark Check Out",
	},
	DirectionUnmark: {
		ActionBoth:     "Unmark Present",
		ActionCheckIn:  "Unmark Check In",
		ActionCheckOut: "Unmark Check Out",
	},
}

// Available lists the mark and unmark options for p under cfg, marks first.
func Available(p Participant, cfg Config) []ActionOption {
	var out []ActionOption
	for _, dir := range []Direction{DirectionMark, DirectionUnmark} {
		for _, a := range Actions(cfg.MarkingType) {
			r, err := Resolve(cfg, a, dir)
			if err != nil {
				continue
			}
			out = append(out, ActionOption{
				Action:    a,
				Direction: dir,
				Label:     labels[dir][a],
				Enabled:   r.Allowed(p),
			})
		}
	}
	return out
}
