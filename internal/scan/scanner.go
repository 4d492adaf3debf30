package scan

import (
	"sync"
	"time"
)

// Status is the scanner state shown to the organizer.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// DefaultResetDelay is how long a result stays on screen.
const DefaultResetDelay = 2 * time.Second

// State is a snapshot of a scanner.
type State struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Scanner accepts one scan at a time. A scan moves it from idle to pending;
// the result moves it to success or error; after the reset delay it returns
// to idle. Each attempt has a generation number and a reset only applies to
// the attempt that armed it.
type Scanner struct {
	mu      sync.Mutex
	state   State
	gen     uint64
	delay   time.Duration
	timer   *time.Timer
	afterFn func(time.Duration, func()) *time.Timer
}

// NewScanner creates an idle scanner.
func NewScanner(resetDelay time.Duration) *Scanner {
	if resetDelay <= 0 {
		resetDelay = DefaultResetDelay
	}
	return &Scanner{
		state:   State{Status: StatusIdle},
		delay:   resetDelay,
		afterFn: time.AfterFunc,
	}
}

// Begin starts an attempt if the scanner is idle.
func (s *Scanner) Begin() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Status != StatusIdle {
		return 0, false
	}
	s.gen++
	s.state = State{Status: StatusPending}
	return s.gen, true
}

// Finish records the result of attempt gen and arms the reset.
func (s *Scanner) Finish(gen uint64, msg string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.state.Status != StatusPending {
		return
	}
	if err != nil {
		s.state = State{Status: StatusError, Message: msg}
	} else {
		s.state = State{Status: StatusSuccess, Message: msg}
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.afterFn(s.delay, func() { s.reset(gen) })
}

func (s *Scanner) reset(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.state.Status == StatusPending {
		return
	}
	s.state = State{Status: StatusIdle}
}

// State returns the current state.
func (s *Scanner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Registry keeps one scanner per schedule.
type Registry struct {
	mu       sync.Mutex
	delay    time.Duration
	scanners map[string]*Scanner
}

// NewRegistry creates scanners with the given reset delay.
func NewRegistry(resetDelay time.Duration) *Registry {
	return &Registry{delay: resetDelay, scanners: make(map[string]*Scanner)}
}

// For returns the scanner of a schedule, creating it on first use.
func (r *Registry) For(scheduleID string) *Scanner {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scanners[scheduleID]
	if !ok {
		s = NewScanner(r.delay)
		r.scanners[scheduleID] = s
	}
	return s
}

// State reports the scanner of a schedule without creating one; schedules
// that never scanned are idle.
func (r *Registry) State(scheduleID string) State {
	r.mu.Lock()
	s, ok := r.scanners[scheduleID]
	r.mu.Unlock()
	if !ok {
		return State{Status: StatusIdle}
	}
	return s.State()
}
