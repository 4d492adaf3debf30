package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"attendance-console/internal/metrics"
	"attendance-console/internal/queue"
)

var (
	ErrRosterNotLoaded     = errors.New("participant list not loaded for schedule")
	ErrParticipantNotFound = errors.New("participant not registered for this schedule")
	ErrActionUnavailable   = errors.New("action not available for participant")
	ErrInFlight            = errors.New("request already in progress for participant")
)

const publishTimeout = 2 * time.Second

// Upstream performs a marking call against the attendance API.
type Upstream interface {
	Post(ctx context.Context, token, path string) error
}

// Publisher receives dispatch outcomes.
type Publisher interface {
	Publish(ctx context.Context, msg queue.Message) error
}

// Command asks for one mark or unmark.
type Command struct {
	ScheduleID    string
	ParticipantID string
	Config        Config
	Action        Action
	// Token is the organizer's upstream bearer token.
	Token string
	// Source is "manual" or "scan".
	Source string
}

// DispatchError wraps an upstream failure with the message shown to the
// organizer.
type DispatchError struct {
	Direction Direction
	Err       error
}

func (e *DispatchError) Error() string { return e.Message() + ": " + e.Err.Error() }

func (e *DispatchError) Unwrap() error { return e.Err }

// Message is the server-provided message if there is one, else a generic one.
func (e *DispatchError) Message() string {
	var um interface{ UserMessage() string }
	if errors.As(e.Err, &um) && um.UserMessage() != "" {
		return um.UserMessage()
	}
	if e.Direction == DirectionUnmark {
		return "Failed to unmark attendance"
	}
	return "Failed to mark attendance"
}

// Dispatcher turns marking decisions into upstream calls and applies the
// flag transform to the roster once the call succeeds.
type Dispatcher struct {
	rosters  *Rosters
	upstream Upstream
	pub      Publisher

	mu       sync.Mutex
	inFlight map[flightKey]struct{}
}

type flightKey struct {
	schedule    string
	participant string
	flag        Flag
}

// NewDispatcher wires a dispatcher. pub may be nil.
func NewDispatcher(rosters *Rosters, upstream Upstream, pub Publisher) *Dispatcher {
	return &Dispatcher{
		rosters:  rosters,
		upstream: upstream,
		pub:      pub,
		inFlight: make(map[flightKey]struct{}),
	}
}

// Mark sets the flag selected by cmd.
func (d *Dispatcher) Mark(ctx context.Context, cmd Command) (Participant, error) {
	return d.dispatch(ctx, cmd, DirectionMark)
}

// Unmark clears the flag selected by cmd.
func (d *Dispatcher) Unmark(ctx context.Context, cmd Command) (Participant, error) {
	return d.dispatch(ctx, cmd, DirectionUnmark)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmd Command, dir Direction) (Participant, error) {
	route, err := Resolve(cmd.Config, cmd.Action, dir)
	if err != nil {
		log.Printf("dispatch: contract violation for schedule %s: %v", cmd.ScheduleID, err)
		metrics.Dispatches.WithLabelValues(string(dir), string(cmd.Action), "invalid").Inc()
		return Participant{}, err
	}

	roster := d.rosters.Get(cmd.ScheduleID)
	if roster == nil {
		return Participant{}, ErrRosterNotLoaded
	}
	p, ok := roster.Get(cmd.ParticipantID)
	if !ok {
		return Participant{}, ErrParticipantNotFound
	}

	key := flightKey{cmd.ScheduleID, cmd.ParticipantID, route.Flag}
	if !d.acquire(key) {
		return p, ErrInFlight
	}
	defer d.release(key)

	// re-read while holding the key; a call that just finished has applied its flag
	if p, ok = roster.Get(cmd.ParticipantID); !ok {
		return Participant{}, ErrParticipantNotFound
	}
	if !route.Allowed(p) {
		metrics.Dispatches.WithLabelValues(string(dir), string(cmd.Action), "unavailable").Inc()
		return p, fmt.Errorf("%w: %s already %v", ErrActionUnavailable, route.Flag, p.Flag(route.Flag))
	}

	if err := d.upstream.Post(ctx, cmd.Token, route.Path(cmd.ParticipantID, cmd.ScheduleID)); err != nil {
		derr := &DispatchError{Direction: dir, Err: err}
		metrics.Dispatches.WithLabelValues(string(dir), string(cmd.Action), "failed").Inc()
		d.publish(ctx, cmd, dir, nil, derr)
		return p, derr
	}

	updated, ok := roster.Update(cmd.ParticipantID, route.Apply)
	if !ok {
		// roster was reloaded without this participant while the call ran
		updated = route.Apply(p)
	}
	metrics.Dispatches.WithLabelValues(string(dir), string(cmd.Action), "ok").Inc()
	d.publish(ctx, cmd, dir, &updated, nil)
	return updated, nil
}

func (d *Dispatcher) acquire(k flightKey) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.inFlight[k]; busy {
		return false
	}
	d.inFlight[k] = struct{}{}
	return true
}

func (d *Dispatcher) release(k flightKey) {
	d.mu.Lock()
	delete(d.inFlight, k)
	d.mu.Unlock()
}

func (d *Dispatcher) publish(ctx context.Context, cmd Command, dir Direction, p *Participant, err error) {
	if d.pub == nil {
		return
	}
	out := Outcome{
		ID:            uuid.NewString(),
		ScheduleID:    cmd.ScheduleID,
		ParticipantID: cmd.ParticipantID,
		Action:        cmd.Action,
		Direction:     dir,
		Source:        cmd.Source,
		Success:       err == nil,
		When:          time.Now().UTC(),
		Participant:   p,
	}
	if err != nil {
		out.Error = err.Error()
	}
	msg, merr := queue.NewMessage(queue.TypeOutcome, out)
	if merr != nil {
		log.Printf("dispatch: encode outcome failed: %v", merr)
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if perr := d.pub.Publish(pctx, msg); perr != nil {
		log.Printf("queue publish failed: %v", perr)
	}
}
