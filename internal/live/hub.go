// Package live pushes attendance outcomes to every console screen that has
// the same schedule open.
package live

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"attendance-console/internal/attendance"
	"attendance-console/internal/queue"
)

const (
	EventMarked   = "ATTENDANCE_MARKED"
	EventUnmarked = "ATTENDANCE_UNMARKED"
	EventFailed   = "ATTENDANCE_FAILED"
)

const (
	sendBuffer = 16
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Message is one frame sent to a console.
type Message struct {
	Event string             `json:"event"`
	Data  attendance.Outcome `json:"data"`
}

// Hub fans outcomes out to subscribers of a schedule.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Message]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Message]struct{})}
}

// Subscribe registers for outcomes of scheduleID. The returned func
// unregisters and closes the channel.
func (h *Hub) Subscribe(scheduleID string) (<-chan Message, func()) {
	ch := make(chan Message, sendBuffer)
	h.mu.Lock()
	if h.subs[scheduleID] == nil {
		h.subs[scheduleID] = make(map[chan Message]struct{})
	}
	h.subs[scheduleID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[scheduleID], ch)
			if len(h.subs[scheduleID]) == 0 {
				delete(h.subs, scheduleID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Broadcast sends msg to every subscriber of scheduleID. Slow subscribers
// miss messages instead of blocking the caller.
func (h *Hub) Broadcast(scheduleID string, msg Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	sent := 0
	for ch := range h.subs[scheduleID] {
		select {
		case ch <- msg:
			sent++
		default:
			log.Printf("live: dropping %s for slow subscriber of %s", msg.Event, scheduleID)
		}
	}
	return sent
}

// Publish lets the hub sit behind a queue.Tee next to the outcome queue.
func (h *Hub) Publish(_ context.Context, msg queue.Message) error {
	if msg.Type != queue.TypeOutcome {
		return nil
	}
	var o attendance.Outcome
	if err := msg.Decode(&o); err != nil {
		return err
	}
	h.Broadcast(o.ScheduleID, Message{Event: eventFor(o), Data: o})
	return nil
}

func eventFor(o attendance.Outcome) string {
	switch {
	case !o.Success:
		return EventFailed
	case o.Direction == attendance.DirectionUnmark:
		return EventUnmarked
	}
	return EventMarked
}

// Serve writes msgs to conn until the channel closes or the peer goes away.
// Incoming frames are read only to process pongs and close.
func Serve(conn *websocket.Conn, msgs <-chan Message) {
	defer conn.Close()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-msgs:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("live: write failed: %v", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
