package attendance

import (
	"context"
	"log"

	"attendance-console/internal/queue"
)

// Recorder stores outcomes.
type Recorder interface {
	Record(ctx context.Context, o Outcome) error
}

// ConsumeOutcomes drains outcome messages from q into rec until ctx is done
// or the queue closes. It returns the number of outcomes stored.
func ConsumeOutcomes(ctx context.Context, q queue.Queue, rec Recorder) (int, error) {
	messages, err := q.Consume(ctx)
	if err != nil {
		return 0, err
	}
	stored := 0
	for msg := range messages {
		if msg.Type != queue.TypeOutcome {
			continue
		}
		var o Outcome
		if err := msg.Decode(&o); err != nil {
			log.Printf("history: bad outcome payload: %v", err)
			continue
		}
		if err := rec.Record(ctx, o); err != nil {
			log.Printf("history: store outcome %s failed: %v", o.ID, err)
			continue
		}
		stored++
	}
	return stored, nil
}
