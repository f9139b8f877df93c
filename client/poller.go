package client

import (
	"context"
	"time"
)

// chatPoller keeps the mirror of one selected chat fresh. It fetches, waits
// for the interval, and fetches again, so at most one request is in flight.
// Its results are tagged with the selection generation it was started for.
type chatPoller struct {
	syncer     *Syncer
	chatID     string
	generation uint64
	interval   time.Duration
}

func (p *chatPoller) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
		p.syncer.fetchMessages(ctx, p.chatID, p.generation)
		timer.Reset(p.interval)
	}
}
