package notify

import (
	"context"
	"time"

	"github.com/Skotchmaster/ezpickup/pkg/logging"
)

// Relay periodically drains outbox rows left in the pending state.
type Relay struct {
	Dispatcher *Dispatcher
	Interval   time.Duration
	Grace      time.Duration
	Batch      int
}

func (r *Relay) Run(ctx context.Context) error {
	l := logging.FromContext(ctx).With("svc", "notify.relay")
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := r.Dispatcher.DeliverPending(ctx, r.Grace, r.Batch)
			if err != nil {
				l.Warn("relay_failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info("relay_delivered", "count", n)
			}
		}
	}
}
