package dispatcher

import (
	"context"
	"fmt"

	"github.com/SyntropyNet/syntropy-l3router/internal/logger"
)

// Post queues an event for the Run loop.
// It blocks while the queue is full, until the event is queued or ctx is done.
func (d *Dispatcher) Post(ctx context.Context, ev Event) error {
	select {
	case d.queue <- ev:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %s (%s)", ErrNotQueued, ev.Kind(), ctx.Err())
	}
}

// Run starts handling queued events on a single goroutine until ctx is done
func (d *Dispatcher) Run(ctx context.Context) error {
	if !d.TryLock() {
		return fmt.Errorf("%s is already running", cmd)
	}

	go func() {
		defer d.TryUnlock()
		for {
			select {
			case <-ctx.Done():
				logger.Debug().Println(pkgName, "stopping", cmd)
				return

			case ev := <-d.queue:
				if err := d.Handle(ev); err != nil {
					logger.Error().Println(pkgName, err)
				}
			}
		}
	}()

	return nil
}
