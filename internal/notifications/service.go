// Package notifications fans out order lifecycle events after the owning
// transaction commits. Delivery is best effort and never fails the caller.
package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Prem931993/buytown-sub000/pkg/logger"
)

const defaultTimeout = 5 * time.Second

// Notifier accepts events for asynchronous delivery.
type Notifier interface {
	Notify(ctx context.Context, evt Event)
}

// Dispatcher sends each event on its own goroutine, detached from the
// request context and bounded by timeout.
type Dispatcher struct {
	publisher Publisher
	logg      *logger.Logger
	timeout   time.Duration
	wg        sync.WaitGroup
}

func NewDispatcher(publisher Publisher, logg *logger.Logger, timeout time.Duration) (*Dispatcher, error) {
	if publisher == nil {
		return nil, fmt.Errorf("notification publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Dispatcher{publisher: publisher, logg: logg, timeout: timeout}, nil
}

func (d *Dispatcher) Notify(ctx context.Context, evt Event) {
	base := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logg.Error(base, "notification publisher panicked", fmt.Errorf("%v", r))
			}
		}()

		sendCtx, cancel := context.WithTimeout(base, d.timeout)
		defer cancel()
		if err := d.publisher.Publish(sendCtx, evt); err != nil {
			logCtx := d.logg.WithFields(base, map[string]any{
				"event_type": string(evt.Type),
				"order_id":   evt.OrderID.String(),
			})
			d.logg.Warn(logCtx, fmt.Sprintf("notification dispatch failed: %v", err))
		}
	}()
}

// Wait blocks until in-flight notifications finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Discard drops every event.
type Discard struct{}

func (Discard) Notify(context.Context, Event) {}
