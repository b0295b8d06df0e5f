package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Skotchmaster/identity/internal/logging"
)

var ErrClosed = errors.New("notifier closed")

// Async hands messages to the wrapped notifier on background goroutines. A send
// outlives the request that triggered it but is bounded by timeout.
type Async struct {
	next    Notifier
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsync(next Notifier, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Async{next: next, timeout: timeout}
}

func (a *Async) Send(ctx context.Context, msg Message) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		if err := a.next.Send(sendCtx, msg); err != nil {
			logging.FromContext(ctx).Error("notification_failed",
				"kind", string(msg.Kind), "to", msg.To, "error", err)
		}
	}()
	return nil
}

// Close rejects new sends and waits for in-flight ones or ctx, whichever ends first.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
