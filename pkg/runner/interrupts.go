package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// interruptGrace is how long a failed read waits for a signal to follow.
const interruptGrace = 100 * time.Millisecond

// interrupts cancels a respondent session on SIGINT or SIGTERM.
type interrupts struct {
	ctx   context.Context
	stop  context.CancelFunc
	grace time.Duration
}

func watchInterrupts(parent context.Context) *interrupts {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return &interrupts{ctx: ctx, stop: stop, grace: interruptGrace}
}

func (i *interrupts) Context() context.Context {
	return i.ctx
}

func (i *interrupts) Stop() {
	i.stop()
}

// Interrupted reports whether a failed read was caused by a signal or by
// cancellation of the parent context. On Windows consoles Ctrl+C reaches
// stdin as EOF slightly before the signal, so an EOF waits out the grace
// period first.
func (i *interrupts) Interrupted(readErr error) bool {
	if i.ctx.Err() != nil {
		return true
	}
	if !errors.Is(readErr, io.EOF) {
		return false
	}
	select {
	case <-i.ctx.Done():
		return true
	case <-time.After(i.grace):
		return false
	}
}
