package runner

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInterrupts_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	in := watchInterrupts(parent)
	defer in.Stop()

	assert.NoError(t, in.Context().Err())
	cancel()
	assert.True(t, in.Interrupted(context.Canceled))
}

func TestInterrupts_EOFWaitsForSignal(t *testing.T) {
	in := watchInterrupts(context.Background())
	defer in.Stop()
	in.grace = 20 * time.Millisecond

	start := time.Now()
	assert.False(t, in.Interrupted(io.EOF), "plain EOF ends input")
	assert.GreaterOrEqual(t, time.Since(start), in.grace)

	// A late cancellation within the grace period counts as an interrupt.
	in.grace = time.Second
	go func() {
		time.Sleep(10 * time.Millisecond)
		in.Stop()
	}()
	assert.True(t, in.Interrupted(io.EOF))
}

func TestInterrupts_OtherErrorsDoNotWait(t *testing.T) {
	in := watchInterrupts(context.Background())
	defer in.Stop()
	in.grace = time.Second

	start := time.Now()
	assert.False(t, in.Interrupted(errors.New("read failed")))
	assert.Less(t, time.Since(start), in.grace)
}
