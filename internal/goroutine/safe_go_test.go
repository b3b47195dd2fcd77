package goroutine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu       sync.Mutex
	messages []string
	done     chan struct{}
}

func (l *recordingLogger) Errorf(format string, args ...interface{}) {
	l.mu.Lock()
	l.messages = append(l.messages, fmt.Sprintf(format, args...))
	l.mu.Unlock()
	close(l.done)
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	log := &recordingLogger{done: make(chan struct{})}
	handler := NewRecoveryHandler(log)

	handler.SafeGo("worker", func() { panic("boom") })

	select {
	case <-log.done:
	case <-time.After(time.Second):
		t.Fatal("panic was not reported")
	}

	log.mu.Lock()
	defer log.mu.Unlock()
	require.Len(t, log.messages, 1)
	assert.Contains(t, log.messages[0], "panic in worker: boom")
}

func TestSafeGoWithContext_PassesContext(t *testing.T) {
	handler := NewRecoveryHandler(&recordingLogger{done: make(chan struct{})})
	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan context.Context, 1)

	handler.SafeGoWithContext(ctx, "ctx", func(c context.Context) { got <- c })
	cancel()

	select {
	case c := <-got:
		assert.Error(t, c.Err())
	case <-time.After(time.Second):
		t.Fatal("goroutine did not run")
	}
}
