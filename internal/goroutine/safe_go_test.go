package goroutine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
	done  chan struct{}
}

func (l *recordingLogger) Errorf(format string, args ...interface{}) {
	l.mu.Lock()
	l.lines = append(l.lines, format)
	l.mu.Unlock()
	close(l.done)
}

func TestRecoveryHandler_SafeGoRecoversPanic(t *testing.T) {
	log := &recordingLogger{done: make(chan struct{})}
	rh := NewRecoveryHandler(log)

	rh.SafeGo(func() { panic("boom") })
	<-log.done

	log.mu.Lock()
	defer log.mu.Unlock()
	assert.Len(t, log.lines, 1)
}

func TestAsync_ReturnsValue(t *testing.T) {
	res := <-Async(context.Background(), func(ctx context.Context) (int, error) {
		return 42, nil
	})
	assert.NoError(t, res.Err)
	assert.Equal(t, 42, res.Value)
}

func TestAsync_PropagatesError(t *testing.T) {
	want := errors.New("db down")
	res := <-Async(context.Background(), func(ctx context.Context) (string, error) {
		return "", want
	})
	assert.ErrorIs(t, res.Err, want)
}

func TestAsync_PanicBecomesError(t *testing.T) {
	res := <-Async(context.Background(), func(ctx context.Context) ([]int, error) {
		panic("nil map")
	})
	assert.Error(t, res.Err)
	assert.Nil(t, res.Value)
}
