package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockService struct {
	started atomic.Bool
	stopped atomic.Bool
	startFn func() error
}

func (m *mockService) Start() error {
	m.started.Store(true)
	if m.startFn != nil {
		return m.startFn()
	}
	// Block until stopped
	for !m.stopped.Load() {
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

func (m *mockService) Stop() {
	m.stopped.Store(true)
}

func runAsync(ctx context.Context, lc *Lifecycle) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- lc.Run(ctx)
	}()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
		return nil
	}
}

func TestLifecycleStartsAndStopsServices(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))

	svc1 := &mockService{}
	svc2 := &mockService{}
	lc.Add("svc1", svc1)
	lc.Add("svc2", svc2)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, lc)

	require.Eventually(t, func() bool {
		return svc1.started.Load() && svc2.started.Load()
	}, 2*time.Second, 10*time.Millisecond, "services did not start in time")

	// Trigger shutdown
	cancel()

	assert.NoError(t, waitDone(t, done))
	assert.True(t, svc1.stopped.Load())
	assert.True(t, svc2.stopped.Load())
}

func TestLifecycleFinishedServiceStopsTheRest(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	background := &mockService{}
	lc.Add("watcher", background)
	lc.Add("fight", &mockService{startFn: func() error { return nil }})

	assert.NoError(t, waitDone(t, runAsync(context.Background(), lc)))
	assert.True(t, background.stopped.Load())
}

func TestLifecycleReturnsFirstFailure(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	boom := errors.New("boom")
	background := &mockService{}
	lc.Add("watcher", background)
	lc.Add("fight", &mockService{startFn: func() error { return boom }})

	err := waitDone(t, runAsync(context.Background(), lc))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "service fight")
	assert.True(t, background.stopped.Load())
}

func TestLifecycleNoServices(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	assert.NoError(t, lc.Run(context.Background()))
}

func TestFuncService(t *testing.T) {
	started := false
	stopped := false

	svc := &FuncService{
		StartFn: func() error {
			started = true
			return nil
		},
		StopFn: func() {
			stopped = true
		},
	}

	err := svc.Start()
	assert.NoError(t, err)
	assert.True(t, started)

	svc.Stop()
	assert.True(t, stopped)
}

func TestContextService_StopCancels(t *testing.T) {
	svc := NewContextService(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	done := make(chan error, 1)
	go func() { done <- svc.Start() }()
	svc.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation is a clean stop")
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestContextService_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewContextService(func(context.Context) error { return boom })
	assert.ErrorIs(t, svc.Start(), boom)
	svc.Stop()
}
