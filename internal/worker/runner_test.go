package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	r := NewRunner(slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.Start(context.Background())
	t.Cleanup(r.Stop)
	return r
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for task")
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRunner_RunsTask(t *testing.T) {
	r := newTestRunner(t)
	ran := make(chan struct{})

	r.Submit("speech", func(ctx context.Context) error {
		close(ran)
		return nil
	})

	waitFor(t, ran)
	eventually(t, func() bool { return r.Completed() == 1 })
}

func TestRunner_NewerTaskSupersedesWaiting(t *testing.T) {
	r := newTestRunner(t)

	release := make(chan struct{})
	started := make(chan struct{})
	r.Submit("first", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	waitFor(t, started)

	var secondRan atomic.Bool
	thirdRan := make(chan struct{})
	if r.Submit("second", func(ctx context.Context) error {
		secondRan.Store(true)
		return nil
	}) {
		t.Fatal("nothing was waiting, Submit must not report a replacement")
	}
	if !r.Submit("third", func(ctx context.Context) error {
		close(thirdRan)
		return nil
	}) {
		t.Fatal("expected third to replace second")
	}

	close(release)
	waitFor(t, thirdRan)

	if secondRan.Load() {
		t.Error("superseded task must not run")
	}
	if r.Superseded() != 1 {
		t.Errorf("Superseded() = %d, want 1", r.Superseded())
	}
}

func TestRunner_FailuresAreContained(t *testing.T) {
	r := newTestRunner(t)
	after := make(chan struct{})

	r.Submit("failing", func(ctx context.Context) error { return errors.New("speaker unplugged") })
	eventually(t, func() bool { return r.Failures() == 1 })

	r.Submit("panicking", func(ctx context.Context) error { panic("boom") })
	eventually(t, func() bool { return r.Failures() == 2 })

	r.Submit("after", func(ctx context.Context) error {
		close(after)
		return nil
	})
	waitFor(t, after)
}

func TestRunner_StopCancelsRunningTask(t *testing.T) {
	r := NewRunner(slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.Start(context.Background())

	started := make(chan struct{})
	r.Submit("long", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	waitFor(t, started)

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()
	waitFor(t, stopped)

	// Stop is idempotent.
	r.Stop()
}
