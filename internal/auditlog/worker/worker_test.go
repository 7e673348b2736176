package worker

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reguard/internal/auditlog"
)

func TestWorkerDrainsBufferedEntriesOnShutdown(t *testing.T) {
	w := New(slog.Default(), nil)

	for i := 1; i <= 3; i++ {
		w.Sink() <- auditlog.Entry{ID: auditlog.EntryID(i), EventType: auditlog.EventRollback}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
	assert.Empty(t, w.entries, "buffered entries were drained")
}

func TestWorkerConsumesWhileRunning(t *testing.T) {
	w := New(slog.Default(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	w.Sink() <- auditlog.Entry{ID: 1, EventType: auditlog.EventRuleUpdated}

	require.Eventually(t, func() bool { return len(w.entries) == 0 },
		time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
