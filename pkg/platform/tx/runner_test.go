package tx

import (
	"context"
	"errors"
	"sync"
	"testing"

	dErrors "reguard/pkg/domain-errors"
)

func TestOnCommitDeferredUntilUnitCompletes(t *testing.T) {
	runner := NewMemoryRunner()

	fired := false
	err := runner.RunInTx(context.Background(), func(txCtx context.Context) error {
		OnCommit(txCtx, func() { fired = true })
		if fired {
			t.Fatal("hook ran inside the unit of work")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fired {
		t.Fatal("hook did not run after the unit completed")
	}
}

func TestOnCommitSkippedWhenUnitFails(t *testing.T) {
	runner := NewMemoryRunner()

	fired := false
	err := runner.RunInTx(context.Background(), func(txCtx context.Context) error {
		OnCommit(txCtx, func() { fired = true })
		return errors.New("unit failed")
	})
	if err == nil {
		t.Fatal("expected the unit's error")
	}
	if fired {
		t.Fatal("hook must not run for a failed unit")
	}
}

func TestOnCommitOutsideUnitRunsImmediately(t *testing.T) {
	fired := false
	OnCommit(context.Background(), func() { fired = true })
	if !fired {
		t.Fatal("hook outside a unit of work must run immediately")
	}
}

func TestMemoryRunnerCancelledContext(t *testing.T) {
	runner := NewMemoryRunner()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runner.RunInTx(ctx, func(context.Context) error {
		t.Fatal("unit must not run on a cancelled context")
		return nil
	})
	if !dErrors.HasCode(err, dErrors.CodeTimeout) {
		t.Fatalf("expected CodeTimeout, got %v", err)
	}
}

func TestMemoryRunnerSerializesUnits(t *testing.T) {
	runner := NewMemoryRunner()
	ctx := context.Background()

	const writers = 50
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = runner.RunInTx(ctx, func(context.Context) error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	var observed int
	if err := runner.RunInSnapshot(ctx, func(context.Context) error {
		observed = counter
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if observed != writers {
		t.Fatalf("expected %d increments, got %d", writers, observed)
	}
}
