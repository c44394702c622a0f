package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kfd-o/mobile-firebase-backend/internal/accounts"
	"github.com/kfd-o/mobile-firebase-backend/internal/config"
)

type countingSweeper struct {
	calls atomic.Int32
	limit atomic.Int32
}

func (c *countingSweeper) SweepCleanup(_ context.Context, limit int) (accounts.SweepResult, error) {
	c.calls.Add(1)
	c.limit.Store(int32(limit))
	return accounts.SweepResult{Cleaned: 1}, nil
}

func TestCleanupSweepJobRunsUntilCancelled(t *testing.T) {
	sweeper := &countingSweeper{}
	cfg := config.Config{
		CleanupJobEnabled:  true,
		CleanupJobInterval: 5 * time.Millisecond,
		CleanupJobTimeout:  time.Second,
		CleanupBatchSize:   7,
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartCleanupSweepJob(ctx, cfg, sweeper, zap.NewNop())

	deadline := time.Now().Add(2 * time.Second)
	for sweeper.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected the job to tick, got %d calls", sweeper.calls.Load())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("job did not stop after cancel")
	}
	if sweeper.limit.Load() != 7 {
		t.Fatalf("expected batch size 7, got %d", sweeper.limit.Load())
	}
}

func TestCleanupSweepJobDisabled(t *testing.T) {
	sweeper := &countingSweeper{}
	done := StartCleanupSweepJob(context.Background(), config.Config{}, sweeper, zap.NewNop())
	select {
	case <-done:
	default:
		t.Fatalf("expected disabled job to report done immediately")
	}
	if sweeper.calls.Load() != 0 {
		t.Fatalf("expected no sweeps")
	}
}
