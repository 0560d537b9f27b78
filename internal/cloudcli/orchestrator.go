package cloudcli

import (
	"context"
	"fmt"
	"time"

	"capturebridge/internal/pollerrors"
)

// CloudChecker is the subset of Adapter the orchestrator depends on,
// pulled out as an interface so tests can substitute a fake cloud CLI.
type CloudChecker interface {
	Check(ctx context.Context, path string) (Status, error)
	Download(ctx context.Context, path string) error
}

// Orchestrator guarantees a file is locally materialized, or fails fast
// on an unresolved cloud conflict.
type Orchestrator struct {
	adapter      CloudChecker
	waitTimeout  time.Duration
	pollMaxDelay time.Duration
}

// NewOrchestrator builds an Orchestrator around adapter. waitTimeout is
// the deadline for a dataless file to materialize: the first check that
// still reports dataless after it has passed fails with
// ErrDownloadTimeout. A backoff sleep already under way is not cut
// short, so the wait can exceed waitTimeout by up to one poll interval.
func NewOrchestrator(adapter CloudChecker, waitTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		adapter:      adapter,
		waitTimeout:  waitTimeout,
		pollMaxDelay: 5 * time.Second,
	}
}

// EnsureMaterialized downloads path if needed and waits for it to become
// locally present, then rechecks for conflicts. It never modifies or
// moves the file itself.
func (o *Orchestrator) EnsureMaterialized(ctx context.Context, path string) error {
	status, err := o.adapter.Check(ctx, path)
	if err != nil {
		return err
	}

	if status.IsDataless {
		if err := o.adapter.Download(ctx, path); err != nil {
			return err
		}
		if err := o.waitForMaterialization(ctx, path); err != nil {
			return err
		}
	}

	final, err := o.adapter.Check(ctx, path)
	if err != nil {
		return err
	}
	if final.HasConflicts {
		return fmt.Errorf("%w: %s", pollerrors.ErrConflictDetected, path)
	}
	return nil
}

func (o *Orchestrator) waitForMaterialization(ctx context.Context, path string) error {
	deadline := time.Now().Add(o.waitTimeout)
	delay := time.Second

	for {
		status, err := o.adapter.Check(ctx, path)
		if err != nil {
			return err
		}
		if !status.IsDataless {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", pollerrors.ErrDownloadTimeout, path)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > o.pollMaxDelay {
			delay = o.pollMaxDelay
		}
	}
}
