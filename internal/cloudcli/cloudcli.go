// Package cloudcli wraps the external cloud CLI (icloudctl) the way this
// codebase's audio processor wraps ffmpeg: exec.CommandContext with an
// explicit argv vector, never a shell string, so a crafted path can never
// inject an extra flag or command.
package cloudcli

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"capturebridge/internal/pollerrors"
)

// Status is the parsed result of a single check call.
type Status struct {
	IsDataless   bool
	HasConflicts bool
}

// Adapter invokes the cloud CLI with bounded retry.
type Adapter struct {
	checkCmd    string
	downloadCmd string
	retryCount  int
	baseDelay   time.Duration
}

// New builds an Adapter. checkCmd/downloadCmd name the binary to invoke
// ("icloudctl" in this deployment); retryCount is the number of retries
// after the first attempt (exponential backoff: 1s, 2s, 4s, ...).
func New(checkCmd, downloadCmd string, retryCount int) *Adapter {
	return &Adapter{
		checkCmd:    checkCmd,
		downloadCmd: downloadCmd,
		retryCount:  retryCount,
		baseDelay:   time.Second,
	}
}

// Check reports the dataless/conflict state of path, retrying transient
// failures with exponential backoff.
func (a *Adapter) Check(ctx context.Context, path string) (Status, error) {
	out, err := a.runWithRetry(ctx, a.checkCmd, "check", path)
	if err != nil {
		return Status{}, err
	}
	return parseStatus(out), nil
}

// Download requests materialization of path. It does not wait for the
// download to complete; callers poll Check.
func (a *Adapter) Download(ctx context.Context, path string) error {
	_, err := a.runWithRetry(ctx, a.downloadCmd, "download", path)
	return err
}

func (a *Adapter) runWithRetry(ctx context.Context, name, subcommand, path string) (string, error) {
	// All attempts of one call share a 60s wall-clock budget.
	const retryBudget = 60 * time.Second
	ctx, cancel := context.WithTimeout(ctx, retryBudget)
	defer cancel()

	var lastErr error
	delay := a.baseDelay
	for attempt := 0; attempt <= a.retryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		cmd := exec.CommandContext(ctx, name, subcommand, path)
		out, err := cmd.CombinedOutput()
		if err == nil {
			return string(out), nil
		}
		lastErr = err
	}
	var execErr *exec.Error
	if errors.As(lastErr, &execErr) {
		return "", fmt.Errorf("%w: %v", pollerrors.ErrCloudUnavailable, lastErr)
	}
	if subcommand == "download" {
		return "", fmt.Errorf("%w: %v", pollerrors.ErrCloudDownloadFailed, lastErr)
	}
	return "", fmt.Errorf("%w: %v", pollerrors.ErrCloudCheckFailed, lastErr)
}

func parseStatus(output string) Status {
	return Status{
		IsDataless:   strings.Contains(output, "dataless"),
		HasConflicts: strings.Contains(output, "hasUnresolvedConflicts: true"),
	}
}
