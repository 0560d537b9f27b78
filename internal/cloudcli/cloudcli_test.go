package cloudcli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeFakeCLI writes an executable shell script that echoes a fixed
// response for "check" and succeeds silently for "download", optionally
// failing the first N invocations to exercise the retry ladder.
func writeFakeCLI(t *testing.T, response string, failFirstN int) string {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-icloudctl.sh")
	counterFile := filepath.Join(dir, "attempts")

	content := fmt.Sprintf(`#!/bin/sh
COUNT_FILE="%s"
N=0
if [ -f "$COUNT_FILE" ]; then
  N=$(cat "$COUNT_FILE")
fi
N=$((N+1))
echo "$N" > "$COUNT_FILE"
if [ "$N" -le %d ]; then
  echo "transient failure" >&2
  exit 1
fi
echo "%s"
exit 0
`, counterFile, failFirstN, response)

	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		t.Fatalf("write fake cli: %v", err)
	}
	return script
}

func TestAdapter_Check_ParsesDatalessAndConflicts(t *testing.T) {
	cli := writeFakeCLI(t, "status: dataless hasUnresolvedConflicts: true", 0)
	adapter := New(cli, cli, 3)

	status, err := adapter.Check(context.Background(), "/voice/weird path with spaces; rm -rf /.m4a")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !status.IsDataless || !status.HasConflicts {
		t.Errorf("expected dataless+conflicts, got %+v", status)
	}
}

func TestAdapter_Check_ArgvSafetyAgainstShellMetacharacters(t *testing.T) {
	// The path itself contains shell metacharacters. Because exec.CommandContext
	// never invokes a shell, this must be passed through as a single inert
	// argument rather than altering what gets executed.
	cli := writeFakeCLI(t, "ok", 0)
	adapter := New(cli, cli, 3)

	dangerous := "/voice/$(rm -rf ~); echo pwned.m4a"
	status, err := adapter.Check(context.Background(), dangerous)
	if err != nil {
		t.Fatalf("check with dangerous path: %v", err)
	}
	if status.IsDataless || status.HasConflicts {
		t.Errorf("unexpected status parsed from dangerous-path invocation: %+v", status)
	}
}

func TestAdapter_Check_RetriesTransientFailureThenSucceeds(t *testing.T) {
	cli := writeFakeCLI(t, "materialized", 2)
	adapter := New(cli, cli, 3)
	adapter.baseDelay = time.Millisecond

	status, err := adapter.Check(context.Background(), "/voice/a.m4a")
	if err != nil {
		t.Fatalf("expected success after retries, got: %v", err)
	}
	if status.IsDataless {
		t.Errorf("expected not dataless")
	}
}

func TestAdapter_Check_ExhaustsRetriesAndFails(t *testing.T) {
	cli := writeFakeCLI(t, "irrelevant", 10)
	adapter := New(cli, cli, 2)
	adapter.baseDelay = time.Millisecond

	_, err := adapter.Check(context.Background(), "/voice/a.m4a")
	if err == nil {
		t.Fatal("expected an error once retries are exhausted")
	}
}
