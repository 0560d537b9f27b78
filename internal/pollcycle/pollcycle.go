// Package pollcycle orchestrates a single scan-to-stage pass over the
// voice memo folder: scan, filter by watermark, then per file in strict
// sequence: L1 dedup, materialize, fingerprint, L2 dedup, stage.
package pollcycle

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"capturebridge/internal/pollerrors"
)

// Scanner enumerates candidate file paths.
type Scanner interface {
	Scan() ([]string, error)
}

// Materializer ensures a cloud-referenced file is locally present and
// conflict-free.
type Materializer interface {
	EnsureMaterialized(ctx context.Context, path string) error
}

// Fingerprinter computes a deterministic content identifier for path.
type Fingerprinter func(path string) (string, error)

// DedupService is the L2 (content) half of the dedup gate.
type DedupService interface {
	IsDuplicate(ctx context.Context, fp string) (bool, error)
	AddFingerprint(ctx context.Context, fp string) error
}

// CaptureStager is the L1 half of the dedup gate plus the staging write.
type CaptureStager interface {
	IsStaged(ctx context.Context, channel, channelNativeID string) (bool, error)
	Stage(ctx context.Context, path, audioFP string) (string, error)
}

// WatermarkStore reads/writes the cycle's persisted cursor.
type WatermarkStore interface {
	Get(ctx context.Context, key string) (time.Time, bool, error)
	Put(ctx context.Context, key string, value *time.Time) error
}

// FileError records why a single file was skipped.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Result summarizes the outcome of one cycle.
type Result struct {
	FilesFound        int         `json:"files_found"`
	FilesProcessed    int         `json:"files_processed"`
	DuplicatesSkipped int         `json:"duplicates_skipped"`
	Errors            []FileError `json:"errors"`
	DurationMS        int64       `json:"duration_ms"`
}

// Cycle wires together the components a single pass needs.
type Cycle struct {
	Scanner       Scanner
	Materializer  Materializer
	Fingerprint   Fingerprinter
	Dedup         DedupService
	Stager        CaptureStager
	Watermark     WatermarkStore
	WatermarkKey  string
	Logger        *slog.Logger
	StatFunc      func(path string) (os.FileInfo, error)
}

// Run executes one cycle and returns its summary. Per-file failures are
// recorded in Result.Errors; they never abort the cycle or prevent the
// watermark from advancing.
func (c *Cycle) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	statFunc := c.StatFunc
	if statFunc == nil {
		statFunc = os.Stat
	}

	files, err := c.Scanner.Scan()
	if err != nil {
		return Result{}, err
	}

	cursor, ok, err := c.Watermark.Get(ctx, c.WatermarkKey)
	if err != nil {
		logger.Warn("watermark read failed, treating as first run", "error", err)
		ok = false
	}

	result := Result{FilesFound: len(files)}

	for _, path := range files {
		if ok {
			info, statErr := statFunc(path)
			if statErr == nil && !info.ModTime().UTC().After(cursor) {
				continue
			}
		}

		staged, err := c.Stager.IsStaged(ctx, "voice", path)
		if err != nil {
			result.Errors = append(result.Errors, FileError{Path: path, Message: err.Error()})
			continue
		}
		if staged {
			result.DuplicatesSkipped++
			continue
		}

		if err := c.Materializer.EnsureMaterialized(ctx, path); err != nil {
			logger.Warn("materialization failed", "path", path, "error", err)
			result.Errors = append(result.Errors, FileError{Path: path, Message: err.Error()})
			continue
		}

		fp, err := c.Fingerprint(path)
		if err != nil {
			logger.Warn("fingerprint failed", "path", path, "error", err)
			result.Errors = append(result.Errors, FileError{Path: path, Message: err.Error()})
			continue
		}

		dup, err := c.Dedup.IsDuplicate(ctx, fp)
		if err != nil {
			result.Errors = append(result.Errors, FileError{Path: path, Message: err.Error()})
			continue
		}
		if dup {
			result.DuplicatesSkipped++
			continue
		}

		if _, err := c.Stager.Stage(ctx, path, fp); err != nil {
			if errors.Is(err, pollerrors.ErrDuplicateByPath) {
				result.DuplicatesSkipped++
				continue
			}
			result.Errors = append(result.Errors, FileError{Path: path, Message: err.Error()})
			continue
		}

		if err := c.Dedup.AddFingerprint(ctx, fp); err != nil {
			logger.Warn("fingerprint add failed", "path", path, "error", err)
		}

		result.FilesProcessed++
		logger.Info("staged voice capture", "path", path, "audio_fp", fp)
	}

	if err := c.Watermark.Put(ctx, c.WatermarkKey, nil); err != nil {
		logger.Error("watermark update failed", "error", err)
	}

	result.DurationMS = time.Since(start).Milliseconds()
	return result, nil
}
