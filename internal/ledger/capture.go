package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"capturebridge/internal/pollerrors"
)

// VoiceMeta is the meta_json payload stamped on every voice capture row.
type VoiceMeta struct {
	Channel         string `json:"channel"`
	ChannelNativeID string `json:"channel_native_id"`
	AudioFP         string `json:"audio_fp"`
}

// CaptureStager inserts one ledger row per accepted voice file.
type CaptureStager struct {
	store *Store
}

// NewCaptureStager builds a CaptureStager over an already-open ledger.
func NewCaptureStager(store *Store) *CaptureStager {
	return &CaptureStager{store: store}
}

// IsStaged reports whether a capture already exists for (channel,
// channelNativeID) — the L1 half of the dedup gate. It runs before any
// materialization or fingerprinting work for the file.
func (c *CaptureStager) IsStaged(ctx context.Context, channel, channelNativeID string) (bool, error) {
	var id string
	found, err := c.store.QueryOne(ctx, func(r Row) error {
		return r.Scan(&id)
	}, `SELECT id FROM captures
		WHERE json_extract(meta_json, '$.channel') = ?
		  AND json_extract(meta_json, '$.channel_native_id') = ?`, channel, channelNativeID)
	if err != nil {
		return false, err
	}
	return found, nil
}

// Stage inserts a new capture row for path, with the given content
// fingerprint. It re-checks L1 immediately before the insert and treats
// a unique-constraint violation as a path duplicate rather than an
// error, so concurrent or retried callers stay idempotent.
func (c *CaptureStager) Stage(ctx context.Context, path, audioFP string) (string, error) {
	staged, err := c.IsStaged(ctx, "voice", path)
	if err != nil {
		return "", err
	}
	if staged {
		return "", pollerrors.ErrDuplicateByPath
	}

	meta := VoiceMeta{Channel: "voice", ChannelNativeID: path, AudioFP: audioFP}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("capture: marshal meta: %w", err)
	}

	id := uuid.Must(uuid.NewV7()).String()
	now := time.Now().UTC().Format(watermarkTimeLayout)

	_, err = c.store.Execute(ctx, `
		INSERT INTO captures (id, source, status, meta_json, raw_content, created_at, updated_at)
		VALUES (?, 'voice', 'staged', ?, '', ?, ?)
	`, id, string(metaJSON), now, now)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return "", pollerrors.ErrDuplicateByPath
		}
		return "", fmt.Errorf("capture: insert: %w", err)
	}
	return id, nil
}

func isUniqueConstraintErr(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint") || strings.Contains(err.Error(), "constraint failed")
}
