// Package fingerprint computes the deterministic content identifier used
// for cross-path duplicate detection. It is a pure function of file
// bytes: same content in, same fingerprint out, regardless of path or
// mtime.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"capturebridge/internal/pollerrors"
)

// Compute streams path through SHA-256 and returns the lowercase hex
// digest. No pack example ships a dedicated content-hash library, so
// this single leaf function is built directly on crypto/sha256 rather
// than an external dependency (see DESIGN.md).
func Compute(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", pollerrors.ErrFingerprintFailed, path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("%w: read %s: %v", pollerrors.ErrFingerprintFailed, path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
