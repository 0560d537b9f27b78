// Package scanner enumerates candidate voice-memo files in the
// cloud-synced capture folder.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"capturebridge/internal/pollerrors"
)

// Scanner lists audio files under a single flat directory.
type Scanner struct {
	folder    string
	extension string
}

// New builds a Scanner over folder, filtering to files whose name ends
// with extension (case-sensitive, e.g. ".m4a").
func New(folder, extension string) *Scanner {
	return &Scanner{folder: folder, extension: extension}
}

// Scan returns the absolute paths of matching files, sorted
// lexicographically by basename so repeated scans of an unchanged
// directory snapshot always agree on processing order.
func (s *Scanner) Scan() ([]string, error) {
	entries, err := os.ReadDir(s.folder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pollerrors.ErrFolderUnavailable, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(e.Name(), s.extension) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	paths := make([]string, 0, len(names))
	for _, n := range names {
		paths = append(paths, filepath.Join(s.folder, n))
	}
	return paths, nil
}

// ModTime returns the os.FileInfo of path (via os.Stat), whose ModTime
// is the last-modification instant. It has the signature of
// pollcycle.Cycle.StatFunc; the cycle calls os.Stat when StatFunc is nil.
func ModTime(path string) (os.FileInfo, error) {
	return os.Stat(path)
}
