package util

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
)

// TempSuffix marks chapter folders that are still being written.
const TempSuffix = "_tmp"

// InterruptContext is cancelled on SIGINT or SIGTERM.
func InterruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// CleanupUnfinishedTempFolders removes every *_tmp directory directly under
// outputDir and returns the removed paths.
func CleanupUnfinishedTempFolders(outputDir string) ([]string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), TempSuffix) {
			continue
		}

		full := filepath.Join(outputDir, e.Name())
		if err := os.RemoveAll(full); err != nil {
			return removed, err
		}
		removed = append(removed, full)
	}

	return removed, nil
}

// RemoveIfEmpty deletes dir when it has no entries.
func RemoveIfEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return false
	}

	return os.Remove(dir) == nil
}
