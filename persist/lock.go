package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const staleLockAge = 10 * time.Minute

// lockFile acquires a staleness-aware advisory file lock, grounded on
// the teacher's state.Manager.Lock: a lock file older than staleLockAge
// is assumed abandoned by a crashed process and reclaimed.
func lockFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("persist: create lock directory: %w", err)
	}

	if info, err := os.Stat(path); err == nil {
		if time.Since(info.ModTime()) > staleLockAge {
			os.Remove(path)
		} else {
			return fmt.Errorf("persist: mirror is locked by another process (lock file: %s)", path)
		}
	}

	content := fmt.Sprintf("pid=%d\ntime=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("persist: create lock file: %w", err)
	}
	return nil
}

func unlockFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("persist: remove lock file: %w", err)
	}
	return nil
}
