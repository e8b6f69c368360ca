package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Manager is the local-filesystem Backend: a single mirror file plus a
// sibling .lock file, grounded on the teacher's state.Manager but
// corrected to write atomically (temp file in the same directory,
// renamed over the target) instead of the teacher's direct
// os.WriteFile, which leaves a reader able to observe a half-written
// file if the process is killed mid-write.
type Manager struct {
	path string
}

// NewManager returns a Manager that reads and writes the mirror at path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Read loads the mirror from disk, returning an empty mirror if the
// file does not exist yet.
func (m *Manager) Read(ctx context.Context) (*Mirror, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewMirror(), nil
		}
		return nil, &ErrPersistence{Kind: "read", Err: err}
	}

	mirror := NewMirror()
	if len(data) == 0 {
		return mirror, nil
	}
	if err := json.Unmarshal(data, mirror); err != nil {
		return nil, &ErrPersistence{Kind: "decode", Err: err}
	}
	return mirror, nil
}

// Write atomically persists the mirror: it serializes to a temp file in
// the same directory as the target, fsyncs it, then renames it over the
// target. A crash at any point leaves either the old file or the new
// one intact, never a partial write.
func (m *Manager) Write(ctx context.Context, mirror *Mirror) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return &ErrPersistence{Kind: "write", Err: fmt.Errorf("create directory: %w", err)}
	}

	data, err := json.MarshalIndent(mirror, "", "  ")
	if err != nil {
		return &ErrPersistence{Kind: "encode", Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), filepath.Base(m.path)+".tmp-*")
	if err != nil {
		return &ErrPersistence{Kind: "write", Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &ErrPersistence{Kind: "write", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &ErrPersistence{Kind: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &ErrPersistence{Kind: "write", Err: err}
	}
	if err := os.Rename(tmpPath, m.path); err != nil {
		return &ErrPersistence{Kind: "write", Err: err}
	}
	return nil
}

// Lock and Unlock satisfy Backend; the local manager delegates to
// lockFile and unlockFile, which implement the teacher's
// staleness-aware file lock.
func (m *Manager) Lock(ctx context.Context) error {
	return lockFile(m.lockPath())
}

func (m *Manager) Unlock(ctx context.Context) error {
	return unlockFile(m.lockPath())
}

func (m *Manager) lockPath() string {
	return m.path + ".lock"
}
