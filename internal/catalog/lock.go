package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// AcquireLock takes the run lock, guaranteeing a single process mutates the
// collection. The returned release function is safe to call once.
func AcquireLock(path string) (release func(), err error) {
	if path == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("catalog lock: create directory: %w", err)
	}
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("catalog lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("catalog lock: another run holds %s", path)
	}
	return func() { _ = lock.Unlock() }, nil
}
