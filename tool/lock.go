package tool

import (
	"errors"
	"fmt"

	"github.com/adrg/xdg"
	"github.com/gofrs/flock"
)

var ErrAlreadyRunning = errors.New("another qrsend instance is running")

// DefaultLockPath returns the per-user runtime lock file, creating its directory.
func DefaultLockPath() (string, error) {
	return xdg.RuntimeFile("qrsend/qrsend.lock")
}

// AcquireInstanceLock takes the single-instance lock at path. Release it with Unlock.
func AcquireInstanceLock(path string) (*flock.Flock, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, path)
	}
	return lock, nil
}
