//go:build windows

package history

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// lockFile mirrors lock_unix.go's advisory exclusive lock using
// LockFileEx, since flock has no Windows equivalent.
type lockFile struct {
	file *os.File
}

func acquireLock(path string) (*lockFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	ol := new(windows.Overlapped)
	if err := windows.LockFileEx(
		windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK,
		0, 1, 0, ol,
	); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return &lockFile{file: f}, nil
}

func (l *lockFile) release() error {
	if l == nil || l.file == nil {
		return nil
	}
	ol := new(windows.Overlapped)
	_ = windows.UnlockFileEx(windows.Handle(l.file.Fd()), 0, 1, 0, ol)
	err := l.file.Close()
	l.file = nil
	return err
}
