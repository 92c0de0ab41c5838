//go:build !windows

package history

import (
	"fmt"
	"os"
	"syscall"
)

// lockFile is an advisory exclusive lock on the database's companion
// ".lock" file, taken in Open before migrations run and held until the
// DB is closed. A second process attempting to open the same store
// blocks until the first one closes it, so migrations never race.
type lockFile struct {
	file *os.File
}

func acquireLock(path string) (*lockFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return &lockFile{file: f}, nil
}

func (l *lockFile) release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	return err
}
