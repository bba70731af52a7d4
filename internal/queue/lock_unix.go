//go:build unix

package queue

import (
	"os"
	"syscall"
)

// tryLock takes the flock non-blocking; failure means another leadvault
// process currently owns the queue.
func (l *writeLocker) tryLock() error {
	return syscall.Flock(int(l.lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

func (l *writeLocker) unlock() {
	if l.lockFile == nil {
		return
	}
	syscall.Flock(int(l.lockFile.Fd()), syscall.LOCK_UN)
}

// isProcessAlive reports whether the recorded lock holder still exists, so
// the lock-timeout message can call out a stale holder. Signal 0 probes the
// pid without delivering anything.
func isProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
