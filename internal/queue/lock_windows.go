//go:build windows

package queue

import "golang.org/x/sys/windows"

// lockLen is the byte range the exclusive lock covers. One byte at offset
// zero is enough to serialize queue writers.
const lockLen = 1

func (l *writeLocker) tryLock() error {
	return windows.LockFileEx(
		windows.Handle(l.lockFile.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0, lockLen, 0,
		new(windows.Overlapped),
	)
}

func (l *writeLocker) unlock() {
	if l.lockFile == nil {
		return
	}
	windows.UnlockFileEx(windows.Handle(l.lockFile.Fd()), 0, lockLen, 0, new(windows.Overlapped))
}

// isProcessAlive reports whether the recorded lock holder still exists, so
// the lock-timeout message can call out a stale holder.
func isProcessAlive(pid int) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	const stillActive = 259
	return code == stillActive
}
