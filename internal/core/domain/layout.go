package domain

import "path/filepath"

const (
	// RattleDirName is the name of the internal workspace directory.
	RattleDirName = ".rattle"

	// LocksDirName is the name of the lockfile store directory.
	LocksDirName = "locks"

	// EnvFileName is the name of the default environment file.
	EnvFileName = "rattle.yaml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultRattlePath returns the default root directory for rattle metadata.
func DefaultRattlePath() string {
	return RattleDirName
}

// DefaultLockStorePath returns the default path for the lockfile store.
// It joins .rattle and locks.
func DefaultLockStorePath() string {
	return filepath.Join(RattleDirName, LocksDirName)
}
