package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidMatchSpec is returned when a match spec cannot be parsed.
	ErrInvalidMatchSpec = zerr.New("invalid match spec")

	// ErrInvalidVersion is returned when a version string cannot be parsed.
	ErrInvalidVersion = zerr.New("invalid version")

	// ErrUnsolvable is returned when the solver proves that no solution exists.
	ErrUnsolvable = zerr.New("cannot solve the requested environment")

	// ErrComplexityExceeded is returned when the solver exhausts its step budget before a verdict.
	ErrComplexityExceeded = zerr.New("solver budget exceeded")

	// ErrInvariantViolated signals a defect in the compiler or solver core.
	ErrInvariantViolated = zerr.New("internal solver invariant violated")

	// ErrNoSpecs is returned when a solve is requested without any specs.
	ErrNoSpecs = zerr.New("no specs given")

	// ErrRepodataReadFailed is returned when a repodata file cannot be read.
	ErrRepodataReadFailed = zerr.New("failed to read repodata")

	// ErrRepodataParseFailed is returned when a repodata file cannot be decoded.
	ErrRepodataParseFailed = zerr.New("failed to parse repodata")

	// ErrNoRepodata is returned when no repodata source is configured.
	ErrNoRepodata = zerr.New("no repodata sources configured")

	// ErrConfigNotFound is returned when no environment file is found.
	ErrConfigNotFound = zerr.New("could not find " + EnvFileName)

	// ErrConfigReadFailed is returned when the environment file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read environment file")

	// ErrConfigParseFailed is returned when the environment file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse environment file")

	// ErrRecordNotFound is returned when a locked or pinned spec matches no record in the index.
	ErrRecordNotFound = zerr.New("no record matches spec")

	// ErrInvalidVirtualPackage is returned when a virtual package definition is malformed.
	ErrInvalidVirtualPackage = zerr.New("invalid virtual package, expected format: name[=version[=build]]")

	// ErrLockStoreRootInvalid is returned when the lockfile root is empty or not a directory.
	ErrLockStoreRootInvalid = zerr.New("invalid lockfile store root")

	// ErrLockStoreCreateFailed is returned when the lockfile directory cannot be created.
	ErrLockStoreCreateFailed = zerr.New("failed to create lockfile directory")

	// ErrLockStoreReadFailed is returned when a lockfile cannot be read.
	ErrLockStoreReadFailed = zerr.New("failed to read lockfile")

	// ErrLockStoreUnmarshalFailed is returned when a lockfile cannot be decoded.
	ErrLockStoreUnmarshalFailed = zerr.New("failed to unmarshal lockfile")

	// ErrLockStoreMarshalFailed is returned when a lockfile cannot be encoded.
	ErrLockStoreMarshalFailed = zerr.New("failed to marshal lockfile")

	// ErrLockStoreWriteFailed is returned when a lockfile cannot be written.
	ErrLockStoreWriteFailed = zerr.New("failed to write lockfile")
)
