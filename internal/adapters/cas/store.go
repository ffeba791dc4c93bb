// Package cas implements content addressed storage of lockfiles.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/rattle/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.LockStore using one file per spec set.
type Store struct {
	root string
}

// NewStore creates a new LockStore rooted at the given workspace directory.
// The directory need not exist yet, but root must not name a file.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, zerr.With(domain.ErrLockStoreRootInvalid, "root", root)
	}
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLockStoreRootInvalid.Error()), "root", root)
	case !info.IsDir():
		return nil, zerr.With(domain.ErrLockStoreRootInvalid, "root", root)
	}
	return &Store{root: root}, nil
}

// Get retrieves the lockfile recorded for specs.
func (s *Store) Get(specs []string) (*domain.Lockfile, error) {
	filename := s.filename(specs)
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLockStoreReadFailed.Error()), "path", filename)
	}

	var lf domain.Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLockStoreUnmarshalFailed.Error()), "path", filename)
	}

	// A hash collision or a hand edited file must not leak another environment.
	if domain.CanonicalSpecs(lf.Specs) != domain.CanonicalSpecs(specs) {
		return nil, nil
	}
	return &lf, nil
}

// Put stores the lockfile under its specs.
func (s *Store) Put(lf *domain.Lockfile) error {
	data, err := json.MarshalIndent(lf, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrLockStoreMarshalFailed.Error())
	}

	filename := s.filename(lf.Specs)
	if err := os.MkdirAll(filepath.Dir(filename), domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrLockStoreCreateFailed.Error())
	}

	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	if err := os.WriteFile(filename, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLockStoreWriteFailed.Error()), "path", filename)
	}
	return nil
}

// Path returns the file a lockfile for specs is stored in.
func (s *Store) Path(specs []string) string {
	return s.filename(specs)
}

func (s *Store) filename(specs []string) string {
	hash := xxhash.Sum64String(domain.CanonicalSpecs(specs))
	return filepath.Join(s.root, domain.DefaultLockStorePath(), strconv.FormatUint(hash, 16)+".json")
}
