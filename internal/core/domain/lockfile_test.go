package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rattle/internal/core/domain"
)

func TestLockfile_RoundTripThroughIndex(t *testing.T) {
	python := newRecord("python", "3.9.1", "h_1")
	zlib := newRecord("zlib", "1.2.13", "h_0")
	sol := &domain.Solution{Records: []*domain.PackageRecord{python, zlib}}

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	lf := domain.NewLockfile([]string{"python 3.9.*"}, sol, now)

	assert.Equal(t, domain.LockfileVersion, lf.Version)
	assert.Equal(t, now, lf.CreatedAt)
	require.Len(t, lf.Packages, 2)
	assert.Equal(t, "conda-forge", lf.Packages[0].Channel)

	idx := domain.PackageIndex{
		"python": {newRecord("python", "3.9.0", "h_0"), python},
	}
	records, missing := lf.Resolve(idx)

	assert.Equal(t, []*domain.PackageRecord{python}, records)
	assert.Equal(t, []string{"zlib"}, missing)
}

func TestLockedPackage_Matches(t *testing.T) {
	rec := newRecord("zlib", "1.2.13", "h_0")

	assert.True(t, domain.LockedPackage{Name: "zlib", Version: "1.2.13", Build: "h_0"}.Matches(rec))
	assert.False(t, domain.LockedPackage{Name: "zlib", Version: "1.2.13", Build: "h_0", Channel: "main"}.Matches(rec))
	assert.False(t, domain.LockedPackage{Name: "zlib", Version: "1.2.12", Build: "h_0"}.Matches(rec))
}
