package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Environment describes a requested environment as read from an environment file.
// Paths are resolved relative to the file.
type Environment struct {
	// Repodata lists the repodata files, highest channel priority first.
	Repodata []string

	// Specs are the requested match specs.
	Specs []string

	// Locked are match specs selecting records that must not change.
	Locked []string

	// Pinned are match specs selecting preferred records.
	Pinned []string

	// Virtual lists virtual packages as name[=version[=build]].
	Virtual []string

	// Budget bounds each solve.
	Budget Budget
}

// ParseVirtualPackage parses a virtual package definition of the form
// name[=version[=build]]. The version defaults to 0 and the build to "0".
func ParseVirtualPackage(text string) (*PackageRecord, error) {
	parts := strings.Split(strings.TrimSpace(text), "=")
	if len(parts) > 3 || parts[0] == "" {
		return nil, zerr.With(ErrInvalidVirtualPackage, "virtual_package", text)
	}

	rec := &PackageRecord{Name: strings.ToLower(parts[0]), Build: "0"}
	version := "0"
	if len(parts) > 1 && parts[1] != "" {
		version = parts[1]
	}
	v, err := ParseVersion(version)
	if err != nil {
		return nil, zerr.With(zerr.With(ErrInvalidVirtualPackage, "virtual_package", text), "reason", err.Error())
	}
	rec.Version = v
	if len(parts) > 2 && parts[2] != "" {
		rec.Build = parts[2]
	}
	return rec, nil
}
