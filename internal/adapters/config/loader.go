// Package config provides the environment file loader for rattle.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/rattle/internal/core/domain"
	"go.trai.ch/rattle/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the environment file version this loader reads.
const SupportedVersion = "1"

// Loader implements ports.EnvironmentLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the environment file at path. If path is a directory, rattle.yaml is
// searched in it and its parents. Repodata paths are resolved against the file's directory.
func (l *Loader) Load(path string) (*domain.Environment, error) {
	file, err := l.findEnvfile(path)
	if err != nil {
		return nil, err
	}

	var ef Envfile
	if err := readAndUnmarshalYAML(file, &ef); err != nil {
		return nil, zerr.With(err, "path", file)
	}
	if ef.Version != "" && ef.Version != SupportedVersion {
		l.Logger.Warn("unknown environment file version " + ef.Version + " in " + file)
	}

	for _, v := range ef.Virtual {
		if _, err := domain.ParseVirtualPackage(v); err != nil {
			return nil, zerr.With(err, "path", file)
		}
	}

	return &domain.Environment{
		Repodata: l.resolvePaths(filepath.Dir(file), ef.Repodata),
		Specs:    ef.Specs,
		Locked:   ef.Locked,
		Pinned:   ef.Pinned,
		Virtual:  ef.Virtual,
		Budget: domain.Budget{
			MaxConflicts: ef.Budget.MaxConflicts,
			MaxDecisions: ef.Budget.MaxDecisions,
		},
	}, nil
}

func (l *Loader) findEnvfile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}
	if !info.IsDir() {
		return path, nil
	}

	dir, err := filepath.Abs(path)
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}
	for {
		candidate := filepath.Join(dir, domain.EnvFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", zerr.With(domain.ErrConfigNotFound, "cwd", path)
		}
		dir = parent
	}
}

// resolvePaths makes relative paths absolute against base, dropping duplicates.
func (l *Loader) resolvePaths(base string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		p = filepath.Clean(p)
		if slices.Contains(out, p) {
			l.Logger.Warn("ignoring duplicate repodata source " + p)
			continue
		}
		out = append(out, p)
	}
	return out
}

// readAndUnmarshalYAML reads a YAML file and decodes it strictly into target.
func readAndUnmarshalYAML[T any](path string, target *T) error {
	// #nosec G304 -- path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}
	return nil
}
