// Package repodata reads conda repodata.json files into a package index.
package repodata

import (
	"context"
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/rattle/internal/core/domain"
	"go.trai.ch/rattle/internal/core/ports"
	"go.trai.ch/rattle/internal/engine/matchspec"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Source implements ports.RecordSource over local repodata files.
type Source struct {
	logger ports.Logger
}

// NewSource creates a new Source that reports skipped records to logger.
func NewSource(logger ports.Logger) *Source {
	return &Source{logger: logger}
}

// file holds the records of one repodata file in file order.
type file struct {
	path    string
	records []*domain.PackageRecord
	skipped []string
}

// LoadRecordsRecursive reads every source concurrently, merges them in the order
// given and returns the records reachable from roots.
func (s *Source) LoadRecordsRecursive(ctx context.Context, sources, roots []string) (domain.PackageIndex, error) {
	if len(sources) == 0 {
		return nil, domain.ErrNoRepodata
	}

	files := make([]*file, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := readFile(path)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, f := range files {
		for _, msg := range f.skipped {
			s.logger.Warn(msg)
		}
	}
	return closure(merge(files), roots), nil
}

// readFile parses one repodata file. Records with an unparsable version are
// reported in skipped rather than failing the file.
func readFile(path string) (*file, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrRepodataReadFailed.Error()), "path", path)
	}

	var rd Repodata
	if err := json.Unmarshal(data, &rd); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrRepodataParseFailed.Error()), "path", path)
	}

	subdir := rd.Info.Subdir
	if subdir == "" {
		subdir = filepath.Base(filepath.Dir(path))
	}
	channel := domain.NewInternedString(channelName(path))

	f := &file{path: path}
	for _, section := range []map[string]PackageDTO{rd.Packages, rd.CondaPackages} {
		for _, fn := range slices.Sorted(maps.Keys(section)) {
			dto := section[fn]
			rec, err := toRecord(fn, dto, channel, subdir)
			if err != nil {
				f.skipped = append(f.skipped, "skipping "+fn+" in "+path+": "+err.Error())
				continue
			}
			f.records = append(f.records, rec)
		}
	}
	return f, nil
}

func toRecord(fn string, dto PackageDTO, channel domain.InternedString, subdir string) (*domain.PackageRecord, error) {
	v, err := domain.ParseVersion(dto.Version)
	if err != nil {
		return nil, err
	}
	if dto.Subdir != "" {
		subdir = dto.Subdir
	}
	return &domain.PackageRecord{
		Name:          strings.ToLower(dto.Name),
		Version:       v,
		Build:         dto.Build,
		BuildNumber:   dto.BuildNumber,
		Depends:       dto.Depends,
		Constrains:    dto.Constrains,
		Channel:       channel,
		Subdir:        domain.NewInternedString(subdir),
		FileName:      fn,
		Timestamp:     timestampMillis(dto.Timestamp),
		MD5:           dto.MD5,
		SHA256:        dto.SHA256,
		Size:          dto.Size,
		TrackFeatures: dto.TrackFeatures,
		Features:      dto.Features,
	}, nil
}

// channelName derives the channel from the conventional <channel>/<subdir>/repodata.json layout.
func channelName(path string) string {
	dir := filepath.Dir(filepath.Dir(filepath.Clean(path)))
	name := filepath.Base(dir)
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

// merge combines files in priority order. A record whose name, version and build
// was supplied by an earlier file is dropped.
func merge(files []*file) domain.PackageIndex {
	idx := make(domain.PackageIndex)
	seen := make(map[string]bool)
	for _, f := range files {
		for _, rec := range f.records {
			id := rec.Identity()
			if seen[id] {
				continue
			}
			seen[id] = true
			idx[rec.Name] = append(idx[rec.Name], rec)
		}
	}
	return idx
}

// closure keeps the records reachable from roots through any dependency alternative.
func closure(all domain.PackageIndex, roots []string) domain.PackageIndex {
	out := make(domain.PackageIndex)
	queue := make([]string, 0, len(roots))
	visited := make(map[string]bool)
	push := func(name string) {
		name = strings.ToLower(name)
		if !visited[name] {
			visited[name] = true
			queue = append(queue, name)
		}
	}
	for _, r := range roots {
		push(r)
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		recs, ok := all[name]
		if !ok {
			continue
		}
		out[name] = recs
		for _, rec := range recs {
			for _, text := range rec.Depends {
				dep, err := matchspec.ParseDependency(text)
				if err != nil {
					continue
				}
				for _, n := range dep.Names() {
					push(n)
				}
			}
		}
	}
	return out
}
