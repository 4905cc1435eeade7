package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// manifestSuffix marks declaration manifests inside a unit directory.
const manifestSuffix = ".vd.toml"

// DirResult aggregates one directory run. Results are ordered by path
// regardless of completion order.
type DirResult struct {
	Results []*Result
}

// HasErrors reports whether any file in the run produced errors.
func (d *DirResult) HasErrors() bool {
	for _, r := range d.Results {
		if r.HasErrors() {
			return true
		}
	}
	return false
}

// ListManifests returns the sorted manifest paths under dir.
func ListManifests(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), manifestSuffix) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// CheckDir checks every manifest under dir concurrently. Each file gets
// its own session and bag; the returned order is deterministic.
func CheckDir(ctx context.Context, dir string, opts Options) (*DirResult, error) {
	files, err := ListManifests(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return &DirResult{}, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if jobs > len(files) {
		jobs = len(files)
	}

	results := make([]*Result, len(files))
	for _, path := range files {
		emit(opts.Progress, Event{File: path, Status: StatusQueued})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			emit(opts.Progress, Event{File: path, Status: StatusWorking})
			started := time.Now()
			res, err := CheckFile(path, opts)
			if err != nil {
				emit(opts.Progress, Event{File: path, Status: StatusError, Err: err, Elapsed: time.Since(started)})
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			status := StatusDone
			if res.HasErrors() {
				status = StatusError
			}
			emit(opts.Progress, Event{
				File:    path,
				Status:  status,
				Errors:  res.Bag.Len(),
				Elapsed: time.Since(started),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &DirResult{Results: results}, nil
}
