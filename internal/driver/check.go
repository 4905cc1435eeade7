// Package driver orchestrates the semantic pipeline: manifest loading,
// signature and slot resolution, diagnostics collection and the optional
// link-cache export.
package driver

import (
	"fmt"
	"os"

	"vesper/internal/diag"
	"vesper/internal/linkcache"
	"vesper/internal/manifest"
	"vesper/internal/project"
	"vesper/internal/sema"
	"vesper/internal/source"
	"vesper/internal/sym"
)

// Options controls one pipeline run.
type Options struct {
	MaxDiagnostics int
	Jobs           int  // directory mode parallelism; <=0 means GOMAXPROCS
	EmitCache      bool // write the link cache after a clean resolution
	CacheDir       string
	Progress       ProgressSink // optional, directory mode only
}

// Result is the outcome of checking one manifest.
type Result struct {
	Path    string
	FileSet *source.FileSet
	Graph   *sym.Graph
	Bag     *diag.Bag
	Session *sema.Session
	Res     *sema.Resolver
	Digest  project.Digest
}

// HasErrors reports whether resolution produced any error diagnostics.
func (r *Result) HasErrors() bool { return r.Bag != nil && r.Bag.HasErrors() }

// CheckFile runs the pipeline over a single manifest file.
func CheckFile(path string, opts Options) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return CheckBytes(path, content, opts)
}

// CheckBytes runs the pipeline over in-memory manifest content. The
// session is fresh per call; deterministic output for identical input.
func CheckBytes(path string, content []byte, opts Options) (*Result, error) {
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = project.DefaultConfig().MaxDiagnostics
	}

	fs := source.NewFileSet()
	g := sym.NewGraph(sym.Hints{}, nil, nil)
	bag := diag.NewBag(opts.MaxDiagnostics)
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: bag})

	loader := manifest.NewLoader(fs, g, reporter)
	if err := loader.LoadBytes(path, content); err != nil {
		// Syntax failure was already reported into the bag; the pipeline
		// ends here but the result is still renderable.
		return &Result{Path: path, FileSet: fs, Graph: g, Bag: bag}, nil
	}
	loader.Finish()

	session := sema.NewSession()
	resolver := sema.NewResolver(g, reporter, session)
	resolver.Resolve()

	bag.Sort()

	res := &Result{
		Path:    path,
		FileSet: fs,
		Graph:   g,
		Bag:     bag,
		Session: session,
		Res:     resolver,
		Digest:  project.HashBytes(content),
	}

	if opts.EmitCache && !bag.HasErrors() {
		if err := exportCache(res, opts); err != nil {
			return res, fmt.Errorf("write link cache: %w", err)
		}
	}
	return res, nil
}

func exportCache(res *Result, opts Options) error {
	var cache *linkcache.Cache
	var err error
	if opts.CacheDir != "" {
		cache, err = linkcache.OpenAt(opts.CacheDir)
	} else {
		cache, err = linkcache.Open("vesper")
	}
	if err != nil {
		return err
	}
	payload := linkcache.Export(res.Graph, res.Path, res.Digest, res.Res.DeclLabels)
	return cache.Put(payload)
}
