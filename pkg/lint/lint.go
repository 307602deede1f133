// Package lint runs the ID-dependent backward branch check over files.
// It parses each file, analyzes every function definition with a fresh
// dependency table, and gathers the diagnostics per file in input order.
package lint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/l3aro/idbranch/internal/log"
	"github.com/l3aro/idbranch/pkg/cache"
	"github.com/l3aro/idbranch/pkg/frontend"
	"github.com/l3aro/idbranch/pkg/idcheck"
	"github.com/l3aro/idbranch/pkg/kast"
)

// ErrWarnings is returned by callers that turn diagnostics into a
// failing exit status.
var ErrWarnings = errors.New("ID-dependent backward branches found")

// cacheVersion is mixed into cache keys; bump it when analysis output
// changes for the same input.
const cacheVersion = "idbranch/1"

// Options configures a run.
type Options struct {
	// IDFunctions recognized as work-item queries. Nil means the defaults.
	IDFunctions idcheck.IDFunctions
	// Qualifiers blanked before parsing. Nil means the frontend defaults.
	Qualifiers []string
	// Jobs bounds the files analyzed at once, 0 means GOMAXPROCS.
	Jobs int
	// Cache, when set, stores results by content.
	Cache *cache.ResultCache[FileResult]
	// Logger defaults to a no-op logger.
	Logger log.Logger
	// Progress is called after each file with the number done so far.
	Progress func(done, total int)
}

func (o Options) ids() idcheck.IDFunctions {
	if o.IDFunctions == nil {
		return idcheck.DefaultIDFunctions()
	}
	return o.IDFunctions
}

func (o Options) qualifiers() []string {
	if o.Qualifiers == nil {
		return frontend.DefaultQualifiers()
	}
	return o.Qualifiers
}

func (o Options) logger() log.Logger {
	if o.Logger == nil {
		return log.Nop()
	}
	return o.Logger
}

// FunctionResult holds the diagnostics of one function definition.
type FunctionResult struct {
	Name   string          `json:"name" msgpack:"name"`
	At     kast.Pos        `json:"pos" msgpack:"pos"`
	Events []idcheck.Event `json:"events,omitempty" msgpack:"events"`
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path         string           `json:"file" msgpack:"-"`
	Functions    []FunctionResult `json:"functions" msgpack:"functions"`
	SyntaxErrors int              `json:"syntax_errors,omitempty" msgpack:"syntax_errors"`
	// Err is set when the file could not be read or parsed.
	Err    error `json:"-" msgpack:"-"`
	Cached bool  `json:"-" msgpack:"-"`
}

// Warnings counts the warnings in the file.
func (r *FileResult) Warnings() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, fn := range r.Functions {
		for _, ev := range fn.Events {
			if ev.Severity == idcheck.Warning {
				n++
			}
		}
	}
	return n
}

// Warnings counts the warnings across results.
func Warnings(results []*FileResult) int {
	n := 0
	for _, r := range results {
		n += r.Warnings()
	}
	return n
}

// Failed returns the results whose file could not be analyzed.
func Failed(results []*FileResult) []*FileResult {
	var out []*FileResult
	for _, r := range results {
		if r != nil && r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// CacheKey derives the cache key of src under the given options. The
// path is not part of the key: identical sources share an entry.
func CacheKey(src []byte, opts Options) string {
	return cache.Key(
		[]byte(cacheVersion),
		src,
		[]byte(strings.Join(opts.ids().Names(), ",")),
		[]byte(strings.Join(opts.qualifiers(), ",")),
	)
}

// AnalyzeSource parses src and analyzes every function in it. Syntax
// errors are counted, not fatal.
func AnalyzeSource(ctx context.Context, path string, src []byte, opts Options) (*FileResult, error) {
	unit, err := frontend.Parse(ctx, path, src, frontend.Options{Qualifiers: opts.qualifiers()})
	if err != nil {
		return nil, err
	}

	ids := opts.ids()
	res := &FileResult{
		Path:         path,
		Functions:    make([]FunctionResult, 0, len(unit.Functions)),
		SyntaxErrors: unit.SyntaxErrors,
	}
	for _, fn := range unit.Functions {
		res.Functions = append(res.Functions, FunctionResult{
			Name:   fn.Name,
			At:     fn.At,
			Events: idcheck.Analyze(fn, ids),
		})
	}
	return res, nil
}

// AnalyzeFile reads and analyzes the file at path, consulting the cache
// when one is configured. Failures are reported in FileResult.Err.
func AnalyzeFile(ctx context.Context, path string, opts Options) *FileResult {
	logger := opts.logger()

	src, err := os.ReadFile(path)
	if err != nil {
		return &FileResult{Path: path, Err: fmt.Errorf("reading %s: %w", path, err)}
	}

	var key string
	if opts.Cache != nil {
		key = CacheKey(src, opts)
		cached, err := opts.Cache.Get(key)
		switch {
		case err == nil:
			logger.Debug("cache hit", "file", path)
			cached.Path = path
			cached.Cached = true
			return &cached
		case !errors.Is(err, cache.ErrKeyNotFound):
			logger.Warn("dropping unreadable cache entry", "file", path, "error", err)
		}
	}

	res, err := AnalyzeSource(ctx, path, src, opts)
	if err != nil {
		return &FileResult{Path: path, Err: err}
	}
	if res.SyntaxErrors > 0 {
		logger.Warn("syntax errors, results may be incomplete", "file", path, "count", res.SyntaxErrors)
	}
	logger.Debug("analyzed", "file", path, "functions", len(res.Functions), "warnings", res.Warnings())

	if opts.Cache != nil {
		if err := opts.Cache.Put(key, *res); err != nil {
			logger.Warn("caching result failed", "file", path, "error", err)
		}
	}
	return res
}

// Run analyzes files in parallel. Results are in the order of files. A
// cancelled context stops the run and is returned as the error; per-file
// failures are not errors of the run.
func Run(ctx context.Context, files []string, opts Options) ([]*FileResult, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]*FileResult, len(files))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := AnalyzeFile(gctx, path, opts)
			if res.Err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = res
			if opts.Progress != nil {
				opts.Progress(int(done.Add(1)), len(files))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts.logger().Info("check finished", "files", len(files), "warnings", Warnings(results))
	return results, nil
}

// Explain parses path and returns the full analysis of one function.
func Explain(ctx context.Context, path, function string, opts Options) (*idcheck.Report, error) {
	unit, err := frontend.ParseFile(ctx, path, frontend.Options{Qualifiers: opts.qualifiers()})
	if err != nil {
		return nil, err
	}
	fn, err := unit.Function(function)
	if err != nil {
		return nil, err
	}
	return idcheck.Explain(fn, opts.ids()), nil
}

// Functions lists the function definitions of the file at path.
func Functions(ctx context.Context, path string, opts Options) ([]string, error) {
	unit, err := frontend.ParseFile(ctx, path, frontend.Options{Qualifiers: opts.qualifiers()})
	if err != nil {
		return nil, err
	}
	return unit.Names(), nil
}
