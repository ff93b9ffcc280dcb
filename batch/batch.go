// Package batch runs document operations over many files at once.
//
// Work is spread over a bounded number of goroutines. A failure on one file
// is recorded in its Result and does not stop the others; results always
// come back in input order.
package batch

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/document"
	"github.com/lvillar/pdfcli/internal/logger"
	"github.com/lvillar/pdfcli/pageops"
	"github.com/lvillar/pdfcli/reader"
	"github.com/lvillar/pdfcli/validate"
)

var structs = validator.New()

// Options controls a batch run.
type Options struct {
	// Workers bounds the files processed at once. Zero means one per CPU.
	Workers int `validate:"gte=0,lte=1024"`
}

func (o Options) workers() (int64, error) {
	if err := structs.Struct(o); err != nil {
		return 0, fmt.Errorf("batch: %w: %v", pdfcli.ErrInvalidParam, err)
	}
	if o.Workers == 0 {
		return int64(runtime.NumCPU()), nil
	}
	return int64(o.Workers), nil
}

// Result is the outcome for one input.
type Result[T any] struct {
	Path  string
	Value T
	Err   error
}

// Process applies fn to every path. The returned error is only for a bad
// Options or a cancelled context; per path failures are in the results.
func Process[T any](ctx context.Context, opts Options, paths []string, fn func(ctx context.Context, path string) (T, error)) ([]Result[T], error) {
	return each(ctx, opts, paths, func(p string) string { return p }, fn)
}

// each runs fn over items with at most opts.Workers in flight. Items not
// started before ctx is done get the context error.
func each[I, T any](ctx context.Context, opts Options, items []I, key func(I) string, fn func(ctx context.Context, item I) (T, error)) ([]Result[T], error) {
	n, err := opts.workers()
	if err != nil {
		return nil, err
	}
	results := make([]Result[T], len(items))
	for i, it := range items {
		results[i].Path = key(it)
	}
	sem := semaphore.NewWeighted(n)
	g, gctx := errgroup.WithContext(ctx)
	for i, it := range items {
		if err := sem.Acquire(gctx, 1); err != nil {
			for j := i; j < len(items); j++ {
				results[j].Err = err
			}
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			v, err := fn(gctx, it)
			if err != nil {
				logger.Debug("batch item failed", "item", results[i].Path, "err", err)
			}
			results[i].Value, results[i].Err = v, err
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("batch: %w", err)
	}
	return results, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("batch: %w: %v", pdfcli.ErrIO, err)
	}
	return data, nil
}

// ExtractText extracts the text of every file.
func ExtractText(ctx context.Context, opts Options, paths []string) ([]Result[string], error) {
	return Process(ctx, opts, paths, func(_ context.Context, path string) (string, error) {
		data, err := readFile(path)
		if err != nil {
			return "", err
		}
		doc, err := reader.Load(data)
		if err != nil {
			return "", err
		}
		return doc.ExtractText()
	})
}

// Validate runs the structural checks on every file.
func Validate(ctx context.Context, opts Options, paths []string) ([]Result[validate.Report], error) {
	return Process(ctx, opts, paths, func(_ context.Context, path string) (validate.Report, error) {
		return validate.File(path)
	})
}

// CountPages returns the page count of every file. When the page tree does
// not load the count reported by the independent importer is used.
func CountPages(ctx context.Context, opts Options, paths []string) ([]Result[int], error) {
	return Process(ctx, opts, paths, func(_ context.Context, path string) (int, error) {
		data, err := readFile(path)
		if err != nil {
			return 0, err
		}
		doc, err := reader.Load(data)
		if err == nil {
			return doc.NumPages(), nil
		}
		probe, perr := reader.Probe(data)
		if perr != nil {
			return 0, err
		}
		logger.Warn("page tree unreadable, using importer page count", "path", path, "err", err)
		return probe.Pages, nil
	})
}

// MergeFiles loads the inputs in parallel and writes their pages, in input
// order, to out.
func MergeFiles(ctx context.Context, opts Options, paths []string, out string) error {
	if len(paths) == 0 {
		return fmt.Errorf("batch: %w: no input files provided", pdfcli.ErrRange)
	}
	loaded, err := Process(ctx, opts, paths, func(_ context.Context, path string) (*pageops.Source, error) {
		return pageops.OpenFile(path)
	})
	if err != nil {
		return err
	}
	sources := make([]*pageops.Source, len(loaded))
	for i, r := range loaded {
		if r.Err != nil {
			return fmt.Errorf("batch: merging %s: %w", r.Path, r.Err)
		}
		sources[i] = r.Value
	}
	data, err := pageops.MergeSources(sources...)
	if err != nil {
		return err
	}
	return pageops.WriteFile(out, data)
}

// Job converts one markdown file.
type Job struct {
	Input  string `validate:"required"`
	Output string `validate:"required"`
}

// GenerateMarkdown converts every job's markdown input to its PDF output.
// A nil cfg uses the defaults; its Workers bounds the parallelism.
func GenerateMarkdown(ctx context.Context, jobs []Job, cfg *pdfcli.Config) ([]Result[string], error) {
	if cfg == nil {
		cfg = pdfcli.NewDefaultConfig()
	}
	for i, j := range jobs {
		if err := structs.Struct(j); err != nil {
			return nil, fmt.Errorf("batch: %w: job %d: %v", pdfcli.ErrInvalidParam, i+1, err)
		}
	}
	return each(ctx, Options{Workers: cfg.Workers}, jobs, func(j Job) string { return j.Input }, func(_ context.Context, j Job) (string, error) {
		if err := document.MarkdownFile(j.Input, j.Output, cfg); err != nil {
			return "", err
		}
		return j.Output, nil
	})
}
