package pageops

import (
	"fmt"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/internal/logger"
)

// Merge combines documents into one. Pages are added in order: all pages
// of the first input, then all of the second, and so on.
func Merge(inputs ...[]byte) ([]byte, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("pageops: %w: no input files provided", pdfcli.ErrRange)
	}
	sources := make([]*Source, len(inputs))
	for i, data := range inputs {
		src, err := Open(data)
		if err != nil {
			return nil, fmt.Errorf("pageops: merging input %d: %w", i+1, err)
		}
		sources[i] = src
	}
	return MergeSources(sources...)
}

// MergeFiles combines the files at inputPaths into outputPath.
func MergeFiles(outputPath string, inputPaths ...string) error {
	if len(inputPaths) == 0 {
		return fmt.Errorf("pageops: %w: no input files provided", pdfcli.ErrRange)
	}
	sources := make([]*Source, len(inputPaths))
	for i, path := range inputPaths {
		src, err := OpenFile(path)
		if err != nil {
			return fmt.Errorf("pageops: merging %s: %w", path, err)
		}
		sources[i] = src
	}
	data, err := MergeSources(sources...)
	if err != nil {
		return err
	}
	return WriteFile(outputPath, data)
}

// MergeSources combines already parsed documents, as returned by Open.
func MergeSources(sources ...*Source) ([]byte, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("pageops: %w: no input files provided", pdfcli.ErrRange)
	}
	out := newOutput()
	for i, src := range sources {
		if len(src.pages) == 0 {
			logger.Warn("merge input has no pages", "input", i+1)
		}
		for _, p := range src.pages {
			if err := out.add(p, nil); err != nil {
				return nil, err
			}
		}
	}
	if len(out.pages) == 0 {
		return nil, fmt.Errorf("pageops: %w: no page content found in any input file", pdfcli.ErrRange)
	}
	logger.Debug("merged documents", "inputs", len(sources), "pages", len(out.pages))
	return out.finish()
}
