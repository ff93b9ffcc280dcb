package pageops

import (
	"fmt"
	"os"
	"path/filepath"

	pdfcli "github.com/lvillar/pdfcli"
)

// Split extracts pages start to end (1-based, inclusive) into a new
// document. An end beyond the last page is clamped.
func Split(data []byte, start, end int) ([]byte, error) {
	if start <= 0 || end <= 0 || start > end {
		return nil, fmt.Errorf("pageops: %w: invalid page range: start=%d end=%d (1-indexed, inclusive)",
			pdfcli.ErrRange, start, end)
	}
	src, err := Open(data)
	if err != nil {
		return nil, err
	}
	total := len(src.pages)
	if total == 0 {
		return nil, fmt.Errorf("pageops: %w: no pages found", pdfcli.ErrRange)
	}
	if start > total {
		return nil, fmt.Errorf("pageops: %w: start page %d exceeds total pages %d", pdfcli.ErrRange, start, total)
	}
	return rebuild(src, src.pages[start-1:min(end, total)], nil)
}

// SplitFile writes pages start to end of in to out.
func SplitFile(in, out string, start, end int) error {
	return transform(in, out, func(data []byte) ([]byte, error) {
		return Split(data, start, end)
	})
}

// ExtractPages copies the given pages (1-based, repeats allowed) into a new
// document in the given order.
func ExtractPages(data []byte, pages ...int) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("pageops: %w: no pages specified", pdfcli.ErrRange)
	}
	src, err := Open(data)
	if err != nil {
		return nil, err
	}
	selected, err := pick(src, pages)
	if err != nil {
		return nil, err
	}
	return rebuild(src, selected, nil)
}

func pick(src *Source, pages []int) ([]sourcePage, error) {
	total := len(src.pages)
	if total == 0 {
		return nil, fmt.Errorf("pageops: %w: no pages found", pdfcli.ErrRange)
	}
	out := make([]sourcePage, len(pages))
	for i, n := range pages {
		if n < 1 || n > total {
			return nil, fmt.Errorf("pageops: %w: invalid page number %d (document has %d pages)", pdfcli.ErrRange, n, total)
		}
		out[i] = src.pages[n-1]
	}
	return out, nil
}

// SplitToFiles writes every page of inputPath to its own file in
// outputDir, named prefix_001.pdf, prefix_002.pdf and so on. An empty
// prefix means "page". It returns the paths written.
func SplitToFiles(inputPath, outputDir, prefix string) ([]string, error) {
	if info, err := os.Stat(outputDir); err != nil {
		return nil, fmt.Errorf("pageops: %w: output directory: %v", pdfcli.ErrIO, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("pageops: %w: %s is not a directory", pdfcli.ErrIO, outputDir)
	}
	if prefix == "" {
		prefix = "page"
	}

	src, err := OpenFile(inputPath)
	if err != nil {
		return nil, err
	}
	if len(src.pages) == 0 {
		return nil, fmt.Errorf("pageops: %w: no pages found in %s", pdfcli.ErrRange, inputPath)
	}
	paths := make([]string, 0, len(src.pages))
	for i, p := range src.pages {
		data, err := rebuild(src, []sourcePage{p}, nil)
		if err != nil {
			return nil, fmt.Errorf("pageops: splitting page %d: %w", i+1, err)
		}
		path := filepath.Join(outputDir, fmt.Sprintf("%s_%03d.pdf", prefix, i+1))
		if err := WriteFile(path, data); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
