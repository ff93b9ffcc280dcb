// Command pdf-cli reads, writes and edits PDF files and converts between
// PDF and Markdown.
//
// Usage:
//
//	pdf-cli [-v] <command> [arguments]
//
// Run "pdf-cli help" for the list of commands. Flags and positional
// arguments may be given in any order.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"sort"
	"strconv"
	"strings"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/assemble"
	"github.com/lvillar/pdfcli/font"
	"github.com/lvillar/pdfcli/internal/logger"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// errUsage marks a command line the command could not interpret; run prints
// the command usage instead of the bare error.
var errUsage = errors.New("invalid usage")

type command struct {
	args    string
	summary string
	run     func(c *cmdContext, args []string) error
}

// cmdContext carries the output streams of one invocation.
type cmdContext struct {
	name   string
	stdout io.Writer
	stderr io.Writer
	stdin  *os.File
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"pdf-to-md":          {"<input.pdf> <output.md>", "Convert PDF to Markdown", runPDFToMD},
		"md-to-pdf":          {"<input.md> <output.pdf> [--font F] [--font-size N] [--landscape] [--profile P]", "Convert Markdown to PDF", runMDToPDF},
		"extract":            {"<input.pdf>", "Extract text from PDF", runExtract},
		"create":             {"<output.pdf> <text> [--font F] [--font-size N] [--landscape]", "Create a new PDF", runCreate},
		"add-image":          {"<output.pdf> <image> [--x N] [--y N] [--width N] [--height N]", "Create a PDF holding an image", runAddImage},
		"merge":              {"<input.pdf>... -o <output.pdf>", "Merge multiple PDFs into one", runMerge},
		"split":              {"<input.pdf> -o <output.pdf> [--start N] --end N", "Split PDF by extracting page range", runSplit},
		"watermark":          {"<input.pdf> -o <output.pdf> --text T [--size N] [--opacity N]", "Add text watermark to PDF", runWatermark},
		"reorder":            {"<input.pdf> -o <output.pdf> --pages 3,1,2", "Reorder pages in a PDF", runReorder},
		"rotate":             {"<input.pdf> -o <output.pdf> --angle N [--pages 1,2]", "Rotate pages in a PDF", runRotate},
		"md-to-pdf-meta":     {"<input.md> <output.pdf> [--title T] [--author A] [--subject S] [--keywords K] [--custom k=v,...]", "Set PDF metadata and convert from Markdown", runMDToPDFMeta},
		"create-form":        {"<output.pdf> <text> --fields fields.json", "Create PDF with form fields", runCreateForm},
		"overlay-image":      {"<input.pdf> -o <output.pdf> --image I [--x N] [--y N] [--width N] [--height N] [--opacity N]", "Overlay an image onto all pages of a PDF", runOverlayImage},
		"watermark-advanced": {"<input.pdf> -o <output.pdf> (--text T | --image I) [--opacity N] [--position P]", "Add watermark to PDF (text or image)", runWatermarkAdvanced},
		"protect":            {"<input.pdf> -o <output.pdf> [--user-password P] [--owner-password P] [--algorithm A] [--allow-*]", "Add password protection and permissions to PDF", runProtect},
		"unprotect":          {"<input.pdf> -o <output.pdf> [--password P]", "Remove encryption from a PDF", runUnprotect},
		"validate":           {"<input.pdf> [--deep] [--json]", "Check the structure of a PDF", runValidate},
		"info":               {"<input.pdf> [--password P] [--json]", "Show version, pages, metadata and form fields", runInfo},
		"batch-validate":     {"<input.pdf>... [--workers N] [--json]", "Validate many PDFs concurrently", runBatchValidate},
		"page-numbers":       {"<input.pdf> -o <output.pdf> [--format F] [--position P] [--size N]", "Stamp page numbers on every page", runPageNumbers},
		"fill-form":          {"<input.pdf> -o <output.pdf> [--values values.json] [--set name=value]... [--flatten]", "Fill form fields", runFillForm},
		"flatten":            {"<input.pdf> -o <output.pdf>", "Flatten form fields into page content", runFlatten},
		"template":           {"<template.json> <output.pdf>", "Render a JSON document template", runTemplate},
		"set-metadata":       {"<input.pdf> -o <output.pdf> [--title T] [--author A] [--subject S] [--keywords K] [--custom k=v,...]", "Replace the document information of a PDF", runSetMetadata},
		"annotate":           {"<input.pdf> -o <output.pdf> --annotations annots.json", "Add text, link and highlight annotations", runAnnotate},
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit status.
func run(args []string, stdin *os.File, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("pdf-cli", flag.ContinueOnError)
	global.SetOutput(stderr)
	verbose := global.Bool("v", false, "print debug output")
	showVersion := global.Bool("version", false, "print the version and exit")
	global.Usage = func() { usage(stderr) }
	if err := global.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Fprintln(stdout, "pdf-cli", Version)
		return 0
	}
	logger.SetLogger(logger.Writer(stderr, *verbose))
	logger.SetVerbose(*verbose)

	rest := global.Args()
	if len(rest) == 0 {
		usage(stderr)
		return 2
	}
	name := rest[0]
	if name == "help" || name == "-h" || name == "--help" {
		usage(stdout)
		return 0
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "pdf-cli: unknown command %q\n", name)
		usage(stderr)
		return 2
	}

	c := &cmdContext{name: name, stdout: stdout, stderr: stderr, stdin: stdin}
	err := cmd.run(c, rest[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "pdf-cli %s: %v\nusage: pdf-cli %s %s\n", name, err, name, cmd.args)
		return 2
	}
	fmt.Fprintf(stderr, "pdf-cli %s: %v\n", name, err)
	return 1
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: pdf-cli [-v] <command> [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-20s %s\n", name, commands[name].summary)
	}
}

// flags returns a flag set for the command that reports errors to stderr.
func (c *cmdContext) flags() *flag.FlagSet {
	fs := flag.NewFlagSet(c.name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

// printf writes a status line to stdout.
func (c *cmdContext) printf(format string, args ...any) {
	fmt.Fprintf(c.stdout, format+"\n", args...)
}

// parse parses args with flags and positionals interleaved and checks the
// number of positionals. hi < 0 means no upper bound.
func parse(fs *flag.FlagSet, args []string, lo, hi int) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", errUsage, err)
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
	switch {
	case len(pos) < lo:
		return nil, fmt.Errorf("%w: expected at least %d arguments, got %d", errUsage, lo, len(pos))
	case hi >= 0 && len(pos) > hi:
		return nil, fmt.Errorf("%w: unexpected argument %q", errUsage, pos[hi])
	}
	return pos, nil
}

// required reports a missing mandatory flag.
func required(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: --%s is required", errUsage, name)
	}
	return nil
}

// outputFlag registers -o and --output on fs.
func outputFlag(fs *flag.FlagSet) *string {
	out := fs.String("output", "", "output PDF file")
	fs.StringVar(out, "o", "", "output PDF file (shorthand)")
	return out
}

// fontFlags registers the text rendering flags shared by the generating
// commands.
type fontFlags struct {
	family    string
	size      float64
	landscape bool
}

func (f *fontFlags) register(fs *flag.FlagSet, orientation bool) {
	fs.StringVar(&f.family, "font", "Helvetica", "font family (Helvetica, Times, Courier)")
	fs.Float64Var(&f.size, "font-size", 12, "font size in points")
	if orientation {
		fs.BoolVar(&f.landscape, "landscape", false, "use landscape orientation")
	}
}

func (f *fontFlags) config() (*pdfcli.Config, error) {
	cfg := pdfcli.NewDefaultConfig()
	family, ok := font.ParseFamily(f.family)
	if !ok {
		return nil, fmt.Errorf("%w: unknown font %q", pdfcli.ErrInvalidParam, f.family)
	}
	cfg.FontFamily = family
	cfg.FontSize = f.size
	cfg.Landscape = f.landscape
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseList parses a comma separated list of integers such as "3,1,2".
func parseList(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid page number %q, use comma separated numbers like 3,1,2", errUsage, part)
		}
		out = append(out, n)
	}
	return out, nil
}

// parsePairs parses "k=v,k2=v2". Malformed entries are logged and skipped.
func parsePairs(s string) map[string]string {
	out := make(map[string]string)
	for _, field := range strings.Split(s, ",") {
		kv, err := assemble.ParseCustom(field)
		if err != nil {
			logger.Warn("ignoring custom field, use key=value", "field", strings.TrimSpace(field))
			continue
		}
		maps.Copy(out, kv)
	}
	return out
}
