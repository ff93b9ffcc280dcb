package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/assemble"
	"github.com/lvillar/pdfcli/batch"
	"github.com/lvillar/pdfcli/doctpl"
	"github.com/lvillar/pdfcli/document"
	"github.com/lvillar/pdfcli/form"
	"github.com/lvillar/pdfcli/pageops"
	"github.com/lvillar/pdfcli/reader"
	"github.com/lvillar/pdfcli/security"
	"github.com/lvillar/pdfcli/validate"
)

func extractText(path string) (string, error) {
	doc, err := reader.Open(path)
	if err != nil {
		return "", err
	}
	return doc.ExtractText()
}

func runPDFToMD(c *cmdContext, args []string) error {
	pos, err := parse(c.flags(), args, 2, 2)
	if err != nil {
		return err
	}
	text, err := extractText(pos[0])
	if err != nil {
		return err
	}
	if err := os.WriteFile(pos[1], []byte(text), 0o644); err != nil {
		return fmt.Errorf("%w: %v", pdfcli.ErrIO, err)
	}
	c.printf("Successfully converted PDF %s to Markdown %s", pos[0], pos[1])
	return nil
}

func runMDToPDF(c *cmdContext, args []string) error {
	fs := c.flags()
	var ff fontFlags
	ff.register(fs, true)
	profile := fs.String("profile", "", "optimization profile (web, print, archive, ebook)")
	pos, err := parse(fs, args, 2, 2)
	if err != nil {
		return err
	}
	cfg, err := ff.config()
	if err != nil {
		return err
	}
	var opts []document.Option
	if *profile != "" {
		p, err := document.ParseProfile(*profile)
		if err != nil {
			return err
		}
		opts = append(opts, document.WithProfile(p))
	}
	if err := document.MarkdownFile(pos[0], pos[1], cfg, opts...); err != nil {
		return err
	}
	c.printf("Successfully converted Markdown %s to PDF %s", pos[0], pos[1])
	return nil
}

func runExtract(c *cmdContext, args []string) error {
	pos, err := parse(c.flags(), args, 1, 1)
	if err != nil {
		return err
	}
	text, err := extractText(pos[0])
	if err != nil {
		return err
	}
	c.printf("Extracted text:\n%s", text)
	return nil
}

func runCreate(c *cmdContext, args []string) error {
	fs := c.flags()
	var ff fontFlags
	ff.register(fs, true)
	pos, err := parse(fs, args, 2, 2)
	if err != nil {
		return err
	}
	cfg, err := ff.config()
	if err != nil {
		return err
	}
	data, err := document.CreateFromText(pos[1], cfg)
	if err != nil {
		return err
	}
	if err := document.WriteFile(pos[0], data); err != nil {
		return err
	}
	c.printf("PDF created successfully: %s", pos[0])
	return nil
}

// box registers the placement flags shared by the image commands.
type box struct{ x, y, width, height float64 }

func (b *box) register(fs *flag.FlagSet) {
	fs.Float64Var(&b.x, "x", 100, "x position in points")
	fs.Float64Var(&b.y, "y", 100, "y position in points")
	fs.Float64Var(&b.width, "width", 200, "width in points")
	fs.Float64Var(&b.height, "height", 200, "height in points")
}

func runAddImage(c *cmdContext, args []string) error {
	fs := c.flags()
	var b box
	b.register(fs)
	pos, err := parse(fs, args, 2, 2)
	if err != nil {
		return err
	}
	if err := pageops.AddImageFile(pos[0], pos[1], b.x, b.y, b.width, b.height); err != nil {
		return err
	}
	c.printf("Successfully added image %s to PDF %s", pos[1], pos[0])
	return nil
}

func runMerge(c *cmdContext, args []string) error {
	fs := c.flags()
	out := outputFlag(fs)
	workers := fs.Int("workers", 0, "inputs loaded concurrently (0 means one per CPU)")
	pos, err := parse(fs, args, 2, -1)
	if err != nil {
		return err
	}
	if err := required("output", *out); err != nil {
		return err
	}
	if err := batch.MergeFiles(context.Background(), batch.Options{Workers: *workers}, pos, *out); err != nil {
		return err
	}
	c.printf("Successfully merged into %s", *out)
	return nil
}

func runSplit(c *cmdContext, args []string) error {
	fs := c.flags()
	out := outputFlag(fs)
	start := fs.Int("start", 1, "start page (1-indexed)")
	end := fs.Int("end", 0, "end page (1-indexed, inclusive)")
	dir := fs.String("dir", "", "write every page to its own file in this directory instead")
	pos, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	if *dir != "" {
		if err := os.MkdirAll(*dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", pdfcli.ErrIO, err)
		}
		files, err := pageops.SplitToFiles(pos[0], *dir, "page")
		if err != nil {
			return err
		}
		c.printf("Successfully split %s into %d files in %s", pos[0], len(files), *dir)
		return nil
	}
	if err := required("output", *out); err != nil {
		return err
	}
	if *end == 0 {
		return fmt.Errorf("%w: --end is required", errUsage)
	}
	if err := pageops.SplitFile(pos[0], *out, *start, *end); err != nil {
		return err
	}
	c.printf("Successfully split %s into %s", pos[0], *out)
	return nil
}

func runWatermark(c *cmdContext, args []string) error {
	fs := c.flags()
	out := outputFlag(fs)
	text := fs.String("text", "", "watermark text")
	size := fs.Float64("size", 48, "font size for watermark")
	opacity := fs.Float64("opacity", 0.3, "opacity (0.0-1.0)")
	pos, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	if err := required("output", *out); err != nil {
		return err
	}
	if err := required("text", *text); err != nil {
		return err
	}
	if err := pageops.WatermarkFile(pos[0], *out, *text, *size, *opacity); err != nil {
		return err
	}
	c.printf("Successfully watermarked into %s", *out)
	return nil
}

func runReorder(c *cmdContext, args []string) error {
	fs := c.flags()
	out := outputFlag(fs)
	pages := fs.String("pages", "", "page order (comma separated, 1-indexed)")
	pos, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	if err := required("output", *out); err != nil {
		return err
	}
	if err := required("pages", *pages); err != nil {
		return err
	}
	order, err := parseList(*pages)
	if err != nil {
		return err
	}
	if err := pageops.ReorderFile(pos[0], *out, order); err != nil {
		return err
	}
	c.printf("Successfully reordered into %s", *out)
	return nil
}

func runRotate(c *cmdContext, args []string) error {
	fs := c.flags()
	out := outputFlag(fs)
	angle := fs.Int("angle", 0, "rotation angle (multiple of 90)")
	pages := fs.String("pages", "", "pages to rotate (comma separated, default all)")
	pos, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	if err := required("output", *out); err != nil {
		return err
	}
	list, err := parseList(*pages)
	if err != nil {
		return err
	}
	if err := pageops.RotateFile(pos[0], *out, *angle, list...); err != nil {
		return err
	}
	c.printf("Successfully rotated %s into %s", pos[0], *out)
	return nil
}

func runMDToPDFMeta(c *cmdContext, args []string) error {
	fs := c.flags()
	var ff fontFlags
	ff.register(fs, true)
	info := assemble.Info{Creator: "pdf-cli"}
	custom := infoFlags(fs, &info)
	pos, err := parse(fs, args, 2, 2)
	if err != nil {
		return err
	}
	cfg, err := ff.config()
	if err != nil {
		return err
	}
	if *custom != "" {
		info.Custom = parsePairs(*custom)
	}
	if err := pageops.MarkdownWithMetadataFile(pos[0], pos[1], info, cfg); err != nil {
		return err
	}
	c.printf("Successfully created %s with metadata", pos[1])
	return nil
}

func runCreateForm(c *cmdContext, args []string) error {
	fs := c.flags()
	var ff fontFlags
	ff.register(fs, false)
	fields := fs.String("fields", "", "form fields JSON file")
	pos, err := parse(fs, args, 2, 2)
	if err != nil {
		return err
	}
	if err := required("fields", *fields); err != nil {
		return err
	}
	cfg, err := ff.config()
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(*fields)
	if err != nil {
		return fmt.Errorf("%w: reading form fields: %v", pdfcli.ErrIO, err)
	}
	specs, err := form.ParseFields(raw)
	if err != nil {
		return fmt.Errorf(`%w (expected [{"name":"field1","type":"text","x":100,"y":700,"width":200,"height":20}])`, err)
	}
	if err := form.CreateFormFile(pos[0], []byte(pos[1]), specs, cfg); err != nil {
		return err
	}
	c.printf("Successfully created %s with %d form fields", pos[0], len(specs))
	return nil
}

func runOverlayImage(c *cmdContext, args []string) error {
	fs := c.flags()
	out := outputFlag(fs)
	image := fs.String("image", "", "image file to overlay")
	var b box
	b.register(fs)
	opacity := fs.Float64("opacity", 1.0, "opacity (0.0-1.0)")
	pos, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	if err := required("output", *out); err != nil {
		return err
	}
	if err := required("image", *image); err != nil {
		return err
	}
	if err := pageops.OverlayImageFile(pos[0], *out, *image, b.x, b.y, b.width, b.height, *opacity); err != nil {
		return err
	}
	c.printf("Successfully overlaid image on %s", *out)
	return nil
}

func runWatermarkAdvanced(c *cmdContext, args []string) error {
	fs := c.flags()
	out := outputFlag(fs)
	var spec pageops.WatermarkSpec
	fs.StringVar(&spec.Text, "text", "", "text watermark")
	fs.StringVar(&spec.Image, "image", "", "image watermark file")
	fs.Float64Var(&spec.Opacity, "opacity", 0.3, "opacity (0.0-1.0)")
	fs.Float64Var(&spec.FontSize, "size", 0, "font size of a text watermark (default 48)")
	position := fs.String("position", "diagonal", "position (center, topleft, topright, bottomleft, bottomright, diagonal)")
	pages := fs.String("pages", "", "pages to mark (comma separated, default all)")
	pos, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	if err := required("output", *out); err != nil {
		return err
	}
	if spec.Text == "" && spec.Image == "" {
		return fmt.Errorf("%w: either --text or --image must be specified", errUsage)
	}
	if spec.Position, err = pageops.ParsePosition(*position); err != nil {
		return err
	}
	if spec.Pages, err = parseList(*pages); err != nil {
		return err
	}
	if err := pageops.WatermarkAdvancedFile(pos[0], *out, spec); err != nil {
		return err
	}
	c.printf("Successfully added watermark to %s", *out)
	return nil
}

// optional is a string flag that records whether it was given, so an
// explicitly empty password can be told apart from a missing one.
type optional struct{ v *string }

func (o *optional) String() string {
	if o.v == nil {
		return ""
	}
	return *o.v
}

func (o *optional) Set(s string) error {
	o.v = &s
	return nil
}

func runProtect(c *cmdContext, args []string) error {
	fs := c.flags()
	out := outputFlag(fs)
	var user, owner optional
	fs.Var(&user, "user-password", "user password (required to open document)")
	fs.Var(&owner, "owner-password", "owner password (controls permissions)")
	algorithm := fs.String("algorithm", "rc4-128", "encryption algorithm (rc4-40, rc4-128, aes-128, aes-256)")
	var perms security.Permissions
	fs.BoolVar(&perms.Print, "allow-print", false, "allow printing")
	fs.BoolVar(&perms.Copy, "allow-copy", false, "allow copying content")
	fs.BoolVar(&perms.Modify, "allow-modify", false, "allow modifying document")
	fs.BoolVar(&perms.Annotate, "allow-annotate", false, "allow annotations")
	fs.BoolVar(&perms.FillForms, "allow-fill-forms", false, "allow filling forms")
	fs.BoolVar(&perms.Extract, "allow-extract", false, "allow extracting content for accessibility")
	fs.BoolVar(&perms.Assemble, "allow-assemble", false, "allow assembling (insert, rotate, delete pages)")
	fs.BoolVar(&perms.PrintHQ, "allow-print-high-quality", false, "allow high-quality printing")
	allowAll := fs.Bool("allow-all", false, "grant every permission")
	readOnly := fs.Bool("read-only", false, "read-only (no modifications)")
	pos, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	if err := required("output", *out); err != nil {
		return err
	}
	if user.v == nil && owner.v == nil {
		return fmt.Errorf("%w: at least one of --user-password or --owner-password must be specified", errUsage)
	}
	algo, err := security.ParseAlgorithm(*algorithm)
	if err != nil {
		return err
	}
	switch {
	case *readOnly:
		perms = security.ReadOnly()
	case *allowAll:
		perms = security.All()
	}

	sec := security.New()
	sec.Algorithm = algo
	sec.Permissions = perms
	sec.UserPassword = user.v
	sec.OwnerPassword = owner.v
	if err := pageops.ProtectFile(pos[0], *out, sec); err != nil {
		return err
	}
	c.printf("Successfully protected %s with %s encryption", *out, algo)
	return nil
}

// password returns the flag value or, when it is unset and stdin is a
// terminal, prompts for one without echo.
func (c *cmdContext) password(flagValue *optional) (string, error) {
	if flagValue.v != nil {
		return *flagValue.v, nil
	}
	if c.stdin == nil || !term.IsTerminal(int(c.stdin.Fd())) {
		return "", nil
	}
	fmt.Fprint(c.stderr, "Password: ")
	pw, err := term.ReadPassword(int(c.stdin.Fd()))
	fmt.Fprintln(c.stderr)
	if err != nil {
		return "", fmt.Errorf("%w: reading password: %v", pdfcli.ErrIO, err)
	}
	return string(pw), nil
}

func runUnprotect(c *cmdContext, args []string) error {
	fs := c.flags()
	out := outputFlag(fs)
	var pw optional
	fs.Var(&pw, "password", "user or owner password (prompted for when omitted)")
	pos, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	if err := required("output", *out); err != nil {
		return err
	}
	password, err := c.password(&pw)
	if err != nil {
		return err
	}
	if err := pageops.UnprotectFile(pos[0], *out, password); err != nil {
		return err
	}
	c.printf("Successfully decrypted %s into %s", pos[0], *out)
	return nil
}

func (c *cmdContext) writeJSON(v any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cmdContext) printReport(name string, r validate.Report) {
	status := "valid"
	if !r.Valid {
		status = "INVALID"
	}
	c.printf("%s: %s (%d pages, %d objects)", name, status, r.PageCount, r.ObjectCount)
	for _, e := range r.Errors {
		c.printf("  error: %s", e)
	}
	for _, w := range r.Warnings {
		c.printf("  warning: %s", w)
	}
}

func runValidate(c *cmdContext, args []string) error {
	fs := c.flags()
	deep := fs.Bool("deep", false, "also parse every object, page and signature")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	pos, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(pos[0])
	if err != nil {
		return fmt.Errorf("%w: %v", pdfcli.ErrIO, err)
	}
	report := validate.Bytes(data)
	if *deep {
		report = validate.Deep(data)
	}
	if *asJSON {
		if err := c.writeJSON(report); err != nil {
			return err
		}
	} else {
		c.printReport(pos[0], report)
	}
	if !report.Valid {
		return fmt.Errorf("%w: %s failed validation", pdfcli.ErrFormat, pos[0])
	}
	return nil
}

type pageSummary struct {
	Page   int     `json:"page"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Rotate int     `json:"rotate"`
}

type fieldSummary struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

type infoSummary struct {
	Version   string            `json:"version"`
	Pages     int               `json:"pages"`
	Size      int               `json:"size"`
	Encrypted bool              `json:"encrypted"`
	Recovered bool              `json:"recovered"`
	Metadata  map[string]string `json:"metadata"`
	PageSizes []pageSummary     `json:"page_sizes"`
	Fields    []fieldSummary    `json:"fields,omitempty"`
}

func runInfo(c *cmdContext, args []string) error {
	fs := c.flags()
	var pw optional
	fs.Var(&pw, "password", "password of an encrypted document")
	asJSON := fs.Bool("json", false, "print as JSON")
	pos, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	doc, err := reader.OpenWithPassword(pos[0], pw.String())
	if err != nil {
		return err
	}
	info := infoSummary{
		Version:   doc.Version,
		Pages:     doc.NumPages(),
		Size:      doc.Size(),
		Encrypted: doc.IsEncrypted(),
		Recovered: doc.Recovered(),
		Metadata:  doc.Metadata(),
	}
	for n, p := range doc.EachPage() {
		info.PageSizes = append(info.PageSizes, pageSummary{Page: n, Width: p.MediaBox.Width(), Height: p.MediaBox.Height(), Rotate: p.Rotate})
	}
	if roots, err := doc.FormFields(); err == nil {
		for _, root := range roots {
			for _, f := range root.Leaves() {
				info.Fields = append(info.Fields, fieldSummary{Name: f.FullName, Type: f.Type, Value: f.Value})
			}
		}
	}
	if *asJSON {
		return c.writeJSON(info)
	}

	c.printf("File:       %s", pos[0])
	c.printf("Version:    %s", info.Version)
	c.printf("Pages:      %d", info.Pages)
	c.printf("Size:       %d bytes", info.Size)
	c.printf("Encrypted:  %t", info.Encrypted)
	if info.Recovered {
		c.printf("Recovered:  true (cross-reference table was rebuilt)")
	}
	keys := make([]string, 0, len(info.Metadata))
	for k := range info.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.printf("%-11s %s", k+":", info.Metadata[k])
	}
	for _, p := range info.PageSizes {
		line := fmt.Sprintf("Page %d:     %.2f x %.2f pt", p.Page, p.Width, p.Height)
		if p.Rotate != 0 {
			line += fmt.Sprintf(", rotated %d", p.Rotate)
		}
		c.printf("%s", line)
	}
	for _, f := range info.Fields {
		c.printf("Field:      %s (%s) = %q", f.Name, f.Type, f.Value)
	}
	return nil
}

func runBatchValidate(c *cmdContext, args []string) error {
	fs := c.flags()
	workers := fs.Int("workers", 0, "files validated concurrently (0 means one per CPU)")
	asJSON := fs.Bool("json", false, "print the reports as JSON")
	pos, err := parse(fs, args, 1, -1)
	if err != nil {
		return err
	}
	results, err := batch.Validate(context.Background(), batch.Options{Workers: *workers}, pos)
	if err != nil {
		return err
	}
	var invalid []string
	reports := make(map[string]validate.Report, len(results))
	for _, r := range results {
		if r.Err != nil {
			r.Value = validate.Report{Errors: []string{r.Err.Error()}}
		}
		reports[r.Path] = r.Value
		if !r.Value.Valid {
			invalid = append(invalid, r.Path)
		}
		if !*asJSON {
			c.printReport(r.Path, r.Value)
		}
	}
	if *asJSON {
		if err := c.writeJSON(reports); err != nil {
			return err
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("%w: %d of %d files failed validation: %s", pdfcli.ErrFormat, len(invalid), len(results), strings.Join(invalid, ", "))
	}
	return nil
}

func runPageNumbers(c *cmdContext, args []string) error {
	fs := c.flags()
	out := outputFlag(fs)
	style := pageops.DefaultPageNumberStyle()
	fs.StringVar(&style.Format, "format", style.Format, "format receiving the page number and the total")
	position := fs.String("position", style.Position.String(), "position (bottom-center, top-right, ...)")
	fs.Float64Var(&style.FontSize, "size", style.FontSize, "font size")
	fs.Float64Var(&style.Margin, "margin", style.Margin, "distance from the page edge")
	pos, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	if err := required("output", *out); err != nil {
		return err
	}
	if style.Position, err = pageops.ParsePosition(*position); err != nil {
		return err
	}
	if err := pageops.AddPageNumbersFile(pos[0], *out, style); err != nil {
		return err
	}
	c.printf("Successfully numbered pages into %s", *out)
	return nil
}

// pairs is a repeatable name=value flag.
type pairs map[string]string

func (p pairs) String() string { return fmt.Sprint(map[string]string(p)) }

func (p pairs) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	p[k] = v
	return nil
}

func runFillForm(c *cmdContext, args []string) error {
	fs := c.flags()
	out := outputFlag(fs)
	valuesFile := fs.String("values", "", "JSON object mapping field names to values")
	set := pairs{}
	fs.Var(set, "set", "field value as name=value (repeatable)")
	flatten := fs.Bool("flatten", false, "flatten the form after filling")
	pos, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	if err := required("output", *out); err != nil {
		return err
	}
	values := map[string]string{}
	if *valuesFile != "" {
		raw, err := os.ReadFile(*valuesFile)
		if err != nil {
			return fmt.Errorf("%w: reading values: %v", pdfcli.ErrIO, err)
		}
		if err := json.Unmarshal(raw, &values); err != nil {
			return fmt.Errorf("%w: values file: %v", pdfcli.ErrInvalidParam, err)
		}
	}
	for k, v := range set {
		values[k] = v
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: no values given, use --values or --set", errUsage)
	}

	data, err := os.ReadFile(pos[0])
	if err != nil {
		return fmt.Errorf("%w: %v", pdfcli.ErrIO, err)
	}
	if data, err = form.Fill(data, values); err != nil {
		return err
	}
	if *flatten {
		if data, err = form.Flatten(data); err != nil {
			return err
		}
	}
	if err := pageops.WriteFile(*out, data); err != nil {
		return err
	}
	c.printf("Successfully filled %d fields into %s", len(values), *out)
	return nil
}

func runFlatten(c *cmdContext, args []string) error {
	fs := c.flags()
	out := outputFlag(fs)
	pos, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	if err := required("output", *out); err != nil {
		return err
	}
	if err := form.FlattenFile(pos[0], *out); err != nil {
		return err
	}
	c.printf("Successfully flattened %s into %s", pos[0], *out)
	return nil
}

// infoFlags registers the document information flags.
func infoFlags(fs *flag.FlagSet, info *assemble.Info) *string {
	fs.StringVar(&info.Title, "title", "", "document title")
	fs.StringVar(&info.Author, "author", "", "document author")
	fs.StringVar(&info.Subject, "subject", "", "document subject")
	fs.StringVar(&info.Keywords, "keywords", "", "document keywords")
	return fs.String("custom", "", "custom metadata fields (key=value pairs, comma separated)")
}

func runSetMetadata(c *cmdContext, args []string) error {
	fs := c.flags()
	out := outputFlag(fs)
	var info assemble.Info
	custom := infoFlags(fs, &info)
	pos, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	if err := required("output", *out); err != nil {
		return err
	}
	if *custom != "" {
		info.Custom = parsePairs(*custom)
	}
	if err := pageops.SetMetadataFile(pos[0], *out, info); err != nil {
		return err
	}
	c.printf("Successfully updated metadata into %s", *out)
	return nil
}

func runAnnotate(c *cmdContext, args []string) error {
	fs := c.flags()
	out := outputFlag(fs)
	file := fs.String("annotations", "", "JSON array of annotations")
	pos, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	if err := required("output", *out); err != nil {
		return err
	}
	if err := required("annotations", *file); err != nil {
		return err
	}
	raw, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("%w: reading annotations: %v", pdfcli.ErrIO, err)
	}
	annots, err := assemble.ParseAnnotations(raw)
	if err != nil {
		return err
	}
	if err := pageops.AnnotateFile(pos[0], *out, annots); err != nil {
		return err
	}
	c.printf("Successfully added %d annotations to %s", len(annots), *out)
	return nil
}

func runTemplate(c *cmdContext, args []string) error {
	pos, err := parse(c.flags(), args, 2, 2)
	if err != nil {
		return err
	}
	if err := doctpl.RenderFile(pos[0], pos[1]); err != nil {
		return err
	}
	c.printf("Successfully rendered %s into %s", pos[0], pos[1])
	return nil
}
