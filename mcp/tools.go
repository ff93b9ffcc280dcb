package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

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

// RegisterDefaultTools adds all built-in PDF tools to the server.
func RegisterDefaultTools(s *Server) {
	for _, t := range []Tool{
		markdownToPDFTool(),
		createPDFTool(),
		extractTextTool(),
		mergePDFsTool(),
		splitPDFTool(),
		rotatePDFTool(),
		reorderPagesTool(),
		addWatermarkTool(),
		addPageNumbersTool(),
		validatePDFTool(),
		pdfInfoTool(),
		fillFormTool(),
		flattenFormTool(),
		protectPDFTool(),
	} {
		s.AddTool(t)
	}
}

// schema builds an object input schema. props alternates property names and
// their schemas.
func schema(required []string, props ...any) map[string]any {
	p := make(map[string]any, len(props)/2)
	for i := 0; i+1 < len(props); i += 2 {
		p[props[i].(string)] = props[i+1]
	}
	out := map[string]any{"type": "object", "properties": p}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func arrayOf(item, description string) map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": item}, "description": description}
}

func openPDF(path string) (*reader.Document, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("mcp: %w: %v", pdfcli.ErrIO, err)
	}
	doc, err := reader.Load(data)
	if err != nil {
		return nil, nil, fmt.Errorf("opening PDF: %w", err)
	}
	return doc, data, nil
}

func jsonText(v any) ToolResult {
	b, _ := json.MarshalIndent(v, "", "  ")
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: string(b)}}}
}

// deliver writes data to outputPath, or returns it base64 encoded when no
// path is given.
func deliver(data []byte, outputPath, what string) (ToolResult, error) {
	if outputPath != "" {
		if err := document.WriteFile(outputPath, data); err != nil {
			return ToolResult{}, err
		}
		return Text("%s created successfully: %s (%d bytes)", what, outputPath, len(data)), nil
	}
	return ToolResult{Content: []ContentBlock{
		{Type: "text", Text: fmt.Sprintf("%s created successfully (%d bytes)", what, len(data))},
		{Type: "resource", MIMEType: "application/pdf", Data: base64.StdEncoding.EncodeToString(data)},
	}}, nil
}

type markdownArgs struct {
	Markdown    string  `json:"markdown" validate:"required_without=InputPath"`
	InputPath   string  `json:"inputPath"`
	OutputPath  string  `json:"outputPath"`
	FontFamily  string  `json:"fontFamily" validate:"omitempty,oneof=Helvetica Times Courier"`
	FontSize    float64 `json:"fontSize" validate:"gte=0,lte=72"`
	Landscape   bool    `json:"landscape"`
	PageNumbers *bool   `json:"pageNumbers"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
}

func markdownToPDFTool() Tool {
	return Tool{
		Name:        "markdown_to_pdf",
		Description: "Convert markdown to a PDF document. Pass the markdown inline or as a file path. Returns the PDF as base64 unless outputPath is set.",
		InputSchema: schema(nil,
			"markdown", prop("string", "Markdown source text"),
			"inputPath", prop("string", "Path to a markdown file, used when markdown is omitted"),
			"outputPath", prop("string", "Optional file path to save the PDF"),
			"fontFamily", prop("string", "Helvetica, Times or Courier (default: Helvetica)"),
			"fontSize", prop("number", "Base font size in points (default: 12)"),
			"landscape", prop("boolean", "Use landscape orientation"),
			"pageNumbers", prop("boolean", "Number the pages (default: true)"),
			"title", prop("string", "Document title"),
			"author", prop("string", "Document author"),
		),
		Handler: handleMarkdownToPDF,
	}
}

func handleMarkdownToPDF(_ context.Context, raw json.RawMessage) (ToolResult, error) {
	var args markdownArgs
	if err := bind(raw, &args); err != nil {
		return ToolResult{}, err
	}
	src := []byte(args.Markdown)
	var opts []document.Option
	if args.Markdown == "" {
		data, err := os.ReadFile(args.InputPath)
		if err != nil {
			return ToolResult{}, fmt.Errorf("mcp: %w: %v", pdfcli.ErrIO, err)
		}
		src = data
		opts = append(opts, document.WithBaseDir(filepath.Dir(args.InputPath)))
	}
	cfg := pdfcli.NewDefaultConfig()
	if args.FontFamily != "" {
		cfg.FontFamily = args.FontFamily
	}
	if args.FontSize > 0 {
		cfg.FontSize = args.FontSize
	}
	cfg.Landscape = args.Landscape
	if args.PageNumbers != nil {
		cfg.PageNumbers = *args.PageNumbers
	}
	opts = append(opts, document.WithInfo(assemble.Info{Title: args.Title, Author: args.Author}))
	data, err := document.FromMarkdown(src, cfg, opts...)
	if err != nil {
		return ToolResult{}, fmt.Errorf("rendering PDF: %w", err)
	}
	return deliver(data, args.OutputPath, "PDF")
}

type createArgs struct {
	Template   json.RawMessage `json:"template" validate:"required"`
	OutputPath string          `json:"outputPath"`
}

func createPDFTool() Tool {
	return Tool{
		Name:        "create_pdf",
		Description: "Create a PDF document from a JSON template. The template supports headings, paragraphs, lists, tables, code, quotes, images, links, math, barcodes, footnotes and definitions. Returns the PDF as base64 unless outputPath is set.",
		InputSchema: schema([]string{"template"},
			"template", prop("object", "JSON document template with title, pageSize, pages and elements"),
			"outputPath", prop("string", "Optional file path to save the PDF"),
		),
		Handler: handleCreatePDF,
	}
}

func handleCreatePDF(_ context.Context, raw json.RawMessage) (ToolResult, error) {
	var args createArgs
	if err := bind(raw, &args); err != nil {
		return ToolResult{}, err
	}
	data, err := doctpl.Render(args.Template)
	if err != nil {
		return ToolResult{}, fmt.Errorf("rendering PDF: %w", err)
	}
	return deliver(data, args.OutputPath, "PDF")
}

type pathArgs struct {
	Path  string `json:"path" validate:"required"`
	Pages []int  `json:"pages" validate:"dive,gte=1"`
	Deep  bool   `json:"deep"`
}

func extractTextTool() Tool {
	return Tool{
		Name:        "extract_text",
		Description: "Extract text content from a PDF file, from all pages or specific pages.",
		InputSchema: schema([]string{"path"},
			"path", prop("string", "Path to the PDF file"),
			"pages", arrayOf("number", "Page numbers to extract (1-based). Omit for all pages."),
		),
		Handler: handleExtractText,
	}
}

func pagesText(doc *reader.Document, pages []int) string {
	want := make(map[int]bool, len(pages))
	for _, p := range pages {
		want[p] = true
	}
	var sb strings.Builder
	for n, page := range doc.EachPage() {
		if len(want) > 0 && !want[n] {
			continue
		}
		text, err := page.Text()
		if err != nil {
			fmt.Fprintf(&sb, "--- Page %d (error: %v) ---\n", n, err)
			continue
		}
		fmt.Fprintf(&sb, "--- Page %d ---\n%s\n\n", n, text)
	}
	return sb.String()
}

func handleExtractText(_ context.Context, raw json.RawMessage) (ToolResult, error) {
	var args pathArgs
	if err := bind(raw, &args); err != nil {
		return ToolResult{}, err
	}
	doc, _, err := openPDF(args.Path)
	if err != nil {
		return ToolResult{}, err
	}
	return Text("%s", pagesText(doc, args.Pages)), nil
}

type mergeArgs struct {
	InputPaths []string `json:"inputPaths" validate:"min=1,dive,required"`
	OutputPath string   `json:"outputPath" validate:"required"`
}

func mergePDFsTool() Tool {
	return Tool{
		Name:        "merge_pdfs",
		Description: "Merge multiple PDF files into a single PDF, in the order given.",
		InputSchema: schema([]string{"inputPaths", "outputPath"},
			"inputPaths", arrayOf("string", "Paths to PDF files to merge, in order"),
			"outputPath", prop("string", "Path for the merged output PDF"),
		),
		Handler: handleMergePDFs,
	}
}

func handleMergePDFs(ctx context.Context, raw json.RawMessage) (ToolResult, error) {
	var args mergeArgs
	if err := bind(raw, &args); err != nil {
		return ToolResult{}, err
	}
	if err := batch.MergeFiles(ctx, batch.Options{}, args.InputPaths, args.OutputPath); err != nil {
		return ToolResult{}, fmt.Errorf("merging: %w", err)
	}
	return Text("Merged %d PDFs into %s", len(args.InputPaths), args.OutputPath), nil
}

type splitArgs struct {
	InputPath  string `json:"inputPath" validate:"required"`
	OutputPath string `json:"outputPath" validate:"required_without=OutputDir"`
	OutputDir  string `json:"outputDir"`
	Start      int    `json:"start" validate:"gte=0"`
	End        int    `json:"end" validate:"gte=0"`
}

func splitPDFTool() Tool {
	return Tool{
		Name:        "split_pdf",
		Description: "Extract the page range start..end into outputPath, or write every page to its own file in outputDir.",
		InputSchema: schema([]string{"inputPath"},
			"inputPath", prop("string", "Path to the input PDF"),
			"outputPath", prop("string", "Path for the extracted range"),
			"outputDir", prop("string", "Directory for one file per page, used when outputPath is omitted"),
			"start", prop("number", "First page, 1-based (default: 1)"),
			"end", prop("number", "Last page, inclusive (default: last page)"),
		),
		Handler: handleSplitPDF,
	}
}

func handleSplitPDF(_ context.Context, raw json.RawMessage) (ToolResult, error) {
	var args splitArgs
	if err := bind(raw, &args); err != nil {
		return ToolResult{}, err
	}
	if args.OutputPath == "" {
		files, err := pageops.SplitToFiles(args.InputPath, args.OutputDir, "page")
		if err != nil {
			return ToolResult{}, err
		}
		return Text("Split %s into %d files:\n%s", args.InputPath, len(files), strings.Join(files, "\n")), nil
	}
	start, end := max(args.Start, 1), args.End
	if end == 0 {
		doc, _, err := openPDF(args.InputPath)
		if err != nil {
			return ToolResult{}, err
		}
		end = doc.NumPages()
	}
	if err := pageops.SplitFile(args.InputPath, args.OutputPath, start, end); err != nil {
		return ToolResult{}, err
	}
	return Text("Extracted pages %d-%d of %s -> %s", start, end, args.InputPath, args.OutputPath), nil
}

type rotateArgs struct {
	InputPath  string `json:"inputPath" validate:"required"`
	OutputPath string `json:"outputPath" validate:"required"`
	Angle      int    `json:"angle" validate:"oneof=90 180 270 -90 -180 -270"`
	Pages      []int  `json:"pages" validate:"dive,gte=1"`
}

func rotatePDFTool() Tool {
	return Tool{
		Name:        "rotate_pdf",
		Description: "Rotate pages in a PDF by 90, 180 or 270 degrees clockwise.",
		InputSchema: schema([]string{"inputPath", "outputPath", "angle"},
			"inputPath", prop("string", "Path to the input PDF"),
			"outputPath", prop("string", "Path for the output PDF"),
			"angle", prop("number", "Rotation angle: 90, 180 or 270"),
			"pages", arrayOf("number", "Page numbers to rotate (1-based). Omit for all pages."),
		),
		Handler: handleRotatePDF,
	}
}

func handleRotatePDF(_ context.Context, raw json.RawMessage) (ToolResult, error) {
	var args rotateArgs
	if err := bind(raw, &args); err != nil {
		return ToolResult{}, err
	}
	if err := pageops.RotateFile(args.InputPath, args.OutputPath, args.Angle, args.Pages...); err != nil {
		return ToolResult{}, err
	}
	desc := "all pages"
	if len(args.Pages) > 0 {
		desc = fmt.Sprintf("pages %v", args.Pages)
	}
	return Text("Rotated %s by %d degrees in %s -> %s", desc, args.Angle, args.InputPath, args.OutputPath), nil
}

type reorderArgs struct {
	InputPath  string `json:"inputPath" validate:"required"`
	OutputPath string `json:"outputPath" validate:"required"`
	Order      []int  `json:"order" validate:"min=1,dive,gte=1"`
}

func reorderPagesTool() Tool {
	return Tool{
		Name:        "reorder_pages",
		Description: "Write the pages of a PDF in a new order. Pages may be repeated or dropped.",
		InputSchema: schema([]string{"inputPath", "outputPath", "order"},
			"inputPath", prop("string", "Path to the input PDF"),
			"outputPath", prop("string", "Path for the output PDF"),
			"order", arrayOf("number", "1-based page numbers in output order"),
		),
		Handler: handleReorderPages,
	}
}

func handleReorderPages(_ context.Context, raw json.RawMessage) (ToolResult, error) {
	var args reorderArgs
	if err := bind(raw, &args); err != nil {
		return ToolResult{}, err
	}
	if err := pageops.ReorderFile(args.InputPath, args.OutputPath, args.Order); err != nil {
		return ToolResult{}, err
	}
	return Text("Reordered %s -> %s as %v", args.InputPath, args.OutputPath, args.Order), nil
}

type watermarkArgs struct {
	InputPath  string  `json:"inputPath" validate:"required"`
	OutputPath string  `json:"outputPath" validate:"required"`
	Text       string  `json:"text" validate:"required_without=Image"`
	Image      string  `json:"image"`
	FontSize   float64 `json:"fontSize"`
	Opacity    float64 `json:"opacity"`
	Position   string  `json:"position"`
	Pages      []int   `json:"pages"`
}

func addWatermarkTool() Tool {
	return Tool{
		Name:        "add_watermark",
		Description: "Add a text or image watermark to a PDF file.",
		InputSchema: schema([]string{"inputPath", "outputPath"},
			"inputPath", prop("string", "Path to the input PDF"),
			"outputPath", prop("string", "Path for the output PDF"),
			"text", prop("string", "Watermark text (e.g. 'CONFIDENTIAL', 'DRAFT')"),
			"image", prop("string", "Path to a JPEG, PNG or BMP watermark instead of text"),
			"fontSize", prop("number", "Font size in points (default: 48)"),
			"opacity", prop("number", "Opacity from 0.0 to 1.0 (default: 0.3)"),
			"position", prop("string", "diagonal, center, top-left, top-center, top-right, bottom-left, bottom-center or bottom-right (default: diagonal)"),
			"pages", arrayOf("number", "Page numbers to mark (1-based). Omit for all pages."),
		),
		Handler: handleAddWatermark,
	}
}

func handleAddWatermark(_ context.Context, raw json.RawMessage) (ToolResult, error) {
	var args watermarkArgs
	if err := bind(raw, &args); err != nil {
		return ToolResult{}, err
	}
	pos := pageops.Diagonal
	if args.Position != "" {
		var err error
		if pos, err = pageops.ParsePosition(args.Position); err != nil {
			return ToolResult{}, err
		}
	}
	spec := pageops.WatermarkSpec{
		Image:    args.Image,
		FontSize: args.FontSize,
		Opacity:  args.Opacity,
		Position: pos,
		Pages:    args.Pages,
	}
	if args.Image == "" {
		spec.Text = args.Text
	}
	if err := pageops.WatermarkAdvancedFile(args.InputPath, args.OutputPath, spec); err != nil {
		return ToolResult{}, err
	}
	what := fmt.Sprintf("%q", args.Text)
	if args.Image != "" {
		what = args.Image
	}
	return Text("Watermark %s added to %s -> %s", what, args.InputPath, args.OutputPath), nil
}

type pageNumbersArgs struct {
	InputPath  string  `json:"inputPath" validate:"required"`
	OutputPath string  `json:"outputPath" validate:"required"`
	Format     string  `json:"format"`
	Position   string  `json:"position"`
	FontSize   float64 `json:"fontSize" validate:"gte=0,lte=200"`
}

func addPageNumbersTool() Tool {
	return Tool{
		Name:        "add_page_numbers",
		Description: "Add page numbers to a PDF file.",
		InputSchema: schema([]string{"inputPath", "outputPath"},
			"inputPath", prop("string", "Path to the input PDF"),
			"outputPath", prop("string", "Path for the output PDF"),
			"format", prop("string", "Format string, e.g. 'Page %d of %d' (default: 'Page %d of %d')"),
			"position", prop("string", "bottom-center, bottom-left, bottom-right, top-center, top-left or top-right"),
			"fontSize", prop("number", "Font size in points (default: 10)"),
		),
		Handler: handleAddPageNumbers,
	}
}

func handleAddPageNumbers(_ context.Context, raw json.RawMessage) (ToolResult, error) {
	var args pageNumbersArgs
	if err := bind(raw, &args); err != nil {
		return ToolResult{}, err
	}
	style := pageops.DefaultPageNumberStyle()
	if args.Format != "" {
		style.Format = args.Format
	}
	if args.FontSize > 0 {
		style.FontSize = args.FontSize
	}
	if args.Position != "" {
		pos, err := pageops.ParsePosition(args.Position)
		if err != nil {
			return ToolResult{}, err
		}
		style.Position = pos
	}
	if err := pageops.AddPageNumbersFile(args.InputPath, args.OutputPath, style); err != nil {
		return ToolResult{}, err
	}
	return Text("Page numbers added to %s -> %s", args.InputPath, args.OutputPath), nil
}

func validatePDFTool() Tool {
	return Tool{
		Name:        "validate_pdf",
		Description: "Check the structure of a PDF file and report errors and warnings.",
		InputSchema: schema([]string{"path"},
			"path", prop("string", "Path to the PDF file"),
			"deep", prop("boolean", "Also parse the document and check every page"),
		),
		Handler: handleValidatePDF,
	}
}

func handleValidatePDF(_ context.Context, raw json.RawMessage) (ToolResult, error) {
	var args pathArgs
	if err := bind(raw, &args); err != nil {
		return ToolResult{}, err
	}
	data, err := os.ReadFile(args.Path)
	if err != nil {
		return ToolResult{}, fmt.Errorf("mcp: %w: %v", pdfcli.ErrIO, err)
	}
	report := validate.Bytes(data)
	if args.Deep {
		report = validate.Deep(data)
	}
	return jsonText(report), nil
}

func pdfInfoTool() Tool {
	return Tool{
		Name:        "pdf_info",
		Description: "Get information about a PDF file: version, page count and sizes, metadata, encryption and form fields.",
		InputSchema: schema([]string{"path"},
			"path", prop("string", "Path to the PDF file"),
		),
		Handler: handlePDFInfo,
	}
}

type fieldInfo struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Value    string   `json:"value"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

type pageInfo struct {
	Page   int     `json:"page"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Rotate int     `json:"rotate"`
}

func pageInfos(doc *reader.Document) []pageInfo {
	out := make([]pageInfo, 0, doc.NumPages())
	for n, p := range doc.EachPage() {
		out = append(out, pageInfo{Page: n, Width: p.MediaBox.Width(), Height: p.MediaBox.Height(), Rotate: p.Rotate})
	}
	return out
}

func formInfos(doc *reader.Document) []fieldInfo {
	fields, err := doc.FormFields()
	if err != nil {
		return nil
	}
	var out []fieldInfo
	for _, root := range fields {
		for _, f := range root.Leaves() {
			out = append(out, fieldInfo{Name: f.FullName, Type: f.Type, Value: f.Value, Required: f.IsRequired(), Options: f.Options})
		}
	}
	return out
}

func handlePDFInfo(_ context.Context, raw json.RawMessage) (ToolResult, error) {
	var args pathArgs
	if err := bind(raw, &args); err != nil {
		return ToolResult{}, err
	}
	doc, data, err := openPDF(args.Path)
	if err != nil {
		return ToolResult{}, err
	}
	info := map[string]any{
		"version":   doc.Version,
		"numPages":  doc.NumPages(),
		"fileSize":  len(data),
		"encrypted": doc.IsEncrypted(),
		"metadata":  doc.Metadata(),
		"pages":     pageInfos(doc),
	}
	if fields := formInfos(doc); len(fields) > 0 {
		info["formFields"] = fields
	}
	return jsonText(info), nil
}

type fillArgs struct {
	InputPath  string         `json:"inputPath" validate:"required"`
	OutputPath string         `json:"outputPath" validate:"required"`
	Values     map[string]any `json:"values" validate:"required"`
	Flatten    bool           `json:"flatten"`
}

func fillFormTool() Tool {
	return Tool{
		Name:        "fill_form",
		Description: "Fill form fields in a PDF with provided values, optionally flattening the result.",
		InputSchema: schema([]string{"inputPath", "outputPath", "values"},
			"inputPath", prop("string", "Path to the input PDF with form fields"),
			"outputPath", prop("string", "Path for the filled output PDF"),
			"values", prop("object", "Map of fully qualified field names to values"),
			"flatten", prop("boolean", "Draw the values as page content and remove the form"),
		),
		Handler: handleFillForm,
	}
}

func handleFillForm(_ context.Context, raw json.RawMessage) (ToolResult, error) {
	var args fillArgs
	if err := bind(raw, &args); err != nil {
		return ToolResult{}, err
	}
	data, err := os.ReadFile(args.InputPath)
	if err != nil {
		return ToolResult{}, fmt.Errorf("mcp: %w: %v", pdfcli.ErrIO, err)
	}
	values := make(map[string]string, len(args.Values))
	for k, v := range args.Values {
		switch v := v.(type) {
		case bool:
			values[k] = "Off"
			if v {
				values[k] = "Yes"
			}
		default:
			values[k] = fmt.Sprint(v)
		}
	}
	if data, err = form.Fill(data, values); err != nil {
		return ToolResult{}, err
	}
	if args.Flatten {
		if data, err = form.Flatten(data); err != nil {
			return ToolResult{}, err
		}
	}
	if err := document.WriteFile(args.OutputPath, data); err != nil {
		return ToolResult{}, err
	}
	return Text("Filled %d form fields in %s -> %s", len(values), args.InputPath, args.OutputPath), nil
}

type flattenArgs struct {
	InputPath  string `json:"inputPath" validate:"required"`
	OutputPath string `json:"outputPath" validate:"required"`
}

func flattenFormTool() Tool {
	return Tool{
		Name:        "flatten_form",
		Description: "Flatten a PDF form, embedding field values as static content and removing the fields.",
		InputSchema: schema([]string{"inputPath", "outputPath"},
			"inputPath", prop("string", "Path to the input PDF with form fields"),
			"outputPath", prop("string", "Path for the flattened output PDF"),
		),
		Handler: handleFlattenForm,
	}
}

func handleFlattenForm(_ context.Context, raw json.RawMessage) (ToolResult, error) {
	var args flattenArgs
	if err := bind(raw, &args); err != nil {
		return ToolResult{}, err
	}
	if err := form.FlattenFile(args.InputPath, args.OutputPath); err != nil {
		return ToolResult{}, err
	}
	return Text("Form flattened: %s -> %s", args.InputPath, args.OutputPath), nil
}

type protectArgs struct {
	InputPath     string   `json:"inputPath" validate:"required"`
	OutputPath    string   `json:"outputPath" validate:"required"`
	UserPassword  string   `json:"userPassword" validate:"required_without=OwnerPassword"`
	OwnerPassword string   `json:"ownerPassword"`
	Algorithm     string   `json:"algorithm"`
	Permissions   []string `json:"permissions" validate:"omitempty,dive,oneof=print modify copy annotate fill-forms extract assemble print-hq"`
}

func protectPDFTool() Tool {
	return Tool{
		Name:        "protect_pdf",
		Description: "Encrypt a PDF with a user and/or owner password.",
		InputSchema: schema([]string{"inputPath", "outputPath"},
			"inputPath", prop("string", "Path to the input PDF"),
			"outputPath", prop("string", "Path for the encrypted output PDF"),
			"userPassword", prop("string", "Password required to open the document"),
			"ownerPassword", prop("string", "Password that lifts the permission limits"),
			"algorithm", prop("string", "rc4-40, rc4-128, aes-128 or aes-256 (default: rc4-128)"),
			"permissions", arrayOf("string", "Granted permissions: print, modify, copy, annotate, fill-forms, extract, assemble, print-hq. Omit to grant all."),
		),
		Handler: handleProtectPDF,
	}
}

func permissions(names []string) security.Permissions {
	if names == nil {
		return security.All()
	}
	var p security.Permissions
	for _, n := range names {
		switch n {
		case "print":
			p.Print = true
		case "modify":
			p.Modify = true
		case "copy":
			p.Copy = true
		case "annotate":
			p.Annotate = true
		case "fill-forms":
			p.FillForms = true
		case "extract":
			p.Extract = true
		case "assemble":
			p.Assemble = true
		case "print-hq":
			p.PrintHQ = true
		}
	}
	return p
}

func handleProtectPDF(_ context.Context, raw json.RawMessage) (ToolResult, error) {
	var args protectArgs
	if err := bind(raw, &args); err != nil {
		return ToolResult{}, err
	}
	alg, err := security.ParseAlgorithm(args.Algorithm)
	if err != nil {
		return ToolResult{}, err
	}
	sec := security.New()
	sec.Algorithm = alg
	sec.Permissions = permissions(args.Permissions)
	if args.UserPassword != "" {
		sec = sec.WithUserPassword(args.UserPassword)
	}
	if args.OwnerPassword != "" {
		sec = sec.WithOwnerPassword(args.OwnerPassword)
	}
	if err := pageops.ProtectFile(args.InputPath, args.OutputPath, sec); err != nil {
		return ToolResult{}, err
	}
	return Text("Protected %s -> %s with %s", args.InputPath, args.OutputPath, alg), nil
}
