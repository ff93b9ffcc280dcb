package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/pdfcli/reader"
)

// response is the decoded form of a reply, with the result kept generic.
type response struct {
	ID     int            `json:"id"`
	Result map[string]any `json:"result"`
	Error  *jsonrpcError  `json:"error"`
}

func newTestServer() *Server {
	s := NewServerWithIO(nil, nil, "test")
	RegisterDefaultTools(s)
	RegisterDefaultResources(s)
	return s
}

func sendRequest(t *testing.T, s *Server, method string, id int, params any) response {
	t.Helper()
	req := map[string]any{"jsonrpc": "2.0", "id": id, "method": method}
	if params != nil {
		req["params"] = params
	}
	line, err := json.Marshal(req)
	require.NoError(t, err)

	var out bytes.Buffer
	s.input = bytes.NewReader(append(line, '\n'))
	s.output = &out
	require.NoError(t, s.Run(context.Background()))

	var resp response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp), out.String())
	assert.Equal(t, id, resp.ID)
	return resp
}

// callTool invokes a tool and returns the text of its first content block.
func callTool(t *testing.T, s *Server, name string, args map[string]any) (string, bool) {
	t.Helper()
	resp := sendRequest(t, s, "tools/call", 1, map[string]any{"name": name, "arguments": args})
	require.Nil(t, resp.Error)
	content, _ := resp.Result["content"].([]any)
	require.NotEmpty(t, content)
	block := content[0].(map[string]any)
	isErr, _ := resp.Result["isError"].(bool)
	return block["text"].(string), isErr
}

func writeMarkdownPDF(t *testing.T, s *Server, dir, name, md string) string {
	t.Helper()
	out := filepath.Join(dir, name)
	text, isErr := callTool(t, s, "markdown_to_pdf", map[string]any{"markdown": md, "outputPath": out, "pageNumbers": false})
	require.False(t, isErr, text)
	return out
}

func TestServerInitialize(t *testing.T) {
	resp := sendRequest(t, newTestServer(), "initialize", 1, map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "1.0"},
	})
	require.Nil(t, resp.Error)
	assert.Equal(t, ProtocolVersion, resp.Result["protocolVersion"])
	info := resp.Result["serverInfo"].(map[string]any)
	assert.Equal(t, ServerName, info["name"])
	assert.Equal(t, "test", info["version"])
}

func TestServerToolsList(t *testing.T) {
	resp := sendRequest(t, newTestServer(), "tools/list", 2, nil)
	require.Nil(t, resp.Error)

	var names []string
	for _, tool := range resp.Result["tools"].([]any) {
		tm := tool.(map[string]any)
		names = append(names, tm["name"].(string))
		assert.Contains(t, tm, "inputSchema")
	}
	for _, want := range []string{
		"markdown_to_pdf", "extract_text", "merge_pdfs", "split_pdf", "rotate_pdf",
		"reorder_pages", "add_watermark", "validate_pdf", "pdf_info", "fill_form", "protect_pdf",
	} {
		assert.Contains(t, names, want)
	}
	assert.IsIncreasing(t, names)
}

func TestServerResourcesList(t *testing.T) {
	s := newTestServer()
	resp := sendRequest(t, s, "resources/list", 3, nil)
	require.Nil(t, resp.Error)
	assert.Len(t, resp.Result["resources"], 5)

	resp = sendRequest(t, s, "resources/templates/list", 4, nil)
	require.Nil(t, resp.Error)
	templates := resp.Result["resourceTemplates"].([]any)
	require.Len(t, templates, 5)
	assert.Equal(t, "pdf://form-fields/{path}", templates[0].(map[string]any)["uriTemplate"])
}

func TestServerErrors(t *testing.T) {
	s := newTestServer()

	resp := sendRequest(t, s, "nonexistent/method", 5, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)

	resp = sendRequest(t, s, "tools/call", 6, map[string]any{"name": "nonexistent_tool"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)

	resp = sendRequest(t, s, "resources/read", 7, map[string]any{"uri": "file:///x"})
	require.NotNil(t, resp.Error)

	resp = sendRequest(t, s, "resources/read", 8, map[string]any{"uri": "pdf://text/"})
	require.NotNil(t, resp.Error)

	resp = sendRequest(t, s, "ping", 9, nil)
	assert.Nil(t, resp.Error)
}

func TestToolArgumentValidation(t *testing.T) {
	s := newTestServer()
	tests := []struct {
		tool string
		args map[string]any
	}{
		{"extract_text", map[string]any{}},
		{"merge_pdfs", map[string]any{"inputPaths": []string{}, "outputPath": "x.pdf"}},
		{"rotate_pdf", map[string]any{"inputPath": "a.pdf", "outputPath": "b.pdf", "angle": 45}},
		{"protect_pdf", map[string]any{"inputPath": "a.pdf", "outputPath": "b.pdf"}},
		{"markdown_to_pdf", map[string]any{"fontFamily": "Arial", "markdown": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			text, isErr := callTool(t, s, tt.tool, tt.args)
			assert.True(t, isErr)
			assert.Contains(t, text, "invalid parameter")
		})
	}
}

func TestCreatePDFTool(t *testing.T) {
	s := newTestServer()
	resp := sendRequest(t, s, "tools/call", 7, map[string]any{
		"name": "create_pdf",
		"arguments": map[string]any{
			"template": map[string]any{
				"title": "Test PDF",
				"pages": []any{map[string]any{"elements": []any{
					map[string]any{"type": "heading", "text": "Hello MCP", "level": 1},
					map[string]any{"type": "paragraph", "text": "Created via MCP tool."},
				}}},
			},
		},
	})
	require.Nil(t, resp.Error)
	content := resp.Result["content"].([]any)
	require.Len(t, content, 2)
	assert.Contains(t, content[0].(map[string]any)["text"], "PDF created successfully")
	blob := content[1].(map[string]any)
	assert.Equal(t, "application/pdf", blob["mimeType"])
	assert.True(t, strings.HasPrefix(blob["data"].(string), "JVBERi0"), "base64 of %PDF-")
}

func TestPageTools(t *testing.T) {
	s := newTestServer()
	dir := t.TempDir()
	a := writeMarkdownPDF(t, s, dir, "a.pdf", "# Alpha\n\nfirst\n\n<!--pagebreak-->\n\nsecond")
	b := writeMarkdownPDF(t, s, dir, "b.pdf", "# Beta\n\nthird")
	merged := filepath.Join(dir, "merged.pdf")

	text, isErr := callTool(t, s, "merge_pdfs", map[string]any{"inputPaths": []string{a, b}, "outputPath": merged})
	require.False(t, isErr, text)

	text, _ = callTool(t, s, "extract_text", map[string]any{"path": merged, "pages": []int{3}})
	assert.Contains(t, text, "--- Page 3 ---")
	assert.Contains(t, text, "third")
	assert.NotContains(t, text, "first")

	reordered := filepath.Join(dir, "reordered.pdf")
	text, isErr = callTool(t, s, "reorder_pages", map[string]any{"inputPath": merged, "outputPath": reordered, "order": []int{3, 1}})
	require.False(t, isErr, text)

	rotated := filepath.Join(dir, "rotated.pdf")
	text, isErr = callTool(t, s, "rotate_pdf", map[string]any{"inputPath": reordered, "outputPath": rotated, "angle": 90, "pages": []int{2}})
	require.False(t, isErr, text)

	split := filepath.Join(dir, "split.pdf")
	text, isErr = callTool(t, s, "split_pdf", map[string]any{"inputPath": rotated, "outputPath": split, "start": 2})
	require.False(t, isErr, text)

	data, err := os.ReadFile(split)
	require.NoError(t, err)
	doc, err := reader.Load(data)
	require.NoError(t, err)
	require.Equal(t, 1, doc.NumPages())
	p, err := doc.Page(1)
	require.NoError(t, err)
	assert.Equal(t, 90, p.Rotate)
	pt, err := p.Text()
	require.NoError(t, err)
	assert.Contains(t, pt, "Alpha")

	info, isErr := callTool(t, s, "pdf_info", map[string]any{"path": merged})
	require.False(t, isErr, info)
	var got struct {
		NumPages int `json:"numPages"`
	}
	require.NoError(t, json.Unmarshal([]byte(info), &got))
	assert.Equal(t, 3, got.NumPages)
}

func TestWatermarkValidateProtect(t *testing.T) {
	s := newTestServer()
	dir := t.TempDir()
	in := writeMarkdownPDF(t, s, dir, "in.pdf", "body text")

	marked := filepath.Join(dir, "marked.pdf")
	text, isErr := callTool(t, s, "add_watermark", map[string]any{"inputPath": in, "outputPath": marked, "text": "DRAFT", "position": "top-left"})
	require.False(t, isErr, text)

	report, isErr := callTool(t, s, "validate_pdf", map[string]any{"path": marked, "deep": true})
	require.False(t, isErr, report)
	assert.Contains(t, report, `"valid": true`)

	locked := filepath.Join(dir, "locked.pdf")
	text, isErr = callTool(t, s, "protect_pdf", map[string]any{
		"inputPath": marked, "outputPath": locked, "userPassword": "secret", "algorithm": "aes-128", "permissions": []string{"print"},
	})
	require.False(t, isErr, text)

	data, err := os.ReadFile(locked)
	require.NoError(t, err)
	_, err = reader.LoadWithPassword(data, "secret")
	require.NoError(t, err)
}

func TestFillFormTool(t *testing.T) {
	s := newTestServer()
	text, isErr := callTool(t, s, "fill_form", map[string]any{
		"inputPath": filepath.Join(t.TempDir(), "missing.pdf"), "outputPath": "out.pdf", "values": map[string]any{"a": "b"},
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "i/o failure")
}

func TestResourcesRead(t *testing.T) {
	s := newTestServer()
	dir := t.TempDir()
	path := writeMarkdownPDF(t, s, dir, "doc.pdf", "# Resource\n\nreadable text")

	for _, tt := range []struct{ prefix, want string }{
		{"pdf://text/", "readable text"},
		{"pdf://metadata/", `"numPages": 1`},
		{"pdf://pages/", `"width": 612`},
		{"pdf://validate/", `"valid": true`},
		{"pdf://form-fields/", `"fieldCount": 0`},
	} {
		t.Run(tt.prefix, func(t *testing.T) {
			resp := sendRequest(t, s, "resources/read", 10, map[string]any{"uri": tt.prefix + path})
			require.Nil(t, resp.Error)
			contents := resp.Result["contents"].([]any)
			require.Len(t, contents, 1)
			c := contents[0].(map[string]any)
			assert.Equal(t, tt.prefix+path, c["uri"])
			assert.Contains(t, c["text"], tt.want)
		})
	}
}

func TestServerMultipleRequests(t *testing.T) {
	requests := []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`not json`,
		`{"jsonrpc":"2.0","id":3,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":4,"method":"ping"}`,
	}
	var out bytes.Buffer
	s := NewServerWithIO(strings.NewReader(strings.Join(requests, "\n")+"\n"), &out, "test")
	RegisterDefaultTools(s)
	RegisterDefaultResources(s)
	require.NoError(t, s.Run(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	for i, line := range lines {
		var resp response
		require.NoError(t, json.Unmarshal([]byte(line), &resp), "response %d", i)
		if i == 2 {
			require.NotNil(t, resp.Error)
			assert.Equal(t, codeParse, resp.Error.Code)
			continue
		}
		assert.Nil(t, resp.Error, "response %d", i)
	}
}

func TestAddTool(t *testing.T) {
	s := NewServerWithIO(nil, nil, "test")
	s.AddTool(Tool{
		Name:        "custom_tool",
		Description: "A custom test tool",
		InputSchema: schema(nil),
		Handler: func(_ context.Context, args json.RawMessage) (ToolResult, error) {
			return Text("custom result %s", args), nil
		},
	})
	text, isErr := callTool(t, s, "custom_tool", nil)
	assert.False(t, isErr)
	assert.Equal(t, "custom result {}", text)
}
