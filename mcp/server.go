// Package mcp implements a Model Context Protocol (MCP) server that exposes
// the PDF engine as tools and resources for AI assistants.
//
// The server speaks newline-delimited JSON-RPC 2.0 over stdio and implements
// the tools and resources parts of the MCP 2024-11-05 revision.
//
// # Usage with an MCP client
//
// Register the binary in the client configuration:
//
//	{
//	  "mcpServers": {
//	    "pdf": {
//	      "command": "pdf-mcp"
//	    }
//	  }
//	}
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/internal/logger"
)

// ProtocolVersion is the MCP revision the server implements.
const ProtocolVersion = "2024-11-05"

// ServerName is reported in the initialize handshake.
const ServerName = "pdf-mcp"

// JSON-RPC error codes.
const (
	codeParse          = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternal       = -32603
)

var argValidator = validator.New()

// Server is an MCP server that handles JSON-RPC 2.0 messages.
type Server struct {
	tools     map[string]Tool
	resources map[string]Resource
	input     io.Reader
	output    io.Writer
	version   string
	mu        sync.Mutex
}

// Tool defines an MCP tool that can be called by the client.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	Handler     ToolHandler    `json:"-"`
}

// ToolHandler executes a tool with the raw JSON arguments of the call.
type ToolHandler func(ctx context.Context, args json.RawMessage) (ToolResult, error)

// ToolResult is the result returned by a tool execution.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is a piece of content in a tool result.
type ContentBlock struct {
	Type     string `json:"type"` // "text" or "resource"
	Text     string `json:"text,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"` // base64 for binary
}

// Text returns a result holding a single text block.
func Text(format string, args ...any) ToolResult {
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf(format, args...)}}}
}

// Resource defines a family of MCP resources. URITemplate ends with a
// {path} placeholder; a read of the template prefix followed by a file path
// goes to Handler.
type Resource struct {
	URITemplate string          `json:"uriTemplate"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	MIMEType    string          `json:"mimeType,omitempty"`
	Handler     ResourceHandler `json:"-"`
}

func (r Resource) prefix() string {
	return strings.TrimSuffix(r.URITemplate, "{path}")
}

// ResourceHandler reads the resource for the file at path.
type ResourceHandler func(ctx context.Context, uri, path string) ([]ResourceContent, error)

// ResourceContent is the content of a read resource.
type ResourceContent struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"` // base64
}

// JSON-RPC types
type jsonrpcRequest struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id"`
	Result  any              `json:"result,omitempty"`
	Error   *jsonrpcError    `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewServer creates a server reading from stdin and writing to stdout.
func NewServer(version string) *Server {
	return NewServerWithIO(os.Stdin, os.Stdout, version)
}

// NewServerWithIO creates a server with custom I/O.
func NewServerWithIO(in io.Reader, out io.Writer, version string) *Server {
	return &Server{
		tools:     make(map[string]Tool),
		resources: make(map[string]Resource),
		input:     in,
		output:    out,
		version:   version,
	}
}

// AddTool registers a tool with the server.
func (s *Server) AddTool(t Tool) {
	s.tools[t.Name] = t
}

// AddResource registers a resource family with the server.
func (s *Server) AddResource(r Resource) {
	s.resources[r.URITemplate] = r
}

// Run processes messages until EOF or until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.input)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req jsonrpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.sendError(nil, codeParse, "Parse error", err.Error())
			continue
		}
		s.handleRequest(ctx, req)
	}
	return scanner.Err()
}

func (s *Server) handleRequest(ctx context.Context, req jsonrpcRequest) {
	logger.Debug("mcp request", "method", req.Method, true)
	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "initialized", "notifications/initialized":
		// notification, no response
	case "ping":
		s.sendResult(req.ID, map[string]any{})
	case "tools/list":
		s.handleToolsList(req)
	case "tools/call":
		s.handleToolsCall(ctx, req)
	case "resources/list":
		s.handleResourcesList(req, "resources", "uri")
	case "resources/templates/list":
		s.handleResourcesList(req, "resourceTemplates", "uriTemplate")
	case "resources/read":
		s.handleResourcesRead(ctx, req)
	default:
		if req.ID == nil {
			return
		}
		s.sendError(req.ID, codeMethodNotFound, "Method not found", req.Method)
	}
}

func (s *Server) handleInitialize(req jsonrpcRequest) {
	s.sendResult(req.ID, map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    ServerName,
			"version": s.version,
		},
	})
}

func (s *Server) handleToolsList(req jsonrpcRequest) {
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	tools := make([]Tool, len(names))
	for i, name := range names {
		tools[i] = s.tools[name]
	}
	s.sendResult(req.ID, map[string]any{"tools": tools})
}

func (s *Server) handleToolsCall(ctx context.Context, req jsonrpcRequest) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, codeInvalidParams, "Invalid params", err.Error())
		return
	}

	tool, ok := s.tools[params.Name]
	if !ok {
		s.sendError(req.ID, codeInvalidParams, "Unknown tool", params.Name)
		return
	}
	if len(params.Arguments) == 0 || string(params.Arguments) == "null" {
		params.Arguments = json.RawMessage("{}")
	}

	result, err := tool.Handler(ctx, params.Arguments)
	if err != nil {
		logger.Warn("tool failed", "tool", params.Name, "err", err)
		s.sendResult(req.ID, ToolResult{
			Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf("Error: %v", err)}},
			IsError: true,
		})
		return
	}
	s.sendResult(req.ID, result)
}

func (s *Server) sortedResources() []Resource {
	out := make([]Resource, 0, len(s.resources))
	for _, r := range s.resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URITemplate < out[j].URITemplate })
	return out
}

func (s *Server) handleResourcesList(req jsonrpcRequest, key, uriKey string) {
	list := make([]map[string]any, 0, len(s.resources))
	for _, r := range s.sortedResources() {
		res := map[string]any{
			uriKey: r.URITemplate,
			"name": r.Name,
		}
		if r.Description != "" {
			res["description"] = r.Description
		}
		if r.MIMEType != "" {
			res["mimeType"] = r.MIMEType
		}
		list = append(list, res)
	}
	s.sendResult(req.ID, map[string]any{key: list})
}

func (s *Server) handleResourcesRead(ctx context.Context, req jsonrpcRequest) {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, codeInvalidParams, "Invalid params", err.Error())
		return
	}

	for _, r := range s.sortedResources() {
		path, ok := strings.CutPrefix(params.URI, r.prefix())
		if !ok {
			continue
		}
		if path == "" {
			s.sendError(req.ID, codeInvalidParams, "Missing file path", params.URI)
			return
		}
		contents, err := r.Handler(ctx, params.URI, path)
		if err != nil {
			s.sendError(req.ID, codeInternal, "Resource error", err.Error())
			return
		}
		s.sendResult(req.ID, map[string]any{"contents": contents})
		return
	}
	s.sendError(req.ID, codeInvalidParams, "Unknown resource", params.URI)
}

// bind decodes tool arguments into v and validates its struct tags.
func bind(args json.RawMessage, v any) error {
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("mcp: %w: arguments: %v", pdfcli.ErrInvalidParam, err)
	}
	if err := argValidator.Struct(v); err != nil {
		return fmt.Errorf("mcp: %w: %v", pdfcli.ErrInvalidParam, err)
	}
	return nil
}

func (s *Server) sendResult(id *json.RawMessage, result any) {
	s.send(jsonrpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) sendError(id *json.RawMessage, code int, message string, data any) {
	s.send(jsonrpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &jsonrpcError{Code: code, Message: message, Data: data},
	})
}

func (s *Server) send(resp jsonrpcResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(resp)
	if err != nil {
		logger.Error("encoding response", "err", err)
		return
	}
	data = append(data, '\n')
	if _, err := s.output.Write(data); err != nil {
		logger.Error("writing response", "err", err)
	}
}
