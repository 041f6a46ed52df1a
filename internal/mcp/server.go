package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/reflex-tools/rxdocs/internal/daemon"
)

//go:embed instructions.md
var instructions string

type Server struct {
	mcpServer *server.MCPServer
	client    *daemon.Client
}

func NewServer(socketPath string) (*Server, error) {
	client, err := daemon.ConnectOrSpawn(socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to daemon: %w", err)
	}

	s := &Server{client: client}

	mcpServer := server.NewMCPServer(
		"rxdocs",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s, nil
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("get_component_doc",
			mcp.WithDescription("Get the full markdown documentation for a Reflex component by name (e.g. \"Button\", \"DataTable\"). Use list_components to discover names."),
			mcp.WithString("name",
				mcp.Description("Component name"),
				mcp.Required(),
			),
		),
		s.handleGetComponentDoc,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_components",
			mcp.WithDescription("List cataloged Reflex components with their category and short description. Use `category` to filter (case-insensitive substring, e.g. \"form\")."),
			mcp.WithString("category",
				mcp.Description("Optional category filter"),
			),
		),
		s.handleListComponents,
	)

	mcpServer.AddTool(
		mcp.NewTool("get_doc",
			mcp.WithDescription("Get the full markdown for a general documentation page by name (e.g. \"Installation\", \"State\"). Use list_doc_sections to discover names."),
			mcp.WithString("name",
				mcp.Description("Documentation page name"),
				mcp.Required(),
			),
		),
		s.handleGetDoc,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_doc_sections",
			mcp.WithDescription("List cataloged documentation pages with their section and short description. Use `section` to filter (case-insensitive substring, e.g. \"getting\")."),
			mcp.WithString("section",
				mcp.Description("Optional section filter"),
			),
		),
		s.handleListDocSections,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_categories",
			mcp.WithDescription("List the distinct component categories in the catalog."),
		),
		s.handleListCategories,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_sections",
			mcp.WithDescription("List the distinct documentation sections in the catalog."),
		),
		s.handleListSections,
	)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"rxdoc://{kind}/{name}",
			"Reflex documentation page",
			mcp.WithTemplateDescription("Read a cataloged Reflex documentation page. kind is \"component\" or \"doc\"; name is the cataloged name."),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.handleReadResource,
	)
}

func (s *Server) handleGetComponentDoc(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, _ := args["name"].(string)
	if name == "" {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}

	resp, err := s.client.GetComponent(ctx, name)
	if err != nil {
		return toolError("getting component", err), nil
	}

	return mcp.NewToolResultText(resp.Content), nil
}

func (s *Server) handleGetDoc(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, _ := args["name"].(string)
	if name == "" {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}

	resp, err := s.client.GetDocSection(ctx, name)
	if err != nil {
		return toolError("getting doc", err), nil
	}

	return mcp.NewToolResultText(resp.Content), nil
}

func (s *Server) handleListComponents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	category, _ := args["category"].(string)

	resp, err := s.client.ListComponents(ctx, category)
	if err != nil {
		return toolError("listing components", err), nil
	}

	resultJSON, _ := json.MarshalIndent(resp.Components, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleListDocSections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	section, _ := args["section"].(string)

	resp, err := s.client.ListDocSections(ctx, section)
	if err != nil {
		return toolError("listing doc sections", err), nil
	}

	resultJSON, _ := json.MarshalIndent(resp.DocSections, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleListCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := s.client.Categories(ctx)
	if err != nil {
		return toolError("listing categories", err), nil
	}

	resultJSON, _ := json.MarshalIndent(resp.Categories, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleListSections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := s.client.Sections(ctx)
	if err != nil {
		return toolError("listing sections", err), nil
	}

	resultJSON, _ := json.MarshalIndent(resp.Sections, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	trimmed := strings.TrimPrefix(uri, "rxdoc://")
	kind, rawName, ok := strings.Cut(trimmed, "/")
	if !ok || rawName == "" {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}

	// Names can contain spaces, which arrive percent-encoded.
	name, err := url.PathUnescape(rawName)
	if err != nil {
		name = rawName
	}

	var content string
	switch kind {
	case "component":
		resp, err := s.client.GetComponent(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("getting component: %w", err)
		}
		content = resp.Content
	case "doc":
		resp, err := s.client.GetDocSection(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("getting doc: %w", err)
		}
		content = resp.Content
	default:
		return nil, fmt.Errorf("invalid resource kind %q in URI: %s", kind, uri)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     content,
		},
	}, nil
}

// toolError keeps lookup misses readable and prefixes everything else.
func toolError(action string, err error) *mcp.CallToolResult {
	var nf *daemon.NotFoundError
	if errors.As(err, &nf) {
		return mcp.NewToolResultError(nf.Message)
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", action, err))
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) Shutdown(_ context.Context) error {
	return nil
}
