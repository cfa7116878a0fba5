// Package mcp exposes the generator to AI agents as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	datagen "github.com/tqwhite/unity-data-generator-sub000"
	"github.com/tqwhite/unity-data-generator-sub000/internal/dto"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/facilitator"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
)

const runsURI = "datagen://runs"

// Engine defines what the MCP server needs from *datagen.Engine.
type Engine interface {
	Generate(ctx context.Context, t datagen.Target) (*facilitator.Result, error)
	Conversations() []string
	Validate(ctx context.Context, candidate string) (domain.ValidationOutcome, error)
	Audit() ports.AuditSink
}

// Server wraps the Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine: engine,
		mcpServer: server.NewMCPServer("datagen-mcp", strings.TrimSpace(datagen.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	generateTool := mcp.NewTool("generate_data",
		mcp.WithDescription("Generate a validated synthetic record for a target object. "+
			"Returns the final candidate, whether it passed validation and every validator error seen."),
		mcp.WithString("target", mcp.Required(), mcp.Description("Name of the object to generate, e.g. StudentPersonal")),
		mcp.WithString("specification", mcp.Description("Semantic specification the record must satisfy")),
		mcp.WithString("run_id", mcp.Description("Run identifier for the audit log (optional)")),
		mcp.WithString("seed", mcp.Description("JSON object of initial state, e.g. {\"bestSoFar\": \"...\"} (optional)")),
		mcp.WithOutputSchema[dto.RunReport](),
	)
	s.mcpServer.AddTool(generateTool, mcp.NewStructuredToolHandler(s.handleGenerate))

	validateTool := mcp.NewTool("validate_candidate",
		mcp.WithDescription("Check a candidate record with the configured validator."),
		mcp.WithString("candidate", mcp.Required(), mcp.Description("The XML or JSON text to validate")),
		mcp.WithOutputSchema[domain.ValidationOutcome](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	s.mcpServer.AddTool(mcp.NewTool("list_conversations",
		mcp.WithDescription("List the configured conversations."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, err := json.Marshal(s.engine.Conversations())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(b)), nil
	})
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (dto.RunReport, error) {
	req := dto.GenerateRequest{}
	req.Target, _ = args["target"].(string)
	req.Specification, _ = args["specification"].(string)
	req.RunID, _ = args["run_id"].(string)
	if seed, ok := args["seed"].(string); ok && seed != "" {
		if err := json.Unmarshal([]byte(seed), &req.Seed); err != nil {
			return dto.RunReport{}, fmt.Errorf("seed must be a JSON object: %w", err)
		}
	}
	if err := req.Validate(); err != nil {
		return dto.RunReport{}, err
	}

	res, err := s.engine.Generate(ctx, req.ToTarget())
	if err != nil {
		slog.Error("MCP generate failed", "target", req.Target, "error", err)
		return dto.RunReport{}, fmt.Errorf("generate failed: %w", err)
	}
	return dto.NewRunReport(req.Target, res, nil), nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.ValidationOutcome, error) {
	candidate, _ := args["candidate"].(string)
	if candidate == "" {
		return domain.ValidationOutcome{}, fmt.Errorf("candidate is required")
	}
	outcome, err := s.engine.Validate(ctx, candidate)
	if err != nil {
		return domain.ValidationOutcome{}, fmt.Errorf("validator failed: %w", err)
	}
	return outcome, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(runsURI, "Audited runs",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		runs, err := s.engine.Audit().Runs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}
		if runs == nil {
			runs = []string{}
		}
		b, _ := json.Marshal(runs)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      runsURI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	})
}
