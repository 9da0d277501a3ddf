package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/automata"
	"github.com/aretw0/automata/internal/compiler"
	"github.com/aretw0/automata/internal/logging"
	"github.com/aretw0/automata/internal/presentation/graph"
	"github.com/aretw0/automata/pkg/domain"
	"github.com/aretw0/automata/pkg/ports"
	"github.com/aretw0/automata/pkg/session"
)

// MachinesURI is the resource listing the registered machines.
const MachinesURI = "automata://machines"

// CalculateArgs are the arguments of the calculate tool.
type CalculateArgs struct {
	Machine string `json:"machine"`
	Input   string `json:"input,omitempty"`
	Items   []any  `json:"items,omitempty"`
}

// CalculateResult aligns with the HTTP CalculateResponse.
type CalculateResult struct {
	Machine string `json:"machine" jsonschema_description:"The machine that was run"`
	State   string `json:"state" jsonschema_description:"The final state"`
	Output  any    `json:"output" jsonschema_description:"The output mapped to the final state, null when unmapped"`
}

// MachineArgs select a machine by name.
type MachineArgs struct {
	Machine string `json:"machine"`
}

// ValidateResult lists the structural findings of a machine.
type ValidateResult struct {
	Machine     string              `json:"machine"`
	Valid       bool                `json:"valid"`
	Diagnostics []domain.Diagnostic `json:"diagnostics"`
}

// FeedArgs are the arguments of the feed tool.
type FeedArgs struct {
	SessionID string `json:"session_id"`
	Machine   string `json:"machine,omitempty"`
	Input     string `json:"input,omitempty"`
	Items     []any  `json:"items,omitempty"`
}

// FeedResult is where a session stands after a feed.
type FeedResult struct {
	SessionID string `json:"session_id"`
	Machine   string `json:"machine"`
	State     string `json:"state"`
	Steps     int    `json:"steps"`
	Output    any    `json:"output"`
	Trap      string `json:"trap,omitempty"`
}

// Server exposes a catalog of machines as an MCP Server.
type Server struct {
	catalog   ports.Catalog
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithSessions adds the feed tool backed by m.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) { s.sessions = m }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(catalog ports.Catalog, opts ...Option) *Server {
	s := &Server{
		catalog:   catalog,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("automata-mcp", strings.TrimSpace(automata.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and shuts it down
// when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: calculate
	s.mcpServer.AddTool(mcp.NewTool("calculate",
		mcp.WithDescription("Run a machine over an input and return its final state and output."),
		mcp.WithString("machine", mcp.Required(), mcp.Description("Name of the machine (see list_machines)")),
		mcp.WithString("input", mcp.Description("Input string, split by the machine's splitter")),
		mcp.WithArray("items", mcp.Description("Input symbols for machines using the list splitter")),
		mcp.WithOutputSchema[CalculateResult](),
	), mcp.NewStructuredToolHandler(s.handleCalculate))

	// TOOL: validate
	s.mcpServer.AddTool(mcp.NewTool("validate",
		mcp.WithDescription("Report unreachable states, missing transitions and ambiguous transitions of a machine."),
		mcp.WithString("machine", mcp.Required(), mcp.Description("Name of the machine")),
		mcp.WithOutputSchema[ValidateResult](),
	), mcp.NewStructuredToolHandler(s.handleValidate))

	// TOOL: graph
	s.mcpServer.AddTool(mcp.NewTool("graph",
		mcp.WithDescription("Render a machine as a Mermaid diagram or as a YAML/JSON definition."),
		mcp.WithString("machine", mcp.Required(), mcp.Description("Name of the machine")),
		mcp.WithString("format", mcp.Enum("mermaid", "yaml", "json"), mcp.Description("Output format (default mermaid)")),
	), s.handleGraph)

	// TOOL: list_machines
	s.mcpServer.AddTool(mcp.NewTool("list_machines",
		mcp.WithDescription("List the names of the registered machines."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.catalog.Names())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	if s.sessions != nil {
		// TOOL: feed
		s.mcpServer.AddTool(mcp.NewTool("feed",
			mcp.WithDescription("Feed input to a persistent session, starting it with machine if needed."),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
			mcp.WithString("machine", mcp.Description("Machine to start the session with (optional for existing sessions)")),
			mcp.WithString("input", mcp.Description("Input string")),
			mcp.WithArray("items", mcp.Description("Input symbols for machines using the list splitter")),
			mcp.WithOutputSchema[FeedResult](),
		), mcp.NewStructuredToolHandler(s.handleFeed))
	}
}

func (s *Server) handleCalculate(ctx context.Context, request mcp.CallToolRequest, args CalculateArgs) (CalculateResult, error) {
	m, err := s.catalog.New(args.Machine)
	if err != nil {
		return CalculateResult{}, err
	}

	out, err := m.Calculate(ctx, toolInput(args.Input, args.Items))
	if err != nil {
		s.logger.Debug("MCP Calculate: rejected", "machine", args.Machine, "err", err)
		return CalculateResult{}, fmt.Errorf("calculate failed: %w", err)
	}

	return CalculateResult{
		Machine: args.Machine,
		State:   m.CurrentState().Name,
		Output:  out,
	}, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args MachineArgs) (ValidateResult, error) {
	m, err := s.catalog.New(args.Machine)
	if err != nil {
		return ValidateResult{}, err
	}
	diags := m.Validate()
	if diags == nil {
		diags = []domain.Diagnostic{}
	}
	return ValidateResult{Machine: args.Machine, Valid: len(diags) == 0, Diagnostics: diags}, nil
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("machine", "")
	bp, err := s.catalog.Get(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	switch format := request.GetString("format", "mermaid"); format {
	case "", "mermaid":
		return mcp.NewToolResultText(graph.GenerateMermaid(bp, nil)), nil
	default:
		data, err := compiler.Encode(bp, format)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func (s *Server) handleFeed(ctx context.Context, request mcp.CallToolRequest, args FeedArgs) (FeedResult, error) {
	if args.SessionID == "" {
		return FeedResult{}, errors.New("session_id is required")
	}
	res, err := s.sessions.Feed(ctx, args.SessionID, args.Machine, toolInput(args.Input, args.Items))
	if err != nil {
		s.logger.Warn("MCP Feed: rejected", "session_id", args.SessionID, "err", err)
		return FeedResult{}, fmt.Errorf("feed failed: %w", err)
	}

	out := FeedResult{
		SessionID: res.Run.SessionID,
		Machine:   res.Run.Machine,
		State:     res.Run.State.Name,
		Steps:     res.Run.Steps,
		Output:    res.Output,
	}
	if res.Trap != nil {
		out.Trap = res.Trap.Error()
	}
	return out, nil
}

func (s *Server) registerResources() {
	// EXPOSE: automata://machines
	s.mcpServer.AddResource(mcp.NewResource(MachinesURI, "Registered Machines",
		mcp.WithResourceDescription("Name, initial state and splitter of every registered machine"),
		mcp.WithMIMEType("application/json"),
	), s.readMachines)
}

type machineSummary struct {
	Name     string `json:"name"`
	Initial  string `json:"initial"`
	Splitter string `json:"splitter,omitempty"`
	Rules    int    `json:"rules"`
}

func (s *Server) readMachines(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	var summaries []machineSummary
	for _, name := range s.catalog.Names() {
		bp, err := s.catalog.Get(name)
		if err != nil {
			continue
		}
		summaries = append(summaries, machineSummary{
			Name:     name,
			Initial:  bp.Initial.Name,
			Splitter: bp.SplitterName,
			Rules:    bp.Table.Len(),
		})
	}
	jsonBytes, err := json.Marshal(summaries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode machines: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      MachinesURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

// toolInput picks the list input when given and converts JSON numbers to
// integers where they are integral.
func toolInput(input string, items []any) any {
	if items == nil {
		return input
	}
	out := make([]any, len(items))
	for i, item := range items {
		if f, ok := item.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			out[i] = int64(f)
			continue
		}
		out[i] = item
	}
	return out
}
