package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Lokiragnarock/srm-cia-survey/internal/presentation/graph"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/runner"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/session"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// Resource URIs.
const (
	GraphURI   = "survey://graph"
	MermaidURI = "survey://graph.mmd"
)

// StepResponse is the structured result of every navigation tool.
type StepResponse struct {
	View      *runner.View      `json:"view" jsonschema_description:"What the respondent sees now"`
	Submitted bool              `json:"submitted" jsonschema_description:"True when this step recorded the responses"`
	Undone    *bool             `json:"undone,omitempty" jsonschema_description:"Set by retreat; false when there was nothing to undo"`
	Diff      *domain.StateDiff `json:"diff,omitempty" jsonschema_description:"Changes made by this step"`
}

// PeekResponse is the result of peek_next.
type PeekResponse struct {
	Label domain.NextLabel `json:"label" jsonschema_description:"continue or submit"`
}

// Server exposes a session manager as an MCP server.
type Server struct {
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
	maxInput  int
	version   string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version advertised to clients.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithMaxInputSize sets the maximum accepted answer size in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInput = n
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("survey-mcp", s.version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
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
	s.mcpServer.AddTool(mcp.NewTool("start_survey",
		mcp.WithDescription("Start a survey session, or resume it when it already exists."),
		mcp.WithString("session_id", mcp.Description("Session identifier (generated when omitted)")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("advance",
		mcp.WithDescription("Answer the current question and move on. Informational nodes accept an empty answer."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("answer", mcp.Description("Answer text or choice label")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleAdvance))

	s.mcpServer.AddTool(mcp.NewTool("retreat",
		mcp.WithDescription("Go back to the previous question. Answers are kept."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleRetreat))

	s.mcpServer.AddTool(mcp.NewTool("submit",
		mcp.WithDescription("Retry the submission of a finished session the sink rejected earlier."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleSubmit))

	s.mcpServer.AddTool(mcp.NewTool("peek_next",
		mcp.WithDescription("Tell whether answering the current question with answer would submit the survey."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("answer", mcp.Description("Candidate answer")),
		mcp.WithOutputSchema[PeekResponse](),
	), mcp.NewStructuredToolHandler(s.handlePeek))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the question graph for introspection."),
		mcp.WithString("format", mcp.Description("json (default) or mermaid"), mcp.Enum("json", "mermaid")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if request.GetString("format", "json") == "mermaid" {
			return mcp.NewToolResultText(s.mermaid()), nil
		}
		data, err := s.graphJSON()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode graph: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (StepResponse, error) {
	id := stringArg(args, "session_id")
	if id == "" {
		id = uuid.NewString()
	}
	out, err := s.sessions.LoadOrStart(ctx, id)
	if err != nil {
		return StepResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return s.step(out, nil)
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (StepResponse, error) {
	raw := stringArg(args, "answer")
	answer, err := runner.CleanAnswer(raw, s.maxInput)
	if err != nil {
		s.logger.Warn("MCP Advance: Input rejected", "err", err, "size", len(raw))
		return StepResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	out, err := s.sessions.Advance(ctx, stringArg(args, "session_id"), answer)
	if err != nil {
		return StepResponse{}, fmt.Errorf("advance failed: %w", err)
	}
	return s.step(out, nil)
}

func (s *Server) handleRetreat(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (StepResponse, error) {
	out, undone, err := s.sessions.Retreat(ctx, stringArg(args, "session_id"))
	if err != nil {
		return StepResponse{}, fmt.Errorf("retreat failed: %w", err)
	}
	return s.step(out, &undone)
}

func (s *Server) handleSubmit(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (StepResponse, error) {
	out, err := s.sessions.Submit(ctx, stringArg(args, "session_id"))
	if err != nil {
		return StepResponse{}, fmt.Errorf("submit failed: %w", err)
	}
	return s.step(out, nil)
}

func (s *Server) handlePeek(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (PeekResponse, error) {
	state, err := s.sessions.Load(ctx, stringArg(args, "session_id"))
	if err != nil {
		return PeekResponse{}, fmt.Errorf("peek failed: %w", err)
	}
	return PeekResponse{Label: s.sessions.Engine().PeekNextLabel(state, stringArg(args, "answer"))}, nil
}

func (s *Server) step(out *session.Outcome, undone *bool) (StepResponse, error) {
	view, err := runner.NewView(s.sessions.Engine(), out.State)
	if err != nil {
		return StepResponse{}, err
	}
	return StepResponse{
		View:      view,
		Submitted: out.Submission != nil,
		Undone:    undone,
		Diff:      domain.Diff(out.Previous, out.State),
	}, nil
}

func (s *Server) graphJSON() ([]byte, error) {
	return json.Marshal(s.sessions.Engine().Graph().Nodes())
}

func (s *Server) mermaid() string {
	return graph.GenerateMermaid(s.sessions.Engine().Graph(), nil)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Question Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := s.graphJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to encode graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: GraphURI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(MermaidURI, "Question Graph (Mermaid)",
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: MermaidURI, MIMEType: "text/vnd.mermaid", Text: s.mermaid()},
		}, nil
	})
}
