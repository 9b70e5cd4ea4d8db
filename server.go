package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sammcj/mcp-typeset/internal/config"
	"github.com/sammcj/mcp-typeset/internal/registry"
	"github.com/sammcj/mcp-typeset/internal/tools"
	"github.com/sirupsen/logrus"
	ucli "github.com/urfave/cli/v3"
)

// Global resources that need cleanup
var (
	logFile     atomic.Pointer[os.File]
	isStdioMode atomic.Bool
)

func serveCommand(logger *logrus.Logger) *ucli.Command {
	return &ucli.Command{
		Name:  "serve",
		Usage: "Serve the typesetting tools over MCP",
		Flags: []ucli.Flag{
			&ucli.StringFlag{
				Name:    "transport",
				Aliases: []string{"t"},
				Value:   "stdio",
				Usage:   "Transport type (stdio, sse, or http)",
			},
			&ucli.StringFlag{
				Name:  "port",
				Value: "18080",
				Usage: "Port to use for HTTP transports (SSE and Streamable HTTP)",
			},
			&ucli.StringFlag{
				Name:  "base-url",
				Value: "http://localhost",
				Usage: "Base URL for HTTP transports",
			},
			&ucli.StringFlag{
				Name:    "auth-token",
				Usage:   "Bearer token required by the Streamable HTTP transport (optional)",
				Sources: ucli.EnvVars("TYPESET_AUTH_TOKEN"),
			},
			&ucli.StringFlag{
				Name:  "endpoint-path",
				Value: "/http",
				Usage: "Endpoint path for Streamable HTTP transport",
			},
			&ucli.DurationFlag{
				Name:  "session-timeout",
				Value: 30 * time.Minute,
				Usage: "Idle timeout for Streamable HTTP sessions",
			},
		},
		Action: func(ctx context.Context, cmd *ucli.Command) error {
			transport := cmd.String("transport")
			isStdioMode.Store(transport == "stdio")

			configureServerLogging(logger)
			defer performCleanup(logger)

			if _, err := loadSettings(cmd); err != nil {
				return err
			}

			if err := tools.InitGlobalErrorLogger(filepath.Join(config.HomeDir(), "logs"), logger); err != nil {
				logger.WithError(err).Warn("Failed to initialise tool error logger")
			}

			mcpSrv := newMCPServer(transport, logger)

			logger.WithField("transport", transport).Debug("Starting server")
			switch transport {
			case "stdio":
				return mcpserver.ServeStdio(mcpSrv)
			case "sse":
				port := cmd.String("port")
				logger.WithField("port", port).Info("Starting SSE server")
				sseServer := mcpserver.NewSSEServer(mcpSrv, mcpserver.WithBaseURL(cmd.String("base-url")+"/sse"))
				return sseServer.Start(":" + port)
			case "http":
				return startStreamableHTTPServer(ctx, cmd, mcpSrv, logger)
			default:
				return fmt.Errorf("unsupported transport: %s", transport)
			}
		},
	}
}

// configureServerLogging sends logs to ~/.mcp-typeset/logs/mcp-typeset.log.
// stdio transports fall back to io.Discard so the protocol stream stays clean.
func configureServerLogging(logger *logrus.Logger) {
	fallback := io.Writer(os.Stderr)
	if isStdioMode.Load() {
		fallback = io.Discard
		// stdio mode uses warn level minimum
		if logger.GetLevel() > logrus.WarnLevel {
			logger.SetLevel(logrus.WarnLevel)
		}
	}

	logDir := filepath.Join(config.HomeDir(), "logs")
	if err := os.MkdirAll(logDir, 0700); err != nil {
		logger.SetOutput(fallback)
		return
	}

	file, err := os.OpenFile(filepath.Join(logDir, "mcp-typeset.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		logger.SetOutput(fallback)
		return
	}

	logFile.Store(file)
	logger.SetOutput(file)
	logger.WithField("level", logger.GetLevel().String()).Debug("Logging configured")
}

// performCleanup closes the log files opened for serving
func performCleanup(logger *logrus.Logger) {
	if err := tools.GetGlobalErrorLogger().Close(); err != nil {
		logger.WithError(err).Warn("Failed to close tool error logger")
	}
	if file := logFile.Load(); file != nil {
		_ = file.Close()
	}
}

// newMCPServer creates the MCP server and registers every enabled tool
func newMCPServer(transport string, logger *logrus.Logger) *mcpserver.MCPServer {
	mcpSrv := mcpserver.NewMCPServer("mcp-typeset", Version)

	enabledTools := registry.GetEnabledTools()
	logger.WithField("tool_count", len(enabledTools)).Debug("MCP server created, registering tools")

	for name, tool := range enabledTools {
		mcpSrv.AddTool(tool.Definition(), toolHandler(name, transport, logger))
	}
	return mcpSrv
}

func toolHandler(name, transport string, logger *logrus.Logger) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tool, ok := registry.GetTool(name)
		if !ok {
			return nil, fmt.Errorf("tool not found: %s", name)
		}

		args, ok := request.Params.Arguments.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid arguments type: expected map[string]any, got %T", request.Params.Arguments)
		}

		result, err := tool.Execute(ctx, logger, registry.GetCache(), args)
		if err != nil {
			logger.WithError(err).WithField("tool", name).Error("Tool execution failed")
			if errorLogger := tools.GetGlobalErrorLogger(); errorLogger.IsEnabled() {
				errorLogger.LogToolError(name, args, err, transport)
			}
			return nil, fmt.Errorf("tool execution failed: %w", err)
		}
		return result, nil
	}
}

// startStreamableHTTPServer serves the streamable HTTP transport until ctx is cancelled
func startStreamableHTTPServer(ctx context.Context, cmd *ucli.Command, mcpServer *mcpserver.MCPServer, logger *logrus.Logger) error {
	port := cmd.String("port")
	endpointPath := cmd.String("endpoint-path")
	sessionTimeout := cmd.Duration("session-timeout")

	opts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(endpointPath),
		mcpserver.WithLogger(&logrusAdapter{logger: logger}),
	}

	heartbeatInterval := 30 * time.Second
	if sessionTimeout > 0 {
		opts = append(opts, mcpserver.WithSessionIdManager(NewTimeoutSessionManager(sessionTimeout, logger)))
		heartbeatInterval = sessionTimeout / 4
	}
	opts = append(opts, mcpserver.WithHeartbeatInterval(heartbeatInterval))

	if authToken := cmd.String("auth-token"); authToken != "" {
		logger.Info("Token authentication enabled")
	}

	mux := http.NewServeMux()
	mux.Handle(endpointPath, authMiddleware(cmd.String("auth-token"), logger, mcpserver.NewStreamableHTTPServer(mcpServer, opts...)))

	server := &http.Server{
		Addr:           ":" + port,
		Handler:        mux,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	logger.Infof("Starting Streamable HTTP server on port %s with endpoint %s", port, endpointPath)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
		return err
	}
	logger.Info("HTTP server stopped gracefully")
	return nil
}

// authMiddleware rejects requests with a foreign Origin (DNS rebinding) and,
// when expectedToken is set, requests without the matching bearer token
func authMiddleware(expectedToken string, logger *logrus.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if origin := req.Header.Get("Origin"); origin != "" && !isValidOrigin(origin) {
			logger.Warnf("Invalid Origin header: %s", origin)
			http.Error(w, "forbidden origin", http.StatusForbidden)
			return
		}

		if version := req.Header.Get("MCP-Protocol-Version"); version != "" && !isValidProtocolVersion(version) {
			logger.Warnf("Unsupported MCP Protocol Version: %s", version)
		}

		if expectedToken != "" {
			token, found := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer ")
			if !found || token != expectedToken {
				logger.Warn("Rejected request with missing or invalid bearer token")
				http.Error(w, "unauthorised", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, req)
	})
}

func isValidProtocolVersion(version string) bool {
	return slices.Contains([]string{"2025-06-18", "2025-03-26", "2024-11-05"}, version)
}

func isValidOrigin(origin string) bool {
	for _, allowed := range []string{"http://localhost", "https://localhost", "http://127.0.0.1", "https://127.0.0.1"} {
		if origin == allowed || strings.HasPrefix(origin, allowed+":") {
			return true
		}
	}
	return false
}

// TimeoutSessionManager issues UUID session IDs and expires sessions that
// have been idle for longer than timeout
type TimeoutSessionManager struct {
	timeout  time.Duration
	logger   *logrus.Logger
	now      func() time.Time
	mu       sync.Mutex
	lastSeen map[string]time.Time
}

// NewTimeoutSessionManager creates a session manager with the given idle timeout
func NewTimeoutSessionManager(timeout time.Duration, logger *logrus.Logger) *TimeoutSessionManager {
	return &TimeoutSessionManager{
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
		lastSeen: make(map[string]time.Time),
	}
}

func (t *TimeoutSessionManager) Generate() string {
	id := uuid.NewString()

	t.mu.Lock()
	t.lastSeen[id] = t.now()
	t.mu.Unlock()

	return id
}

// Validate reports whether the session has been terminated or has expired
func (t *TimeoutSessionManager) Validate(sessionID string) (isTerminated bool, err error) {
	if sessionID == "" {
		return false, fmt.Errorf("empty session ID")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	seen, ok := t.lastSeen[sessionID]
	if !ok {
		return false, fmt.Errorf("unknown session ID")
	}
	if t.now().Sub(seen) > t.timeout {
		delete(t.lastSeen, sessionID)
		t.logger.Debugf("Session expired: %s", sessionID)
		return true, nil
	}

	t.lastSeen[sessionID] = t.now()
	return false, nil
}

func (t *TimeoutSessionManager) Terminate(sessionID string) (isNotAllowed bool, err error) {
	t.mu.Lock()
	delete(t.lastSeen, sessionID)
	t.mu.Unlock()

	t.logger.Debugf("Session terminated: %s", sessionID)
	return false, nil
}

// logrusAdapter adapts logrus.Logger to the mcp-go util.Logger interface
type logrusAdapter struct {
	logger *logrus.Logger
}

func (l *logrusAdapter) Debugf(format string, args ...any) {
	l.logger.Debugf(format, args...)
}

func (l *logrusAdapter) Infof(format string, args ...any) {
	l.logger.Infof(format, args...)
}

func (l *logrusAdapter) Warnf(format string, args ...any) {
	l.logger.Warnf(format, args...)
}

func (l *logrusAdapter) Errorf(format string, args ...any) {
	l.logger.Errorf(format, args...)
}
