package tools

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ToolErrorLogEntry is one line of the tool error log
type ToolErrorLogEntry struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Error     string         `json:"error"`
	Transport string         `json:"transport,omitempty"`
}

// ToolErrorLogger appends failed tool executions to a JSON lines file
type ToolErrorLogger struct {
	enabled  bool
	logFile  *os.File
	logger   *logrus.Logger
	mu       sync.Mutex
	filePath string
}

const (
	// DefaultLogRetentionDays is how long error log entries are kept
	DefaultLogRetentionDays = 60
	// LogToolErrorsEnvVar enables the tool error log when set to "true"
	LogToolErrorsEnvVar = "LOG_TOOL_ERRORS"

	// maxLoggedTextLength caps string arguments written to the log
	maxLoggedTextLength = 200
)

var (
	globalErrorLogger *ToolErrorLogger
	errorLoggerOnce   sync.Once
)

// NewToolErrorLogger opens (or creates) the log file at path and drops
// entries older than the retention period
func NewToolErrorLogger(path string, logger *logrus.Logger) (*ToolErrorLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &ToolErrorLogger{
		enabled:  true,
		logger:   logger,
		filePath: path,
	}
	if err := l.rotateOldLogs(time.Now().AddDate(0, 0, -DefaultLogRetentionDays)); err != nil {
		return nil, err
	}
	return l, nil
}

// InitGlobalErrorLogger initialises the global error logger under logDir
// when LOG_TOOL_ERRORS=true
func InitGlobalErrorLogger(logDir string, logger *logrus.Logger) error {
	var initErr error
	errorLoggerOnce.Do(func() {
		if os.Getenv(LogToolErrorsEnvVar) != "true" {
			globalErrorLogger = &ToolErrorLogger{logger: logger}
			return
		}

		l, err := NewToolErrorLogger(filepath.Join(logDir, "tool-errors.log"), logger)
		if err != nil {
			initErr = err
			return
		}
		globalErrorLogger = l
		logger.Infof("Tool error logging enabled: %s", l.filePath)
	})
	return initErr
}

// GetGlobalErrorLogger returns the global error logger, or a disabled one
// if it has not been initialised
func GetGlobalErrorLogger() *ToolErrorLogger {
	if globalErrorLogger == nil {
		return &ToolErrorLogger{}
	}
	return globalErrorLogger
}

// LogToolError records a failed tool execution. Long string arguments are
// truncated so that whole documents do not end up in the log.
func (l *ToolErrorLogger) LogToolError(toolName string, args map[string]any, err error, transport string) {
	if !l.enabled {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile == nil {
		return
	}

	entry := ToolErrorLogEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().Format(time.RFC3339),
		ToolName:  toolName,
		Arguments: truncateArgs(args),
		Error:     err.Error(),
		Transport: transport,
	}

	data, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		l.logError(marshalErr, "Failed to marshal tool error log entry")
		return
	}
	if _, writeErr := l.logFile.Write(append(data, '\n')); writeErr != nil {
		l.logError(writeErr, "Failed to write tool error log entry")
	}
}

func (l *ToolErrorLogger) logError(err error, msg string) {
	if l.logger != nil {
		l.logger.WithError(err).Error(msg)
	}
}

func truncateArgs(args map[string]any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok && len(s) > maxLoggedTextLength {
			cut := maxLoggedTextLength
			for cut > 0 && !utf8.RuneStart(s[cut]) {
				cut--
			}
			v = s[:cut] + "..."
		}
		out[k] = v
	}
	return out
}

// Close closes the log file
func (l *ToolErrorLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile == nil {
		return nil
	}
	err := l.logFile.Close()
	l.logFile = nil
	return err
}

// IsEnabled reports whether errors are being recorded
func (l *ToolErrorLogger) IsEnabled() bool {
	return l.enabled
}

// GetLogFilePath returns the path of the log file
func (l *ToolErrorLogger) GetLogFilePath() string {
	return l.filePath
}

// rotateOldLogs rewrites the log keeping only entries newer than cutoff,
// then reopens it for appending. Malformed lines are kept.
func (l *ToolErrorLogger) rotateOldLogs(cutoff time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		if err := l.logFile.Close(); err != nil {
			return fmt.Errorf("failed to close log file for rotation: %w", err)
		}
		l.logFile = nil
	}

	file, err := os.Open(l.filePath)
	if err != nil {
		return l.reopenLogFileLocked()
	}

	var kept []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry ToolErrorLogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			kept = append(kept, line)
			continue
		}
		ts, err := time.Parse(time.RFC3339, entry.Timestamp)
		if err != nil || ts.After(cutoff) {
			kept = append(kept, line)
		}
	}
	scanErr := scanner.Err()
	_ = file.Close()

	if scanErr != nil {
		_ = l.reopenLogFileLocked()
		return fmt.Errorf("error reading log file during rotation: %w", scanErr)
	}

	var content string
	if len(kept) > 0 {
		content = strings.Join(kept, "\n") + "\n"
	}

	tmpPath := l.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0600); err != nil {
		_ = l.reopenLogFileLocked()
		return fmt.Errorf("failed to write temporary rotated log file: %w", err)
	}
	if err := os.Rename(tmpPath, l.filePath); err != nil {
		_ = os.Remove(tmpPath)
		_ = l.reopenLogFileLocked()
		return fmt.Errorf("failed to rename temporary log file during rotation: %w", err)
	}

	return l.reopenLogFileLocked()
}

// reopenLogFileLocked opens the log file for appending. Caller must hold l.mu.
func (l *ToolErrorLogger) reopenLogFileLocked() error {
	logFile, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to reopen log file: %w", err)
	}
	l.logFile = logFile
	return nil
}
