package registry

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sammcj/mcp-typeset/internal/tools"
	"github.com/sirupsen/logrus"
)

var (
	// toolRegistry maps tool names to implementations
	toolRegistry = make(map[string]tools.Tool)

	// disabledTools is the set of tool names disabled via DISABLED_TOOLS
	disabledTools = make(map[string]bool)

	logger *logrus.Logger
	cache  *sync.Map

	mu sync.RWMutex
)

// additionalTools are registered only when named in ENABLE_ADDITIONAL_TOOLS.
// Tools that write to disk belong here.
var additionalTools = []string{
	"typeset_file",
}

// Init initialises the registry and shared resources
func Init(l *logrus.Logger) {
	mu.Lock()
	defer mu.Unlock()

	logger = l
	cache = &sync.Map{}
	parseDisabledTools()
}

// parseDisabledTools reads the comma separated DISABLED_TOOLS list. Caller must hold mu.
func parseDisabledTools() {
	disabledTools = make(map[string]bool)

	for tool := range strings.SplitSeq(os.Getenv("DISABLED_TOOLS"), ",") {
		tool = strings.TrimSpace(tool)
		if tool == "" {
			continue
		}
		disabledTools[tool] = true
		if logger != nil {
			logger.WithField("tool", tool).Debug("Tool disabled")
		}
	}
}

// normaliseToolName lowercases and maps underscores to hyphens so that
// "typeset_file" and "Typeset-File" compare equal
func normaliseToolName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-"))
}

func requiresEnablement(toolName string) bool {
	normalised := normaliseToolName(toolName)
	for _, tool := range additionalTools {
		if normaliseToolName(tool) == normalised {
			return true
		}
	}
	return false
}

// isToolEnabled checks ENABLE_ADDITIONAL_TOOLS, which may be "all"
func isToolEnabled(toolName string) bool {
	enabledTools := os.Getenv("ENABLE_ADDITIONAL_TOOLS")
	if enabledTools == "" {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(enabledTools), "all") {
		return true
	}

	normalised := normaliseToolName(toolName)
	for tool := range strings.SplitSeq(enabledTools, ",") {
		if normaliseToolName(tool) == normalised {
			return true
		}
	}
	return false
}

// ShouldRegisterTool reports whether a tool is available. An explicit
// DISABLED_TOOLS entry wins over ENABLE_ADDITIONAL_TOOLS.
func ShouldRegisterTool(toolName string) bool {
	mu.RLock()
	disabled := disabledTools[toolName]
	mu.RUnlock()

	if disabled {
		return false
	}
	if requiresEnablement(toolName) {
		return isToolEnabled(toolName)
	}
	return true
}

// Register adds a tool implementation to the registry. Registration is
// unconditional; availability is decided at lookup time so that tests and
// late environment changes are honoured.
func Register(tool tools.Tool) {
	toolName := tool.Definition().Name

	mu.Lock()
	defer mu.Unlock()

	toolRegistry[toolName] = tool
	if logger != nil {
		logger.WithField("tool", toolName).Debug("Tool registered")
	}
}

// GetTool retrieves an enabled tool by name
func GetTool(name string) (tools.Tool, bool) {
	if !ShouldRegisterTool(name) {
		return nil, false
	}

	mu.RLock()
	defer mu.RUnlock()
	tool, ok := toolRegistry[name]
	return tool, ok
}

// GetEnabledTools returns all tools that should be exposed to clients
func GetEnabledTools() map[string]tools.Tool {
	mu.RLock()
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	mu.RUnlock()

	enabled := make(map[string]tools.Tool)
	for _, name := range names {
		if tool, ok := GetTool(name); ok {
			enabled[name] = tool
		}
	}
	return enabled
}

// GetEnabledToolNames returns a sorted list of enabled tool names
func GetEnabledToolNames() []string {
	enabled := GetEnabledTools()
	names := make([]string, 0, len(enabled))
	for name := range enabled {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetLogger returns the shared logger instance
func GetLogger() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// GetCache returns the shared cache instance
func GetCache() *sync.Map {
	mu.RLock()
	defer mu.RUnlock()
	return cache
}
