package typeset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-typeset/internal/registry"
	"github.com/sammcj/mcp-typeset/internal/typography"
	"github.com/sirupsen/logrus"
)

// FileTool converts a file in place
type FileTool struct {
	Settings SettingsFunc
}

func init() {
	registry.Register(&FileTool{})
}

// Definition returns the tool's definition for MCP registration
func (f *FileTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(`Typeset the punctuation of a text file in place. Straight quotes become curly quotes, "--" becomes an en dash, "---" an em dash and "..." an ellipsis.

The file is only written when something changed.`),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Fully qualified absolute path to the file to update in place"),
		),
	}
	opts = append(opts, optionParameters()...)
	opts = append(opts,
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)
	return mcp.NewTool("typeset_file", opts...)
}

// Execute converts the file named by file_path
func (f *FileTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	request, err := f.parseRequest(args)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	response, err := f.convertFile(request)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"file_path":     response.FilePath,
		"file_size":     response.Length,
		"mode":          response.Mode,
		"changes_count": response.ChangesCount,
	}).Info("File processed for typesetting")

	if !response.Updated {
		return mcp.NewToolResultText(fmt.Sprintf("No changes needed for file %s\n\nFile size: %d characters\nChanges made: 0",
			response.FilePath, response.Length)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Successfully updated file %s\n\nFile size: %d characters\nMode: %s\nChanges made: %d",
		response.FilePath, response.Length, response.Mode, response.ChangesCount)), nil
}

func (f *FileTool) convertFile(request *ConvertRequest) (*ConvertResponse, error) {
	info, err := os.Stat(request.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %s: %w", request.FilePath, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", request.FilePath)
	}

	content, err := os.ReadFile(request.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", request.FilePath, err)
	}

	maxLength := f.Settings.get().MaxLength
	length := utf8.RuneCount(content)
	if length > maxLength {
		return nil, fmt.Errorf("file content exceeds maximum length of %d characters (got %d)", maxLength, length)
	}

	original := string(content)
	converted := typography.Transform(original, request.Options)

	response := &ConvertResponse{
		FilePath:     request.FilePath,
		Mode:         request.Options.Mode.String(),
		Length:       length,
		ChangesCount: countChanges(original, converted),
	}

	if converted != original {
		if err := os.WriteFile(request.FilePath, []byte(converted), info.Mode().Perm()); err != nil {
			return nil, fmt.Errorf("failed to write file %s: %w", request.FilePath, err)
		}
		response.Updated = true
	}
	return response, nil
}

func (f *FileTool) parseRequest(args map[string]any) (*ConvertRequest, error) {
	filePath, ok := args["file_path"].(string)
	if !ok || strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("missing or invalid required parameter: file_path")
	}
	if !filepath.IsAbs(filePath) {
		return nil, fmt.Errorf("file_path must be a fully qualified absolute path, got: %s", filePath)
	}

	opts, err := parseOptions(args, f.Settings.get())
	if err != nil {
		return nil, err
	}

	return &ConvertRequest{FilePath: filepath.Clean(filePath), Options: opts}, nil
}
