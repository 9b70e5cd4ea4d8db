package typeset

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-typeset/internal/registry"
	"github.com/sammcj/mcp-typeset/internal/tools"
	"github.com/sammcj/mcp-typeset/internal/typography"
	"github.com/sirupsen/logrus"
)

// TextTool converts text supplied inline and returns the result
type TextTool struct {
	Settings SettingsFunc
}

func init() {
	registry.Register(&TextTool{})
}

// Definition returns the tool's definition for MCP registration
func (t *TextTool) Definition() mcp.Tool {
	maxLen := t.Settings.get().MaxLength
	opts := []mcp.ToolOption{
		mcp.WithDescription(fmt.Sprintf(`Typeset plain ASCII punctuation. Straight quotes become curly quotes, "--" becomes an en dash, "---" an em dash and "..." an ellipsis.

Returns the converted text. Maximum text length is %d characters.`, maxLen)),
		mcp.WithString("text",
			mcp.Required(),
			mcp.MaxLength(maxLen),
			mcp.Description("Text to convert"),
		),
	}
	opts = append(opts, optionParameters()...)
	opts = append(opts,
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
	return mcp.NewTool("typeset_text", opts...)
}

// Execute converts the text argument
func (t *TextTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	request, err := t.parseRequest(args)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	length := utf8.RuneCountInString(request.Text)
	converted := typography.Transform(request.Text, request.Options)
	changesCount := countChanges(request.Text, converted)

	logger.WithFields(logrus.Fields{
		"mode":          request.Options.Mode.String(),
		"text_length":   length,
		"changes_count": changesCount,
	}).Debug("Text typeset")

	return mcp.NewToolResultText(fmt.Sprintf("Typeset %d characters in %s mode.\nChanges made: %d\n\nConverted text:\n%s",
		length, request.Options.Mode, changesCount, converted)), nil
}

func (t *TextTool) parseRequest(args map[string]any) (*ConvertRequest, error) {
	settings := t.Settings.get()

	text, ok := args["text"].(string)
	if !ok || text == "" {
		return nil, fmt.Errorf("missing or invalid required parameter: text")
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text parameter cannot be empty")
	}
	if n := utf8.RuneCountInString(text); n > settings.MaxLength {
		return nil, fmt.Errorf("text exceeds maximum length of %d characters (got %d)", settings.MaxLength, n)
	}

	opts, err := parseOptions(args, settings)
	if err != nil {
		return nil, err
	}

	return &ConvertRequest{Text: text, Options: opts}, nil
}

// ProvideExtendedInfo documents the conversion rules
func (t *TextTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description:    "Infer quote direction from context",
				Arguments:      map[string]any{"text": `She said "hi" to (him).`},
				ExpectedResult: "She said “hi” to (him).",
			},
			{
				Description:    "Dashes and ellipsis",
				Arguments:      map[string]any{"text": "wait...this---that--other"},
				ExpectedResult: "wait…this—that–other",
			},
			{
				Description:    "LaTeX-style markers",
				Arguments:      map[string]any{"text": "He said ``hello'' to `her'.", "mode": "explicit"},
				ExpectedResult: "He said “hello” to ‘her’.",
			},
			{
				Description:    "Escaped quotes stay straight",
				Arguments:      map[string]any{"text": `\"quoted\"`, "escapes": true},
				ExpectedResult: `"quoted"`,
			},
		},
		ParameterDetails: map[string]string{
			"mode":         "In implicit mode a straight quote opens after whitespace, ( [ { or ⟨ and at the start of the text; otherwise it closes. In explicit mode `` and ` open, '' and ' close, and a plain \" always closes.",
			"curly_quotes": "Only applies in implicit mode. Quotes that are already curly are never re-oriented.",
		},
		WhenToUse:    "Preparing prose for publication where typographic punctuation is wanted.",
		WhenNotToUse: "Source code, JSON or anything else where quotes and hyphens are syntax.",
	}
}
