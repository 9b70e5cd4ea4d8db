package typeset

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-typeset/internal/config"
	"github.com/sammcj/mcp-typeset/internal/typography"
)

// SettingsFunc supplies the defaults a tool applies to omitted parameters
type SettingsFunc func() *config.Settings

func (f SettingsFunc) get() *config.Settings {
	if f == nil {
		return config.GetGlobalSettings()
	}
	if s := f(); s != nil {
		return s
	}
	return config.Defaults()
}

// optionParameters are the engine options accepted by both tools
func optionParameters() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("mode",
			mcp.Description("Quote conversion mode. 'implicit' infers direction from the preceding character; 'explicit' converts LaTeX-style ``double'' and `single' markers"),
			mcp.Enum("implicit", "explicit"),
		),
		mcp.WithBoolean("escapes",
			mcp.Description("Keep a straight quote that is preceded by a backslash and remove the backslash (implicit mode only)"),
		),
		mcp.WithString("curly_quotes",
			mcp.Description("What to do with quotes that are already curly: 'keep' them or 'drop' them (implicit mode only)"),
			mcp.Enum("keep", "drop"),
		),
		mcp.WithBoolean("normalise",
			mcp.Description("Apply Unicode NFC normalisation before converting"),
		),
	}
}

// parseOptions reads the engine options from args, falling back to settings
func parseOptions(args map[string]any, settings *config.Settings) (typography.Options, error) {
	opts := settings.Options()

	if v, exists := args["mode"]; exists {
		s, ok := v.(string)
		if !ok {
			return opts, fmt.Errorf("invalid mode parameter: must be a string")
		}
		mode, err := typography.ParseMode(s)
		if err != nil {
			return opts, err
		}
		opts.Mode = mode
	}

	if v, exists := args["curly_quotes"]; exists {
		s, ok := v.(string)
		if !ok {
			return opts, fmt.Errorf("invalid curly_quotes parameter: must be a string")
		}
		policy, err := typography.ParseCurlyPolicy(s)
		if err != nil {
			return opts, err
		}
		opts.Curly = policy
	}

	if v, exists := args["escapes"]; exists {
		b, ok := v.(bool)
		if !ok {
			return opts, fmt.Errorf("invalid escapes parameter: must be a boolean")
		}
		opts.Escapes = b
	}

	if v, exists := args["normalise"]; exists {
		b, ok := v.(bool)
		if !ok {
			return opts, fmt.Errorf("invalid normalise parameter: must be a boolean")
		}
		opts.Normalise = b
	}

	return opts, nil
}
