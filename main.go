package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/sammcj/mcp-typeset/internal/cli"
	"github.com/sammcj/mcp-typeset/internal/config"
	"github.com/sammcj/mcp-typeset/internal/console"
	"github.com/sammcj/mcp-typeset/internal/registry"
	"github.com/sammcj/mcp-typeset/internal/typography"
	"github.com/sirupsen/logrus"
	ucli "github.com/urfave/cli/v3"

	// Import all tool packages to register them
	_ "github.com/sammcj/mcp-typeset/internal/imports"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// parseLogLevel parses the LOG_LEVEL environment variable, defaulting to WarnLevel
func parseLogLevel() logrus.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.WarnLevel
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(parseLogLevel())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := config.LoadDotEnv(); err != nil {
		logger.WithError(err).Warn("Ignoring .env file")
	}

	registry.Init(logger)

	app := newApp(logger)
	if err := app.Run(ctx, os.Args); err != nil {
		// stdio MCP sessions must not see anything on stdout/stderr
		if !isStdioMode.Load() {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newApp(logger *logrus.Logger) *ucli.Command {
	return &ucli.Command{
		Name:  "mcp-typeset",
		Usage: "Typeset quotes, dashes and ellipses in plain text",
		Description: `Reads text from the terminal until a line containing only the sentinel
("exit" by default), or until EOF when input is piped, and prints it with
curly quotes, en/em dashes and ellipses.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []ucli.Flag{
			&ucli.StringFlag{
				Name:    "config",
				Usage:   "Path to the settings file",
				Value:   config.DefaultPath(),
				Sources: ucli.EnvVars(config.ConfigPathEnvVar),
			},
			&ucli.BoolFlag{
				Name:    "explicit",
				Aliases: []string{"e"},
				Usage:   "Convert LaTeX-style ``double'' and `single' quote markers instead of inferring direction",
			},
			&ucli.BoolFlag{
				Name:  "escapes",
				Usage: `Keep quotes preceded by a backslash straight (\" stays ")`,
			},
			&ucli.StringFlag{
				Name:  "curly-quotes",
				Usage: "What to do with quotes that are already curly: keep or drop",
			},
			&ucli.BoolFlag{
				Name:  "normalise",
				Usage: "Apply Unicode NFC normalisation before converting",
			},
			&ucli.StringFlag{
				Name:  "sentinel",
				Usage: "Line that ends console input",
			},
			&ucli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Read text from a file instead of the console",
			},
			&ucli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the result to a file instead of stdout",
			},
		},
		Action: func(ctx context.Context, cmd *ucli.Command) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			return runConsole(cmd, settings, logger)
		},
		Commands: []*ucli.Command{
			serveCommand(logger),
			toolsCommand(logger),
			configCommand(),
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(ctx context.Context, cmd *ucli.Command) error {
					fmt.Printf("mcp-typeset version %s\n", Version)
					fmt.Printf("Commit: %s\n", Commit)
					fmt.Printf("Built: %s\n", BuildDate)
					return nil
				},
			},
		},
	}
}

// loadSettings layers command line flags over the settings file and
// environment, then installs the result for the tools
func loadSettings(cmd *ucli.Command) (*config.Settings, error) {
	settings, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("explicit") {
		settings.Mode = typography.Implicit.String()
		if cmd.Bool("explicit") {
			settings.Mode = typography.Explicit.String()
		}
	}
	if cmd.IsSet("escapes") {
		settings.Escapes = cmd.Bool("escapes")
	}
	if cmd.IsSet("curly-quotes") {
		settings.CurlyQuotes = cmd.String("curly-quotes")
	}
	if cmd.IsSet("normalise") {
		settings.Normalise = cmd.Bool("normalise")
	}
	if cmd.IsSet("sentinel") {
		settings.Sentinel = cmd.String("sentinel")
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	config.SetGlobalSettings(settings)
	return settings, nil
}

// runConsole reads the whole input, converts it once and writes the result
func runConsole(cmd *ucli.Command, settings *config.Settings, logger *logrus.Logger) error {
	reader := console.NewStdinReader(settings.Sentinel)

	var text string
	if path := cmd.String("input"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		text = string(data)
		reader = console.NewReader(nil, os.Stderr, settings.Sentinel, false)
	} else {
		var err error
		if text, err = reader.ReadAll(); err != nil {
			return err
		}
	}

	length := utf8.RuneCountInString(text)
	if length > settings.MaxLength {
		return fmt.Errorf("input exceeds maximum length of %d characters (got %d)", settings.MaxLength, length)
	}

	opts := settings.Options()
	result := typography.Transform(text, opts)

	logger.WithFields(logrus.Fields{
		"mode":        opts.Mode.String(),
		"escapes":     opts.Escapes,
		"curly":       opts.Curly.String(),
		"text_length": length,
	}).Debug("Input typeset")

	if path := cmd.String("output"); path != "" {
		if err := os.WriteFile(path, []byte(result), 0600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	return reader.WriteResult(os.Stdout, result)
}

func toolsCommand(logger *logrus.Logger) *ucli.Command {
	newRunner := func(cmd *ucli.Command) (*cli.Runner, error) {
		if _, err := loadSettings(cmd); err != nil {
			return nil, err
		}
		format, err := cli.ParseOutputFormat(cmd.String("format"))
		if err != nil {
			return nil, err
		}
		return cli.NewRunner(logger, registry.GetCache(), format, os.Stdout), nil
	}

	return &ucli.Command{
		Name:  "tools",
		Usage: "Run the MCP tools directly from the command line",
		Flags: []ucli.Flag{
			&ucli.StringFlag{
				Name:  "format",
				Value: string(cli.OutputText),
				Usage: "Output format (text or json)",
			},
		},
		Commands: []*ucli.Command{
			{
				Name:  "list",
				Usage: "List the enabled tools",
				Action: func(ctx context.Context, cmd *ucli.Command) error {
					runner, err := newRunner(cmd)
					if err != nil {
						return err
					}
					return runner.ListTools()
				},
			},
			{
				Name:      "help",
				Usage:     "Show a tool's parameters and examples",
				ArgsUsage: "<tool>",
				Action: func(ctx context.Context, cmd *ucli.Command) error {
					if cmd.Args().Len() != 1 {
						return errors.New("usage: mcp-typeset tools help <tool>")
					}
					runner, err := newRunner(cmd)
					if err != nil {
						return err
					}
					return runner.HelpTool(cmd.Args().First())
				},
			},
			{
				Name:            "run",
				Usage:           "Run a tool with --key=value flags or a JSON object",
				ArgsUsage:       "<tool> [--param=value ...] ['{\"param\": \"value\"}']",
				SkipFlagParsing: true,
				Action: func(ctx context.Context, cmd *ucli.Command) error {
					args := cmd.Args().Slice()
					if len(args) == 0 {
						return errors.New("usage: mcp-typeset tools run <tool> [args...]")
					}
					runner, err := newRunner(cmd)
					if err != nil {
						return err
					}
					return runner.RunTool(ctx, args[0], args[1:])
				},
			},
		},
	}
}

func configCommand() *ucli.Command {
	return &ucli.Command{
		Name:  "config",
		Usage: "Inspect or create the settings file",
		Commands: []*ucli.Command{
			{
				Name:  "show",
				Usage: "Print the effective settings as YAML",
				Action: func(ctx context.Context, cmd *ucli.Command) error {
					settings, err := loadSettings(cmd)
					if err != nil {
						return err
					}
					data, err := settings.Marshal()
					if err != nil {
						return err
					}
					_, err = os.Stdout.Write(data)
					return err
				},
			},
			{
				Name:  "init",
				Usage: "Write the default settings to the settings file",
				Flags: []ucli.Flag{
					&ucli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing settings file",
					},
				},
				Action: func(ctx context.Context, cmd *ucli.Command) error {
					path := cmd.String("config")
					if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
						return fmt.Errorf("settings file already exists at %s (use --force to overwrite)", path)
					}
					if err := config.Defaults().Save(path); err != nil {
						return err
					}
					fmt.Printf("Settings written to %s\n", path)
					return nil
				},
			},
		},
	}
}
