package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/sammcj/mcp-typeset/internal/typography"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxTextLength is the default maximum length for text input
	DefaultMaxTextLength = 40000
	// DefaultSentinel ends console input
	DefaultSentinel = "exit"

	// ConfigPathEnvVar overrides the location of the settings file
	ConfigPathEnvVar = "TYPESET_CONFIG_PATH"
)

// Environment variables that override values from the settings file
const (
	ModeEnvVar        = "TYPESET_MODE"
	EscapesEnvVar     = "TYPESET_ESCAPES"
	CurlyQuotesEnvVar = "TYPESET_CURLY_QUOTES"
	SentinelEnvVar    = "TYPESET_SENTINEL"
	NormaliseEnvVar   = "TYPESET_NORMALISE"
	MaxLengthEnvVar   = "TYPESET_MAX_LENGTH"
)

// Settings holds the defaults used by the console, CLI and MCP tool
type Settings struct {
	Mode        string `yaml:"mode"`
	Escapes     bool   `yaml:"escapes"`
	CurlyQuotes string `yaml:"curly_quotes"`
	Sentinel    string `yaml:"sentinel"`
	Normalise   bool   `yaml:"normalise"`
	MaxLength   int    `yaml:"max_length"`
}

// Defaults returns the built-in settings
func Defaults() *Settings {
	return &Settings{
		Mode:        typography.Implicit.String(),
		CurlyQuotes: typography.CurlyKeep.String(),
		Sentinel:    DefaultSentinel,
		MaxLength:   DefaultMaxTextLength,
	}
}

var globalSettings atomic.Pointer[Settings]

// GetGlobalSettings returns the settings installed by SetGlobalSettings,
// or the built-in defaults when none have been installed
func GetGlobalSettings() *Settings {
	if s := globalSettings.Load(); s != nil {
		return s
	}
	return Defaults()
}

// SetGlobalSettings installs the settings used by tools that were not
// given their own
func SetGlobalSettings(s *Settings) {
	globalSettings.Store(s)
}

// LoadDotEnv loads a .env file from the working directory if one exists.
// Variables already set in the environment are not overridden.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load reads settings from path and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Settings, error) {
	s := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	s.applyEnv()

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

func (s *Settings) applyEnv() {
	if v := os.Getenv(ModeEnvVar); v != "" {
		s.Mode = v
	}
	if v := os.Getenv(CurlyQuotesEnvVar); v != "" {
		s.CurlyQuotes = v
	}
	if v := os.Getenv(SentinelEnvVar); v != "" {
		s.Sentinel = v
	}
	if v, err := strconv.ParseBool(os.Getenv(EscapesEnvVar)); err == nil {
		s.Escapes = v
	}
	if v, err := strconv.ParseBool(os.Getenv(NormaliseEnvVar)); err == nil {
		s.Normalise = v
	}
	if v, err := strconv.Atoi(os.Getenv(MaxLengthEnvVar)); err == nil && v > 0 {
		s.MaxLength = v
	}
}

// Validate checks that mode and curly quote policy are recognised
func (s *Settings) Validate() error {
	if _, err := typography.ParseMode(s.Mode); err != nil {
		return err
	}
	if _, err := typography.ParseCurlyPolicy(s.CurlyQuotes); err != nil {
		return err
	}
	if strings.TrimSpace(s.Sentinel) == "" {
		return fmt.Errorf("sentinel cannot be empty")
	}
	if s.MaxLength <= 0 {
		return fmt.Errorf("max_length must be positive, got %d", s.MaxLength)
	}
	return nil
}

// Options converts the settings to engine options.
// Settings that fail validation fall back to the engine defaults.
func (s *Settings) Options() typography.Options {
	mode, _ := typography.ParseMode(s.Mode)
	curly, _ := typography.ParseCurlyPolicy(s.CurlyQuotes)
	return typography.Options{
		Mode:      mode,
		Escapes:   s.Escapes,
		Curly:     curly,
		Normalise: s.Normalise,
	}
}

// Marshal renders the settings as YAML
func (s *Settings) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Save writes the settings to path, creating the directory if needed
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := s.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// HomeDir returns ~/.mcp-typeset, or a relative .mcp-typeset when the home
// directory cannot be determined
func HomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".mcp-typeset"
	}
	return filepath.Join(homeDir, ".mcp-typeset")
}

// DefaultPath returns the settings file path
func DefaultPath() string {
	if customPath := os.Getenv(ConfigPathEnvVar); customPath != "" {
		return customPath
	}
	return filepath.Join(HomeDir(), "config.yaml")
}
