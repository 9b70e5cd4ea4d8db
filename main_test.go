package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-typeset/internal/config"
	"github.com/sammcj/mcp-typeset/internal/registry"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"":        logrus.WarnLevel,
		"debug":   logrus.DebugLevel,
		" INFO ":  logrus.InfoLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"bogus":   logrus.WarnLevel,
	}
	for value, want := range tests {
		t.Setenv("LOG_LEVEL", value)
		assert.Equal(t, want, parseLogLevel(), "LOG_LEVEL=%q", value)
	}
}

func TestApp_ConvertsFile(t *testing.T) {
	t.Cleanup(func() { config.SetGlobalSettings(nil) })
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(in, []byte("He said ``hello'' to `her'...\n"), 0600))

	app := newApp(testLogger())
	err := app.Run(context.Background(), []string{"mcp-typeset", "--config", filepath.Join(dir, "none.yaml"), "-e", "-i", in, "-o", out})
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "He said “hello” to ‘her’…\n", string(got))
}

func TestApp_InvalidCurlyPolicy(t *testing.T) {
	t.Cleanup(func() { config.SetGlobalSettings(nil) })
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(in, []byte("x"), 0600))

	app := newApp(testLogger())
	err := app.Run(context.Background(), []string{"mcp-typeset", "--config", filepath.Join(dir, "none.yaml"), "--curly-quotes", "elide", "-i", in})
	assert.ErrorContains(t, err, "invalid curly quote policy")
}

func TestApp_MaxLengthCountsCharacters(t *testing.T) {
	t.Cleanup(func() { config.SetGlobalSettings(nil) })
	t.Setenv(config.MaxLengthEnvVar, "5")
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(in, []byte("“a”…—"), 0600))

	args := []string{"mcp-typeset", "--config", filepath.Join(dir, "none.yaml"), "-i", in, "-o", out}
	require.NoError(t, newApp(testLogger()).Run(context.Background(), args))

	require.NoError(t, os.WriteFile(in, []byte("“ab”…—"), 0600))
	err := newApp(testLogger()).Run(context.Background(), args)
	assert.ErrorContains(t, err, "input exceeds maximum length of 5 characters (got 6)")
}

func TestApp_ConfigInit(t *testing.T) {
	t.Cleanup(func() { config.SetGlobalSettings(nil) })
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, newApp(testLogger()).Run(context.Background(), []string{"mcp-typeset", "--config", path, "config", "init"}))
	_, err := os.Stat(path)
	require.NoError(t, err)

	err = newApp(testLogger()).Run(context.Background(), []string{"mcp-typeset", "--config", path, "config", "init"})
	assert.ErrorContains(t, err, "already exists")
}

func TestTimeoutSessionManager(t *testing.T) {
	m := NewTimeoutSessionManager(time.Minute, testLogger())
	now := time.Now()
	m.now = func() time.Time { return now }

	id := m.Generate()
	assert.NotEqual(t, id, m.Generate())

	terminated, err := m.Validate(id)
	require.NoError(t, err)
	assert.False(t, terminated)

	_, err = m.Validate("")
	assert.Error(t, err)
	_, err = m.Validate("unknown")
	assert.Error(t, err)

	now = now.Add(2 * time.Minute)
	terminated, err = m.Validate(id)
	require.NoError(t, err)
	assert.True(t, terminated)

	other := m.Generate()
	notAllowed, err := m.Terminate(other)
	require.NoError(t, err)
	assert.False(t, notAllowed)
	_, err = m.Validate(other)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := authMiddleware("secret", testLogger(), next)

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"valid token", map[string]string{"Authorization": "Bearer secret"}, http.StatusNoContent},
		{"missing token", nil, http.StatusUnauthorized},
		{"wrong token", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"not bearer", map[string]string{"Authorization": "Basic secret"}, http.StatusUnauthorized},
		{"localhost origin", map[string]string{"Authorization": "Bearer secret", "Origin": "http://localhost:3000"}, http.StatusNoContent},
		{"foreign origin", map[string]string{"Authorization": "Bearer secret", "Origin": "http://localhost.evil.com"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/http", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestToolHandler(t *testing.T) {
	t.Setenv("DISABLED_TOOLS", "")
	registry.Init(testLogger())
	handler := toolHandler("typeset_text", "stdio", testLogger())

	var req mcp.CallToolRequest
	req.Params.Name = "typeset_text"
	req.Params.Arguments = map[string]any{"text": `She said "hi" to (him).`}

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Contains(t, text.Text, "She said “hi” to (him).")

	req.Params.Arguments = map[string]any{"text": "a", "mode": "latex"}
	_, err = handler(context.Background(), req)
	assert.ErrorContains(t, err, "tool execution failed")

	req.Params.Arguments = "not a map"
	_, err = handler(context.Background(), req)
	assert.ErrorContains(t, err, "invalid arguments type")

	_, err = toolHandler("missing", "stdio", testLogger())(context.Background(), req)
	assert.ErrorContains(t, err, "tool not found")
}
