package tools

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEntries(t *testing.T, path string) []ToolErrorLogEntry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []ToolErrorLogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e ToolErrorLogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestToolErrorLogger_LogToolError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tool-errors.log")
	l, err := NewToolErrorLogger(path, logrus.New())
	require.NoError(t, err)

	long := strings.Repeat("x", 500)
	l.LogToolError("typeset_text", map[string]any{"text": long, "escapes": true}, errors.New("boom"), "stdio")
	l.LogToolError("typeset_file", nil, errors.New("again"), "http")
	require.NoError(t, l.Close())

	entries := readEntries(t, path)
	require.Len(t, entries, 2)

	assert.Equal(t, "typeset_text", entries[0].ToolName)
	assert.Equal(t, "boom", entries[0].Error)
	assert.Equal(t, "stdio", entries[0].Transport)
	assert.Equal(t, true, entries[0].Arguments["escapes"])
	assert.Len(t, entries[0].Arguments["text"], maxLoggedTextLength+3)
	assert.NotEmpty(t, entries[0].ID)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
	assert.Nil(t, entries[1].Arguments)
}

func TestTruncateArgs_KeepsRunesWhole(t *testing.T) {
	// "a" shifts every three-byte quote off the byte limit
	long := "a" + strings.Repeat("“", 100)
	out := truncateArgs(map[string]any{"text": long, "mode": "implicit"})

	text, ok := out["text"].(string)
	require.True(t, ok)
	assert.True(t, utf8.ValidString(text))
	assert.Equal(t, "a"+strings.Repeat("“", 66)+"...", text)
	assert.Equal(t, "implicit", out["mode"])
	assert.Nil(t, truncateArgs(nil))
}

func TestToolErrorLogger_RotatesOldEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tool-errors.log")

	old := ToolErrorLogEntry{ID: "old", Timestamp: time.Now().AddDate(0, 0, -DefaultLogRetentionDays-1).Format(time.RFC3339), Error: "old"}
	recent := ToolErrorLogEntry{ID: "recent", Timestamp: time.Now().Add(-time.Hour).Format(time.RFC3339), Error: "recent"}
	oldLine, _ := json.Marshal(old)
	recentLine, _ := json.Marshal(recent)
	require.NoError(t, os.WriteFile(path, []byte(string(oldLine)+"\n"+string(recentLine)+"\n"), 0600))

	l, err := NewToolErrorLogger(path, nil)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	entries := readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "recent", entries[0].ID)
}

func TestToolErrorLogger_Disabled(t *testing.T) {
	l := GetGlobalErrorLogger()
	assert.False(t, l.IsEnabled())
	assert.NotPanics(t, func() {
		l.LogToolError("typeset_text", nil, errors.New("ignored"), "stdio")
	})
	assert.NoError(t, l.Close())
}
