package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ryanbastic/go-pagegrid/internal/content"
	"github.com/ryanbastic/go-pagegrid/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyDoc = `[
	{"id":"a","type":"heading1","content":"Title"},
	{"id":"b","type":"text","content":"<p>Body</p><script>alert(1)</script>"}
]`

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "migrate", "normalize", "render"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestNormalizeCmd_Legacy(t *testing.T) {
	stdout, stderr, err := execute(t, legacyDoc, "normalize")
	require.NoError(t, err)
	assert.Contains(t, stderr, "shape: legacy")

	var tree content.Tree
	require.NoError(t, json.Unmarshal([]byte(stdout), &tree))
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Columns, 1)
	assert.Equal(t, content.LayoutOne, tree[0].Layout)
	assert.Len(t, tree[0].Columns[0].Blocks, 2)
}

func TestNormalizeCmd_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"a tree"}`), 0o644))

	stdout, stderr, err := execute(t, "", "normalize", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "shape: unrecognized")
	assert.Equal(t, "[]", strings.TrimSpace(stdout))
}

func TestNormalizeCmd_MissingFile(t *testing.T) {
	_, _, err := execute(t, "", "normalize", filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.json")
}

func TestRenderCmd_Fragment(t *testing.T) {
	stdout, _, err := execute(t, legacyDoc, "render")
	require.NoError(t, err)
	assert.Contains(t, stdout, `<section class="pg-section"`)
	assert.Contains(t, stdout, "Title")
	assert.Contains(t, stdout, "<p>Body</p>")
	assert.NotContains(t, stdout, "<script>")
	assert.NotContains(t, stdout, "<html")
}

func TestRenderCmd_Empty(t *testing.T) {
	stdout, _, err := execute(t, "", "render")
	require.NoError(t, err)
	assert.Contains(t, stdout, render.EmptyMessage)
}

func TestRenderCmd_Document(t *testing.T) {
	stdout, _, err := execute(t, legacyDoc, "render", "--document", "--title", "Hello & welcome")
	require.NoError(t, err)
	assert.Contains(t, stdout, "<html")
	assert.Contains(t, stdout, "<title>Hello &amp; welcome</title>")
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := newLogger(tt.level, &bytes.Buffer{})
			ctx := context.Background()
			assert.True(t, logger.Enabled(ctx, tt.want))
			assert.False(t, logger.Enabled(ctx, tt.want-1))
		})
	}
}
