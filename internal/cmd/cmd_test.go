package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrison/nmpatch/internal/patcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTree creates node_modules with one unpatched and one patched file.
func newTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"node_modules/a/x.ts":    "export const x=1;",
		"node_modules/a/y.ts":    "// @ts-nocheck\nexport const y=2;",
		"node_modules/skip/z.ts": "export const z=3;",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func read(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "nmpatch", cmd.Use)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["patch"], "expected patch subcommand")
	assert.True(t, names["check"], "expected check subcommand")

	stdout, _, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "node_modules")
}

func TestVersionFlag(t *testing.T) {
	stdout, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "version")
}

func TestRootRunsWithDefaults(t *testing.T) {
	root := newTree(t)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	stdout, stderr, err := execute(t)
	require.NoError(t, err)

	assert.Equal(t, "// @ts-nocheck\nexport const x=1;", read(t, root, "node_modules/a/x.ts"))
	assert.Equal(t, "// @ts-nocheck\nexport const y=2;", read(t, root, "node_modules/a/y.ts"))
	assert.Contains(t, stdout, "Disabling TypeScript issues in ./node_modules/")
	assert.Contains(t, stdout, "Found 2 file(s) that were not ignored before this patch run")
	assert.Contains(t, stdout, "Disabled TypeScript issues in ./node_modules/")
	assert.Contains(t, stderr, "Restart TS server")
	assert.Contains(t, stderr, filepath.Join("node_modules", "a", "x.ts"))

	// Second run: nothing to do, no refresh hint
	stdout, stderr, err = execute(t)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "Found")
	assert.Empty(t, stderr)
}

func TestPatchCommandFlags(t *testing.T) {
	root := newTree(t)
	nm := filepath.Join(root, "node_modules")

	stdout, _, err := execute(t, "patch", nm, "--ignore", "**/skip/**", "--quiet", "--workers", "2")
	require.NoError(t, err)

	assert.Equal(t, "// @ts-nocheck\nexport const x=1;", read(t, root, "node_modules/a/x.ts"))
	assert.Equal(t, "export const z=3;", read(t, root, "node_modules/skip/z.ts"))
	assert.NotContains(t, stdout, "Disabling")
	assert.Contains(t, stdout, "Found 1 file(s)")
}

func TestPatchCommandGlobMode(t *testing.T) {
	root := newTree(t)
	pattern := filepath.ToSlash(root) + "/node_modules/**/*.ts"

	_, _, err := execute(t, "patch", "--mode", "glob", "--path", pattern, "--marker", "// @ts-no-check\n", "-q")
	require.NoError(t, err)

	assert.Equal(t, "// @ts-no-check\nexport const x=1;", read(t, root, "node_modules/a/x.ts"))
	assert.Equal(t, "// @ts-no-check\nexport const z=3;", read(t, root, "node_modules/skip/z.ts"))
}

func TestPatchCommandMarkerFlag(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"bare line", "// @ts-no-check"},
		{"escaped newline", `// @ts-no-check\n`},
		{"real newline", "// @ts-no-check\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newTree(t)
			_, _, err := execute(t, "patch", filepath.Join(root, "node_modules"), "--marker", tt.value, "-q")
			require.NoError(t, err)
			assert.Equal(t, "// @ts-no-check\nexport const x=1;", read(t, root, "node_modules/a/x.ts"))
		})
	}
}

func TestMarkerLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"// @ts-nocheck", "// @ts-nocheck\n"},
		{`/* a */\n// b`, "/* a */\n// b\n"},
		{`// tab\there`, "// tab\there\n"},
		{`// path C:\\n`, "// path C:\\n\n"},
		{"// keep\r\n", "// keep\r\n"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, markerLine(tt.in), "markerLine(%q)", tt.in)
	}
}

func TestPatchCommandConfigFile(t *testing.T) {
	root := newTree(t)
	configPath := filepath.Join(root, "custom.yaml")
	content := "path: " + filepath.ToSlash(filepath.Join(root, "node_modules")) + "\nignore:\n  - \"**/skip/**\"\nquiet: true\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	_, _, err := execute(t, "patch", "--config", configPath)
	require.NoError(t, err)

	assert.Equal(t, "// @ts-nocheck\nexport const x=1;", read(t, root, "node_modules/a/x.ts"))
	assert.Equal(t, "export const z=3;", read(t, root, "node_modules/skip/z.ts"))
}

func TestPatchCommandLogFile(t *testing.T) {
	root := newTree(t)
	logPath := filepath.Join(root, "logs", "nmpatch.log")

	_, _, err := execute(t, "patch", filepath.Join(root, "node_modules"), "--log-file", logPath, "--log-level", "debug")
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "=== nmpatch run ")
	assert.Contains(t, content, "[DEBUG] Patched ")
	assert.Contains(t, content, "[WARN] ")
}

func TestPatchCommandErrors(t *testing.T) {
	root := newTree(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing root", []string{"patch", filepath.Join(root, "missing")}, "failed to resolve targets"},
		{"bad mode", []string{"patch", "--mode", "regex"}, "invalid mode"},
		{"zero workers", []string{"patch", "--workers", "0"}, "workers must be >= 1"},
		{"path twice", []string{"patch", "a", "--path", "b"}, "cannot use both"},
		{"missing config", []string{"patch", "--config", filepath.Join(root, "nope.yaml")}, "failed to load config"},
		{"too many args", []string{"patch", "a", "b"}, "accepts at most 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckCommand(t *testing.T) {
	root := newTree(t)
	nm := filepath.Join(root, "node_modules")

	stdout, _, err := execute(t, "check", nm, "-q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, patcher.ErrUnpatched))
	assert.Contains(t, err.Error(), "2 of 3 file(s)")
	assert.Contains(t, stdout, "x.ts")
	assert.Contains(t, stdout, "z.ts")
	assert.False(t, strings.Contains(stdout, "y.ts"))

	// check never writes
	assert.Equal(t, "export const x=1;", read(t, root, "node_modules/a/x.ts"))

	_, _, err = execute(t, "patch", nm, "-q")
	require.NoError(t, err)

	_, _, err = execute(t, "check", nm, "-q")
	assert.NoError(t, err)
}
