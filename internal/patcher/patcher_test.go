package patcher

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMarker = "// @ts-nocheck\n"

func TestHasMarker(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"exact prefix", "// @ts-nocheck\nexport {}", true},
		{"marker only", "// @ts-nocheck\n", true},
		{"no marker", "export const x=1;", false},
		{"marker later in file", "export {}\n// @ts-nocheck\n", false},
		{"missing line break", "// @ts-nocheck", false},
		{"leading whitespace", " // @ts-nocheck\n", false},
		{"other variant", "// @ts-no-check\n", false},
		{"empty file", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasMarker([]byte(tt.content), testMarker))
		})
	}
}

func TestPatchFile(t *testing.T) {
	t.Run("prepends marker", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "x.ts")
		require.NoError(t, os.WriteFile(path, []byte("export const x=1;"), 0644))

		changed, err := PatchFile(path, testMarker)
		require.NoError(t, err)
		assert.True(t, changed)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "// @ts-nocheck\nexport const x=1;", string(data))
	})

	t.Run("already patched is untouched", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "y.ts")
		original := "// @ts-nocheck\nexport const y=2;"
		require.NoError(t, os.WriteFile(path, []byte(original), 0644))
		before, err := os.Stat(path)
		require.NoError(t, err)

		changed, err := PatchFile(path, testMarker)
		require.NoError(t, err)
		assert.False(t, changed)

		after, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, os.SameFile(before, after), "file should not be replaced")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, original, string(data))
	})

	t.Run("empty file gets marker", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.ts")
		require.NoError(t, os.WriteFile(path, nil, 0644))

		changed, err := PatchFile(path, testMarker)
		require.NoError(t, err)
		assert.True(t, changed)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, testMarker, string(data))
	})

	t.Run("keeps file mode", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("permission bits differ on windows")
		}
		path := filepath.Join(t.TempDir(), "exec.ts")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0600))

		_, err := PatchFile(path, testMarker)
		require.NoError(t, err)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("symlink target is patched in place", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("symlinks need privileges on windows")
		}
		dir := t.TempDir()
		target := filepath.Join(dir, "real.ts")
		link := filepath.Join(dir, "link.ts")
		require.NoError(t, os.WriteFile(target, []byte("export {}"), 0644))
		require.NoError(t, os.Symlink(target, link))

		changed, err := PatchFile(link, testMarker)
		require.NoError(t, err)
		assert.True(t, changed)

		info, err := os.Lstat(link)
		require.NoError(t, err)
		assert.True(t, info.Mode()&os.ModeSymlink != 0, "link should still be a symlink")

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, testMarker+"export {}", string(data))
	})

	t.Run("missing file is a read error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gone.ts")

		_, err := PatchFile(path, testMarker)
		var fe *FileError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "read", fe.Op)
		assert.Equal(t, path, fe.Path)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("custom marker", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "x.ts")
		require.NoError(t, os.WriteFile(path, []byte("// @ts-nocheck\nexport {}"), 0644))

		changed, err := PatchFile(path, "// @ts-no-check\n")
		require.NoError(t, err)
		assert.True(t, changed, "a different marker variant does not count as patched")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "// @ts-no-check\n// @ts-nocheck\nexport {}", string(data))
	})
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	unmarked := filepath.Join(dir, "a.ts")
	marked := filepath.Join(dir, "b.ts")
	require.NoError(t, os.WriteFile(unmarked, []byte("export {}"), 0644))
	require.NoError(t, os.WriteFile(marked, []byte(testMarker+"export {}"), 0644))

	needs, err := CheckFile(unmarked, testMarker)
	require.NoError(t, err)
	assert.True(t, needs)

	needs, err = CheckFile(marked, testMarker)
	require.NoError(t, err)
	assert.False(t, needs)

	data, err := os.ReadFile(unmarked)
	require.NoError(t, err)
	assert.Equal(t, "export {}", string(data), "CheckFile must not write")

	_, err = CheckFile(filepath.Join(dir, "missing.ts"), testMarker)
	var fe *FileError
	assert.True(t, errors.As(err, &fe))
}

func TestFileErrorMessage(t *testing.T) {
	err := &FileError{Path: "/x.ts", Op: "write", Err: errors.New("disk full")}
	assert.Equal(t, "failed to write /x.ts: disk full", err.Error())
	assert.Equal(t, "disk full", errors.Unwrap(err).Error())
}
