package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	return path
}

func TestFindFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	b := touch(t, filepath.Join(dir, "b.hcl"))
	a := touch(t, filepath.Join(dir, "nested", "a.hcl"))
	touch(t, filepath.Join(dir, "notes.txt"))

	got, err := FindFilesByExtension(dir, ".hcl")
	require.NoError(t, err)
	if diff := cmp.Diff([]string{b, a}, got); diff != "" {
		t.Errorf("FindFilesByExtension() mismatch (-want +got):\n%s", diff)
	}

	assert.Panics(t, func() { _, _ = FindFilesByExtension(dir, "") })
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	one := touch(t, filepath.Join(dir, "conf", "one.hcl"))
	two := touch(t, filepath.Join(dir, "conf", "two.hcl"))
	extra := touch(t, filepath.Join(dir, "extra.hcl"))
	txt := touch(t, filepath.Join(dir, "readme.md"))

	got, err := CollectFiles([]string{
		extra,
		filepath.Join(dir, "missing"),
		filepath.Join(dir, "conf"),
		txt,
		one,
	}, ".hcl")
	require.NoError(t, err)
	if diff := cmp.Diff([]string{extra, one, two}, got); diff != "" {
		t.Errorf("CollectFiles() mismatch (-want +got):\n%s", diff)
	}
}
