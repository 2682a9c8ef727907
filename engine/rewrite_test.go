package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.torrent")
	require.NoError(t, os.WriteFile(path, []byte("d1:ai1e1:bi2ee"), 0644))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	root, err := Decode(raw)
	require.NoError(t, err)

	root, err = Set(root, Selector{"b"}, NewInteger(3))
	require.NoError(t, err)
	require.NoError(t, Rewrite(path, root))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "d1:ai1e1:bi3ee", string(got))

	// a successful rename leaves no staging file behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "t.torrent", entries[0].Name())
}

func TestRewriteNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.torrent")
	require.NoError(t, Rewrite(path, Dict{"k": String("v")}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "d1:k1:ve", string(got))
}

func TestRewriteSkipsOccupiedStagingNames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.torrent")
	require.NoError(t, os.WriteFile(path, []byte("de"), 0644))

	// leftovers from an interrupted earlier run
	stale1 := filepath.Join(dir, ".t.torrent#1")
	stale2 := filepath.Join(dir, ".t.torrent#2")
	require.NoError(t, os.WriteFile(stale1, []byte("junk"), 0644))
	require.NoError(t, os.WriteFile(stale2, []byte("junk"), 0644))

	require.NoError(t, Rewrite(path, Dict{"a": NewInteger(1)}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "d1:ai1ee", string(got))

	// the stale files are untouched
	junk, err := os.ReadFile(stale1)
	require.NoError(t, err)
	assert.Equal(t, "junk", string(junk))
	junk, err = os.ReadFile(stale2)
	require.NoError(t, err)
	assert.Equal(t, "junk", string(junk))
}
