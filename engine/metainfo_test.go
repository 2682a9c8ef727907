package engine

import (
	"bytes"
	"crypto/sha1"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFile is a (path components, content) pair for building fixtures.
type testFile struct {
	path    []string
	content []byte
}

// singleTorrent encodes a single-file metainfo document for content.
func singleTorrent(name string, pieceLength int64, content []byte) []byte {
	return Encode(Dict{
		"announce": String("http://tracker.example.com/announce"),
		"info": Dict{
			"name":         String(name),
			"piece length": NewInteger(pieceLength),
			"length":       NewInteger(int64(len(content))),
			"pieces":       String(hashPieces(content, pieceLength)),
		},
	})
}

// multiTorrent encodes a multi-file metainfo document for files.
func multiTorrent(name string, pieceLength int64, files []testFile) []byte {
	var entries List
	var content []byte
	for _, f := range files {
		var path List
		for _, c := range f.path {
			path = append(path, String(c))
		}
		entries = append(entries, Dict{
			"length": NewInteger(int64(len(f.content))),
			"path":   path,
		})
		content = append(content, f.content...)
	}
	return Encode(Dict{
		"info": Dict{
			"name":         String(name),
			"piece length": NewInteger(pieceLength),
			"files":        entries,
			"pieces":       String(hashPieces(content, pieceLength)),
		},
	})
}

// hashPieces returns the concatenated SHA-1 hashes of content split into
// pieceLength chunks.
func hashPieces(content []byte, pieceLength int64) []byte {
	var pieces []byte
	for len(content) > 0 {
		n := pieceLength
		if int64(len(content)) < n {
			n = int64(len(content))
		}
		h := sha1.Sum(content[:n])
		pieces = append(pieces, h[:]...)
		content = content[n:]
	}
	return pieces
}

func TestParseSingleFile(t *testing.T) {
	content := bytes.Repeat([]byte("abc"), 10) // 30 bytes
	m, err := Parse(singleTorrent("data.bin", 8, content))
	require.NoError(t, err)

	assert.Equal(t, "data.bin", m.Name())
	assert.Equal(t, int64(30), m.Length())
	assert.Equal(t, int64(8), m.PieceLength())
	assert.Equal(t, 4, m.NumPieces()) // ceil(30/8)
	assert.False(t, m.Multifile())
	assert.Nil(t, m.Files())
	assert.Equal(t, "http://tracker.example.com/announce", m.Announce())

	h := sha1.Sum(content[:8])
	assert.Equal(t, h[:], m.PieceHash(0))

	var names []string
	var lengths []int64
	m.EachFile(func(relpath string, length int64) {
		names = append(names, relpath)
		lengths = append(lengths, length)
	})
	assert.Equal(t, []string{"data.bin"}, names)
	assert.Equal(t, []int64{30}, lengths)
}

func TestParseMultiFile(t *testing.T) {
	files := []testFile{
		{path: []string{"dir", "x"}, content: []byte("aaa")},
		{path: []string{"dir", "y"}, content: []byte("bbbbb")},
	}
	m, err := Parse(multiTorrent("pack", 4, files))
	require.NoError(t, err)

	assert.True(t, m.Multifile())
	assert.Equal(t, int64(8), m.Length())
	assert.Equal(t, 2, m.NumPieces())
	require.Len(t, m.Files(), 2)
	assert.Equal(t, []string{"dir", "x"}, m.Files()[0].Path)
	assert.Equal(t, int64(5), m.Files()[1].Length)
}

func TestParseInfoHash(t *testing.T) {
	raw := singleTorrent("f", 16, []byte("hello"))
	m, err := Parse(raw)
	require.NoError(t, err)

	info := m.Data()["info"]
	assert.Equal(t, sha1.Sum(Encode(info)), m.InfoHash())
}

func TestParseZeroLength(t *testing.T) {
	m, err := Parse(singleTorrent("empty", 16, nil))
	require.NoError(t, err)
	assert.Equal(t, int64(0), m.Length())
	assert.Equal(t, 0, m.NumPieces())
}

func mutateTorrent(t *testing.T, raw []byte, fn func(d Dict)) []byte {
	t.Helper()
	v, err := Decode(raw)
	require.NoError(t, err)
	fn(v.(Dict))
	return Encode(v)
}

func TestParseErrors(t *testing.T) {
	base := singleTorrent("f", 4, []byte("12345678"))
	multi := multiTorrent("m", 4, []testFile{
		{path: []string{"a"}, content: []byte("123")},
	})

	cases := []struct {
		name string
		raw  []byte
		path string
	}{
		{"not a dict", Encode(List{}), "."},
		{"missing info", Encode(Dict{}), ".info"},
		{"info not dict", mutateTorrent(t, base, func(d Dict) {
			d["info"] = NewInteger(1)
		}), ".info"},
		{"missing name", mutateTorrent(t, base, func(d Dict) {
			delete(d["info"].(Dict), "name")
		}), ".info.name"},
		{"name with slash", mutateTorrent(t, base, func(d Dict) {
			d["info"].(Dict)["name"] = String("a/b")
		}), ".info.name"},
		{"name dotdot", mutateTorrent(t, base, func(d Dict) {
			d["info"].(Dict)["name"] = String("..")
		}), ".info.name"},
		{"piece length zero", mutateTorrent(t, base, func(d Dict) {
			d["info"].(Dict)["piece length"] = NewInteger(0)
		}), ".info.piece length"},
		{"pieces not multiple of 20", mutateTorrent(t, base, func(d Dict) {
			d["info"].(Dict)["pieces"] = String("short")
		}), ".info.pieces"},
		{"piece count mismatch", mutateTorrent(t, base, func(d Dict) {
			d["info"].(Dict)["length"] = NewInteger(100)
		}), ".info.pieces"},
		{"negative length", mutateTorrent(t, base, func(d Dict) {
			d["info"].(Dict)["length"] = NewInteger(-1)
		}), ".info.length"},
		{"both files and length", mutateTorrent(t, base, func(d Dict) {
			d["info"].(Dict)["files"] = List{}
		}), ".info"},
		{"neither files nor length", mutateTorrent(t, base, func(d Dict) {
			delete(d["info"].(Dict), "length")
		}), ".info"},
		{"empty files list", mutateTorrent(t, multi, func(d Dict) {
			d["info"].(Dict)["files"] = List{}
		}), ".info.files"},
		{"file entry not dict", mutateTorrent(t, multi, func(d Dict) {
			d["info"].(Dict)["files"].(List)[0] = NewInteger(1)
		}), ".info.files[0]"},
		{"file negative length", mutateTorrent(t, multi, func(d Dict) {
			d["info"].(Dict)["files"].(List)[0].(Dict)["length"] = NewInteger(-3)
		}), ".info.files[0].length"},
		{"file empty path", mutateTorrent(t, multi, func(d Dict) {
			d["info"].(Dict)["files"].(List)[0].(Dict)["path"] = List{}
		}), ".info.files[0].path"},
		{"file bad component", mutateTorrent(t, multi, func(d Dict) {
			d["info"].(Dict)["files"].(List)[0].(Dict)["path"] = List{String(".")}
		}), ".info.files[0].path[0]"},
	}

	for _, tc := range cases {
		_, err := Parse(tc.raw)
		var terr *InvalidTorrentError
		require.ErrorAs(t, err, &terr, tc.name)
		assert.Equal(t, tc.path, terr.Path, tc.name)
	}
}

func TestParseRejectsBadBencode(t *testing.T) {
	_, err := Parse([]byte("d4:spam4:eggs3:cow3:mooe"))
	var serr *SyntaxError
	assert.ErrorAs(t, err, &serr)
}
