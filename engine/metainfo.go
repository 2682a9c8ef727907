package engine

import (
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// InvalidTorrentError means the document decoded but is not a valid
// metainfo dictionary. Path is a dotted path into the tree, e.g.
// ".info.files[3].length".
type InvalidTorrentError struct {
	Path   string
	Reason string
}

func (e *InvalidTorrentError) Error() string {
	return fmt.Sprintf("invalid torrent: %s: %s", e.Path, e.Reason)
}

func invalidf(path, format string, args ...any) error {
	return &InvalidTorrentError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// FileEntry is one content file of a multi-file torrent.
type FileEntry struct {
	Path   []string // path components, each a valid filename component
	Length int64
}

// MetaInfo is a validated, read-only view of a torrent document. It owns
// its decoded tree; callers must not mutate the values returned by Data
// and Info.
type MetaInfo struct {
	data Dict
	info Dict

	name        string
	pieceLength int64
	pieces      []byte
	files       []FileEntry // nil in single-file mode
	length      int64
	pieceCount  int
	infoHash    [20]byte
}

// Load reads and parses a torrent file.
func Load(path string) (*MetaInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read torrent file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a metainfo document.
func Parse(raw []byte) (*MetaInfo, error) {
	root, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	data, ok := root.(Dict)
	if !ok {
		return nil, invalidf(".", "not a dictionary")
	}

	m := &MetaInfo{data: data}

	info, ok := data["info"].(Dict)
	if !ok {
		return nil, invalidf(".info", "missing or not a dictionary")
	}
	m.info = info
	m.infoHash = sha1.Sum(Encode(info))

	if _, ok := info["md5sum"]; ok {
		log.Warn("ignoring info.md5sum")
	}

	name, ok := info["name"].(String)
	if !ok {
		return nil, invalidf(".info.name", "missing or not a string")
	}
	if !validComponent(name) {
		return nil, invalidf(".info.name", "invalid filename component %q", name)
	}
	m.name = string(name)

	pieceLength, ok := info["piece length"].(Integer)
	if !ok {
		return nil, invalidf(".info.piece length", "missing or not an integer")
	}
	if !pieceLength.IsInt64() || pieceLength.Int64() <= 0 {
		return nil, invalidf(".info.piece length", "not a positive integer")
	}
	m.pieceLength = pieceLength.Int64()

	pieces, ok := info["pieces"].(String)
	if !ok {
		return nil, invalidf(".info.pieces", "missing or not a string")
	}
	if len(pieces)%20 != 0 {
		return nil, invalidf(".info.pieces", "length %d is not a multiple of 20", len(pieces))
	}
	m.pieces = []byte(pieces)

	if err := m.parseContent(); err != nil {
		return nil, err
	}

	m.pieceCount = int((m.length + m.pieceLength - 1) / m.pieceLength)
	if len(m.pieces) != m.pieceCount*20 {
		return nil, invalidf(".info.pieces",
			"have %d hashes, content length %d needs %d",
			len(m.pieces)/20, m.length, m.pieceCount)
	}

	return m, nil
}

// parseContent reads either info.length (single-file) or info.files
// (multi-file); exactly one must be present.
func (m *MetaInfo) parseContent() error {
	filesVal, multi := m.info["files"]
	lengthVal, single := m.info["length"]

	switch {
	case multi && single:
		return invalidf(".info", "has both files and length")
	case single:
		length, ok := lengthVal.(Integer)
		if !ok {
			return invalidf(".info.length", "not an integer")
		}
		if !length.IsInt64() || length.Int64() < 0 {
			return invalidf(".info.length", "not a non-negative integer")
		}
		m.length = length.Int64()
		return nil
	case multi:
		files, ok := filesVal.(List)
		if !ok {
			return invalidf(".info.files", "not a list")
		}
		if len(files) == 0 {
			return invalidf(".info.files", "empty file list")
		}
		m.files = make([]FileEntry, 0, len(files))
		for i, fv := range files {
			entry, err := parseFileEntry(fv, i)
			if err != nil {
				return err
			}
			m.files = append(m.files, entry)
			m.length += entry.Length
		}
		return nil
	default:
		return invalidf(".info", "has neither files nor length")
	}
}

func parseFileEntry(v Value, i int) (FileEntry, error) {
	at := func(field string) string {
		return fmt.Sprintf(".info.files[%d]%s", i, field)
	}

	fd, ok := v.(Dict)
	if !ok {
		return FileEntry{}, invalidf(at(""), "not a dictionary")
	}

	length, ok := fd["length"].(Integer)
	if !ok {
		return FileEntry{}, invalidf(at(".length"), "missing or not an integer")
	}
	if !length.IsInt64() || length.Int64() < 0 {
		return FileEntry{}, invalidf(at(".length"), "not a non-negative integer")
	}

	pathList, ok := fd["path"].(List)
	if !ok {
		return FileEntry{}, invalidf(at(".path"), "missing or not a list")
	}
	if len(pathList) == 0 {
		return FileEntry{}, invalidf(at(".path"), "empty path")
	}
	components := make([]string, 0, len(pathList))
	for j, pv := range pathList {
		component, ok := pv.(String)
		if !ok {
			return FileEntry{}, invalidf(fmt.Sprintf("%s[%d]", at(".path"), j), "not a string")
		}
		if !validComponent(component) {
			return FileEntry{}, invalidf(fmt.Sprintf("%s[%d]", at(".path"), j),
				"invalid filename component %q", component)
		}
		components = append(components, string(component))
	}

	return FileEntry{Path: components, Length: length.Int64()}, nil
}

// validComponent reports whether s can be a single path element: non-empty,
// no '/', and neither "." nor "..".
func validComponent(s String) bool {
	if len(s) == 0 {
		return false
	}
	str := string(s)
	return !strings.ContainsRune(str, '/') && str != "." && str != ".."
}

// Data returns the whole decoded tree.
func (m *MetaInfo) Data() Dict { return m.data }

// Info returns the info dictionary.
func (m *MetaInfo) Info() Dict { return m.info }

// Name returns info.name.
func (m *MetaInfo) Name() string { return m.name }

// Length returns the total content length in bytes.
func (m *MetaInfo) Length() int64 { return m.length }

// PieceLength returns the nominal piece size in bytes.
func (m *MetaInfo) PieceLength() int64 { return m.pieceLength }

// NumPieces returns the number of pieces.
func (m *MetaInfo) NumPieces() int { return m.pieceCount }

// Multifile reports whether info.files is present.
func (m *MetaInfo) Multifile() bool { return m.files != nil }

// Files returns the declared file entries, nil in single-file mode.
func (m *MetaInfo) Files() []FileEntry { return m.files }

// InfoHash returns the SHA-1 of the canonical encoding of the info
// dictionary.
func (m *MetaInfo) InfoHash() [20]byte { return m.infoHash }

// Announce returns the announce URL when present, else "".
func (m *MetaInfo) Announce() string {
	if s, ok := m.data["announce"].(String); ok {
		return string(s)
	}
	return ""
}

// PieceHash returns the expected 20-byte SHA-1 of piece i.
func (m *MetaInfo) PieceHash(i int) []byte {
	return m.pieces[i*20 : (i+1)*20]
}

// EachFile calls fn once per content file with its relative path and
// declared length. Single-file torrents yield one synthesized entry named
// after the torrent.
func (m *MetaInfo) EachFile(fn func(relpath string, length int64)) {
	if m.files == nil {
		fn(m.name, m.length)
		return
	}
	for _, f := range m.files {
		fn(filepath.Join(f.Path...), f.Length)
	}
}
