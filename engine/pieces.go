package engine

import "fmt"

// Fragment is the portion of a piece that lies within a single file.
// Begin and End are a half-open byte range within that file; FileSize is
// the file's declared length.
type Fragment struct {
	Path     string
	Begin    int64
	End      int64
	FileSize int64
}

// Describe renders the fragment for progress output: the relative path,
// decorated with leading/trailing "..." when the fragment does not cover
// the file completely.
func (f Fragment) Describe() string {
	prefix, suffix := "", ""
	if f.Begin > 0 {
		prefix = "..."
	}
	if f.End < f.FileSize {
		suffix = "..."
	}
	return prefix + f.Path + suffix
}

// Piece is one piece of the torrent, described as the ordered file
// fragments whose concatenation is the piece's byte image.
type Piece struct {
	Index     int
	Fragments []Fragment
}

// PieceIter yields the torrent's pieces in order. It borrows from the
// MetaInfo it was created from.
type PieceIter struct {
	files  []FileEntry
	paths  []string
	length int64
	size   int64 // nominal piece length
	count  int

	index  int
	file   int   // cursor: current file
	offset int64 // cursor: position within current file
}

// Pieces returns an iterator over the torrent's pieces.
func (m *MetaInfo) Pieces() *PieceIter {
	it := &PieceIter{
		length: m.length,
		size:   m.pieceLength,
		count:  m.pieceCount,
	}
	m.EachFile(func(relpath string, length int64) {
		it.files = append(it.files, FileEntry{Length: length})
		it.paths = append(it.paths, relpath)
	})
	return it
}

// Next yields the next piece. It returns false once all pieces have been
// produced.
func (it *PieceIter) Next() (Piece, bool) {
	if it.index >= it.count {
		return Piece{}, false
	}

	want := it.size
	last := it.index == it.count-1
	if last {
		want = it.length - int64(it.index)*it.size
	}

	p := Piece{Index: it.index}
	for want > 0 {
		f := it.files[it.file]
		remaining := f.Length - it.offset
		if remaining <= want {
			p.Fragments = append(p.Fragments, Fragment{
				Path:     it.paths[it.file],
				Begin:    it.offset,
				End:      f.Length,
				FileSize: f.Length,
			})
			want -= remaining
			it.file++
			it.offset = 0
		} else {
			p.Fragments = append(p.Fragments, Fragment{
				Path:     it.paths[it.file],
				Begin:    it.offset,
				End:      it.offset + want,
				FileSize: f.Length,
			})
			it.offset += want
			want = 0
		}
	}

	if last {
		// Zero-length files at the tail carry no piece data but still
		// belong to the final piece's fragment list.
		for it.offset == 0 && it.file < len(it.files) && it.files[it.file].Length == 0 {
			p.Fragments = append(p.Fragments, Fragment{Path: it.paths[it.file]})
			it.file++
		}
		if it.file != len(it.files) || it.offset != 0 {
			panic(fmt.Sprintf("piece iterator desynchronized: file %d/%d offset %d",
				it.file, len(it.files), it.offset))
		}
	}

	it.index++
	return p, true
}
