package engine

import (
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// PieceStatus classifies the outcome of verifying one piece.
type PieceStatus int

const (
	PieceOk PieceStatus = iota
	PieceHashMismatch
	PieceAcquisitionFailed
)

func (s PieceStatus) String() string {
	switch s {
	case PieceOk:
		return "ok"
	case PieceHashMismatch:
		return "hash mismatch"
	case PieceAcquisitionFailed:
		return "acquisition failed"
	default:
		return "unknown"
	}
}

// PieceResult is delivered to the progress callback once per piece.
type PieceResult struct {
	Index     int
	Status    PieceStatus
	Fragments []Fragment
	Errors    []error // open, size-mismatch and read errors for this piece
}

// CheckOptions parameterizes a verification run.
type CheckOptions struct {
	// Root is the content root; empty means the torrent's name.
	Root string

	// FailFast stops the run after the first piece with any error.
	FailFast bool

	// ExtractDir, when non-empty, receives a copy of every valid piece
	// under its piece index.
	ExtractDir string

	// Progress, when non-nil, is called once per verified piece.
	Progress func(PieceResult)
}

// Summary is the final accounting of a verification run.
type Summary struct {
	ValidPieces    int
	PieceCount     int
	ErrorsDetected bool
	ExtraFiles     []string // relative paths present on disk but not declared
}

// fragmentReader reads fragments sequentially, keeping the most recently
// opened file. Consecutive fragments of the same file reuse the handle;
// the handle is closed on any error.
type fragmentReader struct {
	path string
	file *os.File
}

func (r *fragmentReader) open(path string) (*os.File, error) {
	if r.file != nil && r.path == path {
		return r.file, nil
	}
	r.close()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r.path, r.file = path, f
	return f, nil
}

func (r *fragmentReader) close() {
	if r.file != nil {
		r.file.Close()
		r.file = nil
		r.path = ""
	}
}

// Check verifies the torrent's content under the content root, reporting
// each piece through opts.Progress. Cancellation is honored at piece
// boundaries only; verification itself never writes to the content tree.
func Check(ctx context.Context, m *MetaInfo, opts CheckOptions) (Summary, error) {
	root := opts.Root
	if root == "" {
		root = m.Name()
	}

	sum := Summary{PieceCount: m.NumPieces()}
	reader := &fragmentReader{}
	defer reader.close()

	buf := make([]byte, 0, m.PieceLength())

	it := m.Pieces()
	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		piece, ok := it.Next()
		if !ok {
			break
		}

		result := PieceResult{Index: piece.Index, Fragments: piece.Fragments}
		buf = buf[:0]
		acquired := true
		extractFailed := false

		for _, frag := range piece.Fragments {
			path := root
			if m.Multifile() {
				path = filepath.Join(root, frag.Path)
			}

			f, err := reader.open(path)
			if err != nil {
				result.Errors = append(result.Errors, err)
				acquired = false
				continue
			}

			if fi, err := f.Stat(); err != nil {
				result.Errors = append(result.Errors, err)
				reader.close()
				acquired = false
				continue
			} else if fi.Size() != frag.FileSize {
				result.Errors = append(result.Errors,
					fmt.Errorf("%s: size is %d, declared %d", path, fi.Size(), frag.FileSize))
				sum.ErrorsDetected = true
				// keep reading; the hash check decides the piece
			}

			n := len(buf)
			buf = buf[:n+int(frag.End-frag.Begin)]
			if _, err := f.ReadAt(buf[n:], frag.Begin); err != nil {
				result.Errors = append(result.Errors,
					fmt.Errorf("%s: read %d..%d: %w", path, frag.Begin, frag.End, err))
				reader.close()
				buf = buf[:n]
				acquired = false
			}
		}

		switch {
		case !acquired:
			result.Status = PieceAcquisitionFailed
			sum.ErrorsDetected = true
		case bytes.Equal(sumOf(buf), m.PieceHash(piece.Index)):
			result.Status = PieceOk
			sum.ValidPieces++
			if opts.ExtractDir != "" {
				if err := extractPiece(opts.ExtractDir, piece.Index, buf); err != nil {
					log.Warnf("extract piece %d: %v", piece.Index, err)
					sum.ErrorsDetected = true
					extractFailed = true
				}
			}
		default:
			result.Status = PieceHashMismatch
			sum.ErrorsDetected = true
		}

		if opts.Progress != nil {
			opts.Progress(result)
		}

		if opts.FailFast && (result.Status != PieceOk || len(result.Errors) > 0 || extractFailed) {
			return sum, nil
		}
	}

	if m.Multifile() {
		extra, err := extraFiles(m, root)
		if err != nil {
			log.Warnf("scanning for extra files: %v", err)
		}
		sum.ExtraFiles = extra
	}

	return sum, nil
}

func sumOf(b []byte) []byte {
	h := sha1.Sum(b)
	return h[:]
}

func extractPiece(dir string, index int, data []byte) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, strconv.Itoa(index)), data, 0644)
}

// extraFiles walks the content root and returns the sorted relative paths
// of regular files the torrent does not declare. Extra files are reported
// but are not verification errors.
func extraFiles(m *MetaInfo, root string) ([]string, error) {
	declared := make(map[string]bool)
	m.EachFile(func(relpath string, length int64) {
		declared[relpath] = true
	})

	var extra []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if !declared[rel] {
			extra = append(extra, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(extra)
	return extra, nil
}
