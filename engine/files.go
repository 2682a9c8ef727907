package engine

import (
	"fmt"
	"os"
	"path/filepath"
)

// CreateEmptyFiles creates the zero-length files the torrent declares,
// along with their ancestor directories, under the content root. Files
// that already exist are left alone; creation is exclusive, so a file
// appearing concurrently is never truncated. It returns the paths created.
func (m *MetaInfo) CreateEmptyFiles(root string) ([]string, error) {
	if root == "" {
		root = m.name
	}

	var targets []string
	m.EachFile(func(relpath string, length int64) {
		if length != 0 {
			return
		}
		if m.Multifile() {
			targets = append(targets, filepath.Join(root, relpath))
		} else {
			targets = append(targets, root)
		}
	})

	var created []string
	for _, path := range targets {
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return created, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return created, fmt.Errorf("failed to create %s: %w", path, err)
		}
		f.Close()
		created = append(created, path)
	}
	return created, nil
}

// RenameTorrent renames the torrent file at path to "<name>.torrent" in
// the same directory and returns the new path. It refuses to overwrite an
// existing file.
func RenameTorrent(path, name string) (string, error) {
	target := filepath.Join(filepath.Dir(path), name+".torrent")
	if target == path {
		return "", fmt.Errorf("%s already has its torrent name", path)
	}
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("refusing to overwrite %s", target)
	} else if !os.IsNotExist(err) {
		return "", err
	}
	if err := os.Rename(path, target); err != nil {
		return "", err
	}
	return target, nil
}
