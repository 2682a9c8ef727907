package engine

import (
	"fmt"
	"os"
	"path/filepath"
)

// Rewrite atomically replaces the file at path with the canonical encoding
// of root. The encoding is staged to a sibling file which is renamed over
// path, so a failure at any point leaves the original intact.
func Rewrite(path string, root Value) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	var staging *os.File
	var stagingPath string
	for n := 1; ; n++ {
		stagingPath = filepath.Join(dir, fmt.Sprintf(".%s#%d", base, n))
		f, err := os.OpenFile(stagingPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			staging = f
			break
		}
		if !os.IsExist(err) {
			return fmt.Errorf("failed to stage %s: %w", path, err)
		}
	}

	if _, err := staging.Write(Encode(root)); err != nil {
		staging.Close()
		os.Remove(stagingPath)
		return fmt.Errorf("failed to write %s: %w", stagingPath, err)
	}
	if err := staging.Close(); err != nil {
		os.Remove(stagingPath)
		return fmt.Errorf("failed to write %s: %w", stagingPath, err)
	}

	if err := os.Rename(stagingPath, path); err != nil {
		os.Remove(stagingPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
