package filedrop

import (
	"fmt"
	"os"
	"path/filepath"
)

// SpoolDirName is the fixed name of the receiver-side temp directory.
const SpoolDirName = "ShareClipbrd_60D54950"

// SpoolPath returns the absolute path of the spool directory under the
// OS temp root.
func SpoolPath() string {
	return filepath.Join(os.TempDir(), SpoolDirName)
}

// PrepareSpool destructively recreates the spool directory: best-effort
// recursive delete, then create.
func PrepareSpool() (string, error) {
	dir := SpoolPath()
	_ = os.RemoveAll(dir) // best-effort; a stale lock must not abort the session
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("filedrop: create spool %s: %w", dir, err)
	}
	return dir, nil
}

// EnumerateSpool walks the spool directory after a Finish and returns the
// final absolute path list handed to Dispatch, directories and files in
// discovery order.
func EnumerateSpool(spoolDir string) ([]string, error) {
	var paths []string
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("filedrop: enumerate spool: %w", err)
		}
		var subdirs []string
		for _, e := range entries {
			abs := filepath.Join(dir, e.Name())
			paths = append(paths, abs)
			if e.IsDir() {
				subdirs = append(subdirs, abs)
			}
		}
		for _, sub := range subdirs {
			if err := walk(sub); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(spoolDir); err != nil {
		return nil, err
	}
	return paths, nil
}
