package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/meletis/propflow/internal/checksum"
)

// FS implements Provider backed by a flat local directory.
type FS struct {
	root string // absolute path to the uploads directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// safeName validates that name is a plain filename (no separators, no
// traversal) and returns its absolute path under the uploads root.
func (f *FS) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("storage: filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("storage: invalid filename: %s", name)
	}
	abs := filepath.Join(f.root, cleaned)
	// Double-check the resolved path is still under root.
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes uploads directory: %s", name)
	}
	return abs, nil
}

// List returns the names of every regular file in the uploads root.
func (f *FS) List() ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

// Save streams src atomically into name: tmp file → fsync → rename.
func (f *FS) Save(name string, src io.Reader) (int64, error) {
	abs, err := f.safeName(name)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(f.root, ".propflow-tmp-*")
	if err != nil {
		return 0, fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	written, err := io.Copy(tmp, src)
	if err != nil {
		return 0, fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return 0, fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return 0, fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return written, nil
}

// Delete removes a stored file.
func (f *FS) Delete(name string) error {
	abs, err := f.safeName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}

// Path resolves name to an absolute path for serving.
func (f *FS) Path(name string) (string, error) {
	return f.safeName(name)
}

// Checksum returns the hex SHA-256 digest of the stored file.
func (f *FS) Checksum(name string) (string, error) {
	abs, err := f.safeName(name)
	if err != nil {
		return "", err
	}
	file, err := os.Open(abs)
	if err != nil {
		return "", fmt.Errorf("storage: open %s: %w", name, err)
	}
	defer file.Close()

	cs, err := checksum.SumReader(file)
	if err != nil {
		return "", fmt.Errorf("storage: checksum %s: %w", name, err)
	}
	return cs, nil
}
