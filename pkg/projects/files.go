package projects

import (
	"fmt"
	"os"
	"path/filepath"
)

// Files provisions the on-disk file area backing a project's uploads.
// Directory layout is <root>/<owner>/<project name>.
type Files struct {
	root string
}

// NewFiles creates a provisioner rooted at the given directory.
func NewFiles(root string) (*Files, error) {
	if root == "" {
		return nil, fmt.Errorf("files root directory is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create files root: %w", err)
	}
	return &Files{root: root}, nil
}

// GetProjectDir returns the project's directory path without creating it.
func (f *Files) GetProjectDir(ownerName, projectName string) string {
	return filepath.Join(f.root, ownerName, projectName)
}

// EnsureProjectDir creates the project's directory. Creation is not covered
// by the storage transaction; the factory compensates on later failures.
func (f *Files) EnsureProjectDir(ownerName, projectName string) error {
	dir := f.GetProjectDir(ownerName, projectName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create project dir %s: %w", dir, err)
	}
	return nil
}

// DeleteDirectory removes a directory tree. Missing directories are not an
// error.
func (f *Files) DeleteDirectory(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete directory %s: %w", path, err)
	}
	return nil
}
