package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Manager provides the file operations the batch ingester needs: keeping
// directories in place and moving processed reports into an archive.
type Manager struct {
	basePath string
}

// NewManager creates a new file manager rooted at basePath.
func NewManager(basePath string) *Manager {
	return &Manager{basePath: basePath}
}

// FileExists checks if a file exists at the given path.
func (m *Manager) FileExists(path string) bool {
	_, err := os.Stat(m.resolvePath(path))
	return err == nil
}

// EnsureDirectory creates a directory with all parent directories.
func (m *Manager) EnsureDirectory(path string) error {
	return os.MkdirAll(m.resolvePath(path), 0755)
}

// CopyFile copies a file from source to destination.
func (m *Manager) CopyFile(src, dst string) error {
	srcPath := m.resolvePath(src)
	dstPath := m.resolvePath(dst)

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}
	return out.Sync()
}

// Archive moves a processed report into the archive directory, keeping
// its file name. Rename is tried first; a cross-device move falls back
// to copy and delete.
func (m *Manager) Archive(src, archiveDir string) error {
	srcPath := m.resolvePath(src)
	dstPath := filepath.Join(m.resolvePath(archiveDir), filepath.Base(srcPath))

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(srcPath, dstPath); err == nil {
		slog.Info("Archived report file",
			slog.String("src", srcPath),
			slog.String("dst", dstPath))
		return nil
	}

	if err := m.CopyFile(srcPath, dstPath); err != nil {
		return err
	}
	if err := os.Remove(srcPath); err != nil {
		return fmt.Errorf("failed to remove source after archive copy: %w", err)
	}
	slog.Info("Archived report file",
		slog.String("src", srcPath),
		slog.String("dst", dstPath))
	return nil
}

func (m *Manager) resolvePath(path string) string {
	if filepath.IsAbs(path) || m.basePath == "" {
		return path
	}
	return filepath.Join(m.basePath, path)
}
