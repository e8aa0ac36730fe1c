package adapter

import (
	"io/fs"
	"os"
)

// FileSystem defines an interface for file system operations to enable mocking
//
//go:generate mockgen -source=filesystem.go -destination=../mocks/filesystem.go -package=mocks -mock_names=FileSystem=MockFileSystem
type FileSystem interface {
	// ReadFile reads the named file and returns its contents
	ReadFile(name string) ([]byte, error)

	// WriteFile writes data to the named file, creating it if necessary
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Remove removes the named file
	Remove(name string) error

	// TempDir returns the default directory to use for temporary files
	TempDir() string
}

// RealFileSystem implements FileSystem using the standard os package
type RealFileSystem struct{}

// NewFileSystem creates a new real file system
func NewFileSystem() FileSystem {
	return &RealFileSystem{}
}

// ReadFile reads the named file and returns its contents
func (f *RealFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name) //nolint:gosec,G304
}

// WriteFile writes data to the named file, creating it if necessary
func (f *RealFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm) //nolint:gosec,G306
}

// Remove removes the named file
func (f *RealFileSystem) Remove(name string) error {
	return os.Remove(name)
}

// TempDir returns the default directory to use for temporary files
func (f *RealFileSystem) TempDir() string {
	return os.TempDir()
}
