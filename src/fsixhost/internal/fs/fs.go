package fs

import (
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/fx"
)

//go:generate mockgen -destination=fsmock/fs_mock.go -package=fsmock . HostFS

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// HostFS wraps the filesystem operations used by the host.
type HostFS interface {
	UserHomeDir() (string, error)
	MkdirAll(path string) error
	DirExists(path string) (bool, error)
	FileExists(path string) (bool, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
	TempFile(dir, pattern string) (*os.File, error)
	Remove(name string) error
	WalkDir(root string, fn fs.WalkDirFunc) error
}

type fsImpl struct{}

// New creates a new HostFS.
func New() HostFS {
	return fsImpl{}
}

// UserHomeDir returns the current user's home directory.
func (fsImpl) UserHomeDir() (string, error) { return os.UserHomeDir() }

// MkdirAll creates a directory and all its parents.
func (fsImpl) MkdirAll(path string) error { return os.MkdirAll(path, os.ModePerm) }

func (fsImpl) DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

func (fsImpl) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func (fsImpl) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (fsImpl) WriteFile(name string, data []byte) error {
	return os.WriteFile(name, data, 0644)
}

func (fsImpl) TempFile(dir, pattern string) (*os.File, error) {
	return os.CreateTemp(dir, pattern)
}

func (fsImpl) Remove(name string) error {
	return os.Remove(name)
}

// WalkDir walks the tree rooted at root in lexical order.
func (fsImpl) WalkDir(root string, fn fs.WalkDirFunc) error {
	return filepath.WalkDir(root, fn)
}
