// Package helpers builds fake directory entries for tests that mock HostFS.WalkDir.
package helpers

import (
	"io/fs"
	"os"
	"path/filepath"
)

type mockDirEntry struct {
	name string
	dir  bool
}

func (m mockDirEntry) Name() string {
	return m.name
}

func (m mockDirEntry) IsDir() bool {
	return m.dir
}

func (m mockDirEntry) Type() fs.FileMode {
	if m.dir {
		return fs.ModeDir
	}
	return 0
}

func (m mockDirEntry) Info() (fs.FileInfo, error) {
	return nil, fs.ErrNotExist
}

var _ os.DirEntry = mockDirEntry{}

// MockDirEntry returns a directory entry that only knows its name and kind.
func MockDirEntry(name string, dir bool) os.DirEntry {
	return mockDirEntry{name, dir}
}

// WalkTree returns a WalkDir implementation that visits paths, relative to root, in order.
// Paths ending in a separator are directories. A SkipDir result skips every later path under that directory.
func WalkTree(paths ...string) func(root string, fn fs.WalkDirFunc) error {
	return func(root string, fn fs.WalkDirFunc) error {
		if err := fn(root, MockDirEntry(filepath.Base(root), true), nil); err != nil {
			if err == fs.SkipDir {
				return nil
			}
			return err
		}

		var skipped []string
	next:
		for _, p := range paths {
			isDir := len(p) > 0 && p[len(p)-1] == '/'
			full := filepath.Join(root, filepath.FromSlash(p))
			for _, s := range skipped {
				if len(full) > len(s) && full[:len(s)+1] == s+string(filepath.Separator) {
					continue next
				}
			}
			err := fn(full, MockDirEntry(filepath.Base(full), isDir), nil)
			if err == fs.SkipDir && isDir {
				skipped = append(skipped, full)
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	}
}
