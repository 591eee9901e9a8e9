package s3fs

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// LocalFileSystem implements FileSystem over the local disk, mostly so the
// CLI can move data between local paths and buckets through one interface.
type LocalFileSystem struct {
	root string
}

var _ FileSystem = (*LocalFileSystem)(nil)

func NewLocalFileSystem(root string) *LocalFileSystem {
	return &LocalFileSystem{root: root}
}

func (l *LocalFileSystem) fullPath(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(joinPath(path)))
}

func mapOsError(err error, path string) error {
	switch {
	case err == nil:
		return nil
	case os.IsNotExist(err):
		return errors.Wrap(ErrPathNotFound, path)
	case os.IsPermission(err):
		return errors.Wrap(ErrPermission, path)
	default:
		return err
	}
}

func (l *LocalFileSystem) Root() string {
	return l.root
}

func (l *LocalFileSystem) Path(relative string) string {
	return filepath.ToSlash(l.fullPath(relative))
}

func (l *LocalFileSystem) Cd(subpath string) FileSystem {
	return NewSubTree(subpath, l)
}

func (l *LocalFileSystem) List(path string) ([]DirEntry, error) {
	full := l.fullPath(path)
	fi, err := os.Stat(full)
	if err != nil {
		return nil, mapOsError(err, path)
	}
	if !fi.IsDir() {
		return nil, errors.Wrap(ErrNotADirectory, path)
	}
	dirents, err := os.ReadDir(full)
	if err != nil {
		return nil, mapOsError(err, path)
	}
	var entries []DirEntry
	for _, de := range dirents {
		entry := DirEntry{Path: joinPath(path, de.Name()), IsDir: de.IsDir()}
		if !de.IsDir() {
			if info, err := de.Info(); err == nil {
				entry.Size = info.Size()
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (l *LocalFileSystem) OpenForRead(path string) (io.ReadCloser, error) {
	f, err := os.Open(l.fullPath(path))
	if err != nil {
		return nil, mapOsError(err, path)
	}
	return f, nil
}

func (l *LocalFileSystem) OpenForWrite(path string) (io.WriteCloser, error) {
	full := l.fullPath(path)
	if err := os.MkdirAll(filepath.Dir(full), 0777); err != nil {
		return nil, mapOsError(err, path)
	}
	f, err := os.Create(full)
	if err != nil {
		return nil, mapOsError(err, path)
	}
	return f, nil
}

func (l *LocalFileSystem) Delete(path string) error {
	return mapOsError(os.Remove(l.fullPath(path)), path)
}
