package s3fs

import "io"

// DirEntry describes a single entry returned by FileSystem.List.
type DirEntry struct {
	Path  string
	IsDir bool
	// Size in bytes; meaningful for files only.
	Size int64
}

// FileSystem is a capability object bound to one resolved backend
// configuration. Implementations are immutable after construction and safe
// for concurrent use; streams returned by the open calls are single-owner.
type FileSystem interface {
	// List returns the entries directly under path, non-recursively.
	// Fails with ErrPathNotFound if path does not exist and
	// ErrNotADirectory if path names a file.
	List(path string) ([]DirEntry, error)

	// OpenForRead opens the file at path for reading.
	OpenForRead(path string) (io.ReadCloser, error)

	// OpenForWrite opens the file at path for writing, creating parent
	// path segments implicitly where the backend supports it. Content is
	// not visible until the stream is closed.
	OpenForWrite(path string) (io.WriteCloser, error)

	// Delete removes the file at path.
	Delete(path string) error

	// Path joins relative onto this filesystem's root. Pure string
	// manipulation, no I/O.
	Path(relative string) string

	// Cd returns a view of this filesystem rebased under subpath. The
	// underlying connection, credentials and cached region resolution are
	// shared, not re-established.
	Cd(subpath string) FileSystem

	// Root returns the addressable root of this filesystem.
	Root() string
}
