package s3fs

import (
	"io"
	"strings"
)

// SubTreeFileSystem rebases every operation of an underlying FileSystem
// under a fixed base path. The underlying filesystem is shared, not copied:
// all subtrees observe one connection, one credential set and one cached
// region resolution.
type SubTreeFileSystem struct {
	base  string
	under FileSystem
}

var _ FileSystem = (*SubTreeFileSystem)(nil)

func NewSubTree(base string, under FileSystem) *SubTreeFileSystem {
	return &SubTreeFileSystem{base: joinPath(base), under: under}
}

// NewSubTreeFromUri parses uri, constructs the backing filesystem and
// rebases it at the URI's path component.
func NewSubTreeFromUri(uri string) (*SubTreeFileSystem, error) {
	parsed, err := ParseUri(uri)
	if err != nil {
		return nil, err
	}
	fs, err := NewFileSystem(parsed.Bucket, parsed.Options)
	if err != nil {
		return nil, err
	}
	return NewSubTree(parsed.Path, fs), nil
}

func (st *SubTreeFileSystem) Root() string {
	return st.under.Path(st.base)
}

func (st *SubTreeFileSystem) Path(relative string) string {
	return st.under.Path(joinPath(st.base, relative))
}

// Cd composes: st.Cd("a").Cd("b") addresses the same tree as st.Cd("a/b"),
// still sharing the original underlying filesystem.
func (st *SubTreeFileSystem) Cd(subpath string) FileSystem {
	return NewSubTree(joinPath(st.base, subpath), st.under)
}

// List lists path under the base; with an empty path the base itself is
// listed. Entry paths are returned relative to this subtree.
func (st *SubTreeFileSystem) List(path string) ([]DirEntry, error) {
	entries, err := st.under.List(joinPath(st.base, path))
	if err != nil {
		return nil, err
	}
	rebased := make([]DirEntry, len(entries))
	for i, e := range entries {
		e.Path = strings.TrimPrefix(strings.TrimPrefix(e.Path, st.base), "/")
		rebased[i] = e
	}
	return rebased, nil
}

func (st *SubTreeFileSystem) OpenForRead(path string) (io.ReadCloser, error) {
	return st.under.OpenForRead(joinPath(st.base, path))
}

func (st *SubTreeFileSystem) OpenForWrite(path string) (io.WriteCloser, error) {
	return st.under.OpenForWrite(joinPath(st.base, path))
}

func (st *SubTreeFileSystem) Delete(path string) error {
	return st.under.Delete(joinPath(st.base, path))
}
