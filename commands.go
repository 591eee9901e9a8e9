//
// s3fs - filesystem abstraction over S3-compatible object storage.
//

package s3fs

import (
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var reBucketPath = regexp.MustCompile("^(?:s3://)?([^/]+)/?(.*)$")
var out io.Writer = os.Stdout

// target is a command-line path argument resolved to a filesystem and a
// path within it.
type target struct {
	fsys FileSystem
	path string
}

func isS3Url(url string) bool {
	return strings.HasPrefix(url, "s3:")
}

func resolveTarget(client S3API, url string, defaults *Config) (*target, error) {
	if !isS3Url(url) {
		return &target{fsys: NewLocalFileSystem("."), path: url}, nil
	}
	parsed, err := ParseUri(url)
	if err != nil {
		return nil, err
	}
	if err := defaults.apply(parsed.Options); err != nil {
		return nil, err
	}
	var fsys FileSystem
	if client != nil {
		fsys, err = NewFileSystemWithClient(client, parsed.Bucket, parsed.Options)
	} else {
		fsys, err = NewFileSystem(parsed.Bucket, parsed.Options)
	}
	if err != nil {
		return nil, err
	}
	return &target{fsys: fsys, path: parsed.Path}, nil
}

// forEachFile walks path depth-first and invokes callback for every file.
// A path naming a single file gets exactly one callback.
func forEachFile(fsys FileSystem, path string, callback func(p string, size int64) error) error {
	entries, err := fsys.List(path)
	if errors.Is(err, ErrNotADirectory) {
		return callback(path, -1)
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir {
			if err := forEachFile(fsys, entry.Path, callback); err != nil {
				return err
			}
		} else if err := callback(entry.Path, entry.Size); err != nil {
			return err
		}
	}
	return nil
}

// forEachFileParallel feeds the walk through a worker pool.
func forEachFileParallel(fsys FileSystem, path string, callback func(p string, size int64) error) error {
	type item struct {
		path string
		size int64
	}

	var mu sync.Mutex
	var firstErr error
	wg := sync.WaitGroup{}
	q := make(chan item, 1000)
	for i := 0; i < parallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range q {
				if err := callback(it.path, it.size); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
			}
		}()
	}

	err := forEachFile(fsys, path, func(p string, size int64) error {
		q <- item{p, size}
		return nil
	})
	close(q)
	wg.Wait()
	if err != nil {
		return err
	}
	return firstErr
}

func listBuckets(conn S3API) error {
	names, err := ListBuckets(conn)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintf(out, "s3://%s/\n", name)
	}
	return nil
}

func lsCommand(t *target) error {
	entries, err := t.fsys.List(t.path)
	if err != nil {
		return err
	}
	var count, totalSize int64
	for _, entry := range entries {
		if entry.IsDir {
			fmt.Fprintf(out, "%s/\n", entry.Path)
			continue
		}
		if quiet {
			fmt.Fprintln(out, entry.Path)
		} else {
			fmt.Fprintf(out, "%s\t%db\n", entry.Path, entry.Size)
		}
		count++
		totalSize += entry.Size
	}
	if !quiet {
		fmt.Fprintf(out, "\n%d files, %d bytes\n", count, totalSize)
	}
	return nil
}

func catCommand(t *target) error {
	return forEachFile(t.fsys, t.path, func(p string, size int64) error {
		reader, err := t.fsys.OpenForRead(p)
		if err != nil {
			return err
		}
		defer reader.Close()
		_, err = io.Copy(out, reader)
		return err
	})
}

// relativeTo strips base from p; a file addressed directly keeps its
// base name.
func relativeTo(p, base string) string {
	if base == "" {
		return p
	}
	if p == base {
		return path.Base(p)
	}
	return strings.TrimPrefix(p, base+"/")
}

func getCommand(t *target, destDir string) error {
	dest := NewLocalFileSystem(destDir)
	return forEachFileParallel(t.fsys, t.path, func(p string, size int64) error {
		reader, err := t.fsys.OpenForRead(p)
		if err != nil {
			return err
		}
		defer reader.Close()

		fpath := relativeTo(p, t.path)
		writer, err := dest.OpenForWrite(fpath)
		if err != nil {
			return err
		}
		nbytes, err := io.Copy(writer, reader)
		if err != nil {
			writer.Close()
			return err
		}
		if err := writer.Close(); err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(out, "%s -> %s (%d bytes)\n", t.fsys.Path(p), fpath, nbytes)
		}
		return nil
	})
}

func putCommand(sources []string, dest *target) error {
	for _, source := range sources {
		src := NewLocalFileSystem(".")
		err := forEachFileParallel(src, source, func(p string, size int64) error {
			reader, err := src.OpenForRead(p)
			if err != nil {
				return err
			}
			defer reader.Close()

			destPath := joinPath(dest.path, relativeTo(p, source))
			writer, err := dest.fsys.OpenForWrite(destPath)
			if err != nil {
				return err
			}
			if _, err = io.Copy(writer, reader); err != nil {
				writer.Close()
				return err
			}
			if err := writer.Close(); err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintf(out, "A %s\n", dest.fsys.Path(destPath))
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func rmCommand(t *target) error {
	return forEachFile(t.fsys, t.path, func(p string, size int64) error {
		if !quiet {
			fmt.Fprintf(out, "D %s\n", t.fsys.Path(p))
		}
		return t.fsys.Delete(p)
	})
}

func extractBucket(url string) string {
	parts := reBucketPath.FindStringSubmatch(url)
	if parts == nil {
		return ""
	}
	return parts[1]
}

func mbCommand(client S3API, url string, defaults *Config) error {
	bucket := extractBucket(url)
	if bucket == "" {
		return errors.Wrap(ErrMalformedUri, url)
	}
	opts := NewOptions()
	if err := defaults.apply(opts); err != nil {
		return err
	}
	opts.AllowBucketCreation = true
	if opts.Region == "" {
		// the bucket does not exist yet, nothing to probe
		opts.Region = "us-east-1"
	}
	fsys, err := newBucketFilesystem(client, bucket, opts)
	if err != nil {
		return err
	}
	return fsys.CreateBucket()
}

func rbCommand(client S3API, url string, defaults *Config) error {
	bucket := extractBucket(url)
	if bucket == "" {
		return errors.Wrap(ErrMalformedUri, url)
	}
	opts := NewOptions()
	if err := defaults.apply(opts); err != nil {
		return err
	}
	opts.AllowBucketDeletion = true
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	fsys, err := newBucketFilesystem(client, bucket, opts)
	if err != nil {
		return err
	}
	return fsys.DeleteBucket()
}

func newBucketFilesystem(client S3API, bucket string, opts *Options) (*S3FileSystem, error) {
	if client != nil {
		return NewFileSystemWithClient(client, bucket, opts)
	}
	return NewFileSystem(bucket, opts)
}
