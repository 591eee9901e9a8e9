package s3fs

import (
	"bytes"
	"mime"
	"path/filepath"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
)

func guessMimeType(filename string) string {
	ext := mime.TypeByExtension(filepath.Ext(filename))
	if ext == "" {
		ext = "application/octet-stream"
	}
	return ext
}

// writeStream buffers writes in memory and uploads the object when closed.
// Content is not visible in the bucket until Close returns nil. A stream is
// single-owner: it must not be used from multiple goroutines.
type writeStream struct {
	fs  *S3FileSystem
	key string

	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

func newWriteStream(fs *S3FileSystem, key string) *writeStream {
	return &writeStream{fs: fs, key: key}
}

func (w *writeStream) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, errors.Errorf("write to closed stream %q", w.key)
	}
	return w.buf.Write(p)
}

func (w *writeStream) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	// Release the buffer whether or not the upload succeeds.
	defer w.buf.Reset()

	_, err := w.fs.conn.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(w.fs.bucket),
		Key:         aws.String(w.key),
		Body:        bytes.NewReader(w.buf.Bytes()),
		ContentType: aws.String(guessMimeType(w.key)),
	})
	return mapAwsError(err, w.key)
}
