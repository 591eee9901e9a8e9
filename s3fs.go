package s3fs

import (
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// S3FileSystem is a FileSystem over one S3 bucket. It is bound to a single
// resolved configuration (bucket, region, endpoint, credentials) at
// construction and immutable afterwards, so it is safe for concurrent use.
type S3FileSystem struct {
	conn   S3API
	bucket string
	region string
	opts   *Options
	log    logrus.FieldLogger
}

var _ FileSystem = (*S3FileSystem)(nil)

// NewFileSystem constructs a filesystem rooted at bucket. Credential and
// region resolution happen here, never deferred to first use, so callers
// fail fast before attempting I/O.
func NewFileSystem(bucket string, opts *Options) (*S3FileSystem, error) {
	if opts == nil {
		opts = NewOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if bucket == "" && opts.EndpointOverride == "" {
		return nil, errors.Wrap(ErrMalformedUri, "missing bucket")
	}

	creds, err := ResolveCredentials(opts)
	if err != nil {
		return nil, err
	}

	region, err := resolveRegion(bucket, opts, func(region string) (RegionAPI, error) {
		return newClient(creds, region, opts)
	})
	if err != nil {
		return nil, err
	}

	conn, err := newClient(creds, region, opts)
	if err != nil {
		return nil, err
	}
	return NewFileSystemWithClient(conn, bucket, regionOpts(opts, region))
}

// NewFileSystemFromUri parses uri and constructs a filesystem for it. When
// the URI carries a path component the result is rebased there.
func NewFileSystemFromUri(uri string) (FileSystem, error) {
	parsed, err := ParseUri(uri)
	if err != nil {
		return nil, err
	}
	fs, err := NewFileSystem(parsed.Bucket, parsed.Options)
	if err != nil {
		return nil, err
	}
	if parsed.Path == "" {
		return fs, nil
	}
	return NewSubTree(parsed.Path, fs), nil
}

// NewFileSystemWithClient constructs a filesystem over an already-configured
// client. Credentials are assumed to live in the client; the region is still
// resolved (and probed if necessary) so that Cd/Path behave identically to
// the network constructors.
func NewFileSystemWithClient(client S3API, bucket string, opts *Options) (*S3FileSystem, error) {
	if opts == nil {
		opts = NewOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	region, err := resolveRegion(bucket, opts, func(string) (RegionAPI, error) {
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return &S3FileSystem{
		conn:   client,
		bucket: bucket,
		region: region,
		opts:   opts,
		log:    opts.logger(),
	}, nil
}

func resolveRegion(bucket string, opts *Options, clientFor func(region string) (RegionAPI, error)) (string, error) {
	if opts.Region != "" {
		return opts.Region, nil
	}
	if bucket == "" {
		// Bucket-less root addressing against a custom endpoint has no
		// home region to discover.
		return "us-east-1", nil
	}
	resolver := opts.RegionResolver
	if resolver == nil {
		resolver = regions
	}
	// The probe itself needs a client before the region is known; the
	// default region is good enough to reach GetBucketLocation.
	probe, err := clientFor("us-east-1")
	if err != nil {
		return "", err
	}
	return resolver.Resolve(probe, bucket, "")
}

func regionOpts(opts *Options, region string) *Options {
	if opts.Region == region {
		return opts
	}
	resolved := *opts
	resolved.Region = region
	return &resolved
}

func newClient(creds *credentials.Credentials, region string, opts *Options) (S3API, error) {
	cfg := aws.NewConfig().WithRegion(region).WithCredentials(creds)
	if opts.EndpointOverride != "" {
		cfg = cfg.WithEndpoint(EndpointFor(region, opts.scheme(), opts.EndpointOverride)).
			WithS3ForcePathStyle(true)
	}
	if opts.scheme() == "http" {
		cfg = cfg.WithDisableSSL(true)
	}
	if opts.ProxyOptions != nil {
		cfg = cfg.WithHTTPClient(&http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(opts.ProxyOptions.url())},
		})
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrapf(ErrBackendUnavailable, "creating session: %s", err)
	}
	return s3.New(sess), nil
}

// Bucket returns the bucket this filesystem is bound to.
func (fs *S3FileSystem) Bucket() string {
	return fs.bucket
}

// Region returns the resolved region.
func (fs *S3FileSystem) Region() string {
	return fs.region
}

func (fs *S3FileSystem) Root() string {
	return fs.bucket
}

func (fs *S3FileSystem) Path(relative string) string {
	return joinPath(fs.bucket, relative)
}

func (fs *S3FileSystem) Cd(subpath string) FileSystem {
	return NewSubTree(subpath, fs)
}

func (fs *S3FileSystem) List(path string) ([]DirEntry, error) {
	key := joinPath(path)
	prefix := ""
	if key != "" {
		prefix = key + "/"
	}

	var entries []DirEntry
	placeholder := false
	marker := ""
	for {
		output, err := fs.conn.ListObjects(&s3.ListObjectsInput{
			Bucket:    aws.String(fs.bucket),
			Prefix:    aws.String(prefix),
			Delimiter: aws.String("/"),
			Marker:    aws.String(marker),
		})
		if err != nil {
			return nil, mapAwsError(err, key)
		}
		for _, cp := range output.CommonPrefixes {
			entries = append(entries, DirEntry{
				Path:  strings.TrimSuffix(aws.StringValue(cp.Prefix), "/"),
				IsDir: true,
			})
		}
		for _, obj := range output.Contents {
			objKey := aws.StringValue(obj.Key)
			if objKey == prefix {
				// zero-byte directory placeholder
				placeholder = true
				continue
			}
			entries = append(entries, DirEntry{
				Path: objKey,
				Size: aws.Int64Value(obj.Size),
			})
		}
		if !aws.BoolValue(output.IsTruncated) {
			break
		}
		marker = aws.StringValue(output.NextMarker)
		if marker == "" && len(output.Contents) > 0 {
			marker = aws.StringValue(output.Contents[len(output.Contents)-1].Key)
		}
	}

	if len(entries) == 0 && key != "" {
		if placeholder {
			// the directory exists but holds nothing beyond its placeholder
			return []DirEntry{}, nil
		}
		switch err := fs.stat(key); {
		case err == nil:
			return nil, errors.Wrap(ErrNotADirectory, key)
		case errors.Is(err, ErrPathNotFound):
			return nil, errors.Wrap(ErrPathNotFound, key)
		default:
			return nil, err
		}
	}
	return entries, nil
}

func (fs *S3FileSystem) stat(key string) error {
	_, err := fs.conn.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(key),
	})
	return mapAwsError(err, key)
}

func (fs *S3FileSystem) OpenForRead(path string) (io.ReadCloser, error) {
	key := joinPath(path)
	output, err := fs.conn.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapAwsError(err, key)
	}
	return output.Body, nil
}

func (fs *S3FileSystem) OpenForWrite(path string) (io.WriteCloser, error) {
	key := joinPath(path)
	if key == "" {
		return nil, errors.Wrap(ErrPathNotFound, "empty path")
	}
	return newWriteStream(fs, key), nil
}

func (fs *S3FileSystem) Delete(path string) error {
	key := joinPath(path)
	_, err := fs.conn.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(key),
	})
	return mapAwsError(err, key)
}

// CreateBucket creates the bucket this filesystem is bound to. Refused
// unless the filesystem was constructed with AllowBucketCreation.
func (fs *S3FileSystem) CreateBucket() error {
	if !fs.opts.AllowBucketCreation {
		return errors.Wrapf(ErrPermission, "bucket creation not allowed for %q", fs.bucket)
	}
	_, err := fs.conn.CreateBucket(&s3.CreateBucketInput{
		Bucket: aws.String(fs.bucket),
	})
	return mapAwsError(err, fs.bucket)
}

// DeleteBucket deletes the bucket this filesystem is bound to. Refused
// unless the filesystem was constructed with AllowBucketDeletion.
func (fs *S3FileSystem) DeleteBucket() error {
	if !fs.opts.AllowBucketDeletion {
		return errors.Wrapf(ErrPermission, "bucket deletion not allowed for %q", fs.bucket)
	}
	_, err := fs.conn.DeleteBucket(&s3.DeleteBucketInput{
		Bucket: aws.String(fs.bucket),
	})
	return mapAwsError(err, fs.bucket)
}

// ListBuckets returns the names of the buckets visible to conn.
func ListBuckets(conn S3API) ([]string, error) {
	output, err := conn.ListBuckets(nil)
	if err != nil {
		return nil, mapAwsError(err, "")
	}
	var names []string
	for _, b := range output.Buckets {
		names = append(names, aws.StringValue(b.Name))
	}
	return names, nil
}

// joinPath joins path segments with single slashes, dropping empty segments
// so doubled or trailing slashes never survive.
func joinPath(parts ...string) string {
	var segments []string
	for _, part := range parts {
		for _, seg := range strings.Split(part, "/") {
			if seg != "" {
				segments = append(segments, seg)
			}
		}
	}
	return strings.Join(segments, "/")
}
