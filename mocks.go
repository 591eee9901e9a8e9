package s3fs

import (
	"bytes"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
)

// MockS3 is an in-memory S3API double used by the test suites and the
// feature steps. It honours prefix/delimiter/marker listing semantics and
// counts region probes so resolution behaviour is observable.
type MockS3 struct {
	mu      sync.Mutex
	buckets map[string]map[string][]byte
	regions map[string]string
	probes  int
}

var _ S3API = (*MockS3)(nil)

func NewMockS3() *MockS3 {
	return &MockS3{
		buckets: map[string]map[string][]byte{},
		regions: map[string]string{},
	}
}

// SetBucketRegion sets the region reported by GetBucketLocation. An empty
// region reports no location constraint, like a us-east-1 bucket.
func (m *MockS3) SetBucketRegion(bucket, region string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket]; !ok {
		m.buckets[bucket] = map[string][]byte{}
	}
	m.regions[bucket] = region
}

// Probes returns how many GetBucketLocation calls have been issued.
func (m *MockS3) Probes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probes
}

func noSuchBucket(bucket string) error {
	return awserr.NewRequestFailure(
		awserr.New(s3.ErrCodeNoSuchBucket, "bucket does not exist: "+bucket, nil),
		http.StatusNotFound, "")
}

func noSuchKey(key string) error {
	return awserr.NewRequestFailure(
		awserr.New(s3.ErrCodeNoSuchKey, "key does not exist: "+key, nil),
		http.StatusNotFound, "")
}

func (m *MockS3) GetBucketLocation(input *s3.GetBucketLocationInput) (*s3.GetBucketLocationOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes++
	bucket := aws.StringValue(input.Bucket)
	if _, ok := m.buckets[bucket]; !ok {
		return nil, noSuchBucket(bucket)
	}
	output := &s3.GetBucketLocationOutput{}
	if region := m.regions[bucket]; region != "" {
		output.LocationConstraint = aws.String(region)
	}
	return output, nil
}

func (m *MockS3) ListBuckets(*s3.ListBucketsInput) (*s3.ListBucketsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.buckets))
	for name := range m.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	output := &s3.ListBucketsOutput{}
	for _, name := range names {
		output.Buckets = append(output.Buckets, &s3.Bucket{Name: aws.String(name)})
	}
	return output, nil
}

func (m *MockS3) CreateBucket(input *s3.CreateBucketInput) (*s3.CreateBucketOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := aws.StringValue(input.Bucket)
	if _, ok := m.buckets[bucket]; ok {
		return nil, awserr.New(s3.ErrCodeBucketAlreadyOwnedByYou, "bucket exists: "+bucket, nil)
	}
	m.buckets[bucket] = map[string][]byte{}
	return &s3.CreateBucketOutput{}, nil
}

func (m *MockS3) DeleteBucket(input *s3.DeleteBucketInput) (*s3.DeleteBucketOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := aws.StringValue(input.Bucket)
	objects, ok := m.buckets[bucket]
	if !ok {
		return nil, noSuchBucket(bucket)
	}
	if len(objects) > 0 {
		return nil, awserr.New("BucketNotEmpty", "bucket not empty: "+bucket, nil)
	}
	delete(m.buckets, bucket)
	delete(m.regions, bucket)
	return &s3.DeleteBucketOutput{}, nil
}

func (m *MockS3) PutObject(input *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, awserr.New("SerializationError", "reading body", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := aws.StringValue(input.Bucket)
	objects, ok := m.buckets[bucket]
	if !ok {
		return nil, noSuchBucket(bucket)
	}
	objects[aws.StringValue(input.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *MockS3) GetObject(input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := aws.StringValue(input.Bucket)
	objects, ok := m.buckets[bucket]
	if !ok {
		return nil, noSuchBucket(bucket)
	}
	key := aws.StringValue(input.Key)
	data, ok := objects[key]
	if !ok {
		return nil, noSuchKey(key)
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (m *MockS3) HeadObject(input *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := aws.StringValue(input.Bucket)
	objects, ok := m.buckets[bucket]
	if !ok {
		return nil, noSuchBucket(bucket)
	}
	key := aws.StringValue(input.Key)
	data, ok := objects[key]
	if !ok {
		return nil, awserr.NewRequestFailure(
			awserr.New("NotFound", "key does not exist: "+key, nil),
			http.StatusNotFound, "")
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func (m *MockS3) DeleteObject(input *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := aws.StringValue(input.Bucket)
	objects, ok := m.buckets[bucket]
	if !ok {
		return nil, noSuchBucket(bucket)
	}
	// deleting a missing key succeeds, matching S3
	delete(objects, aws.StringValue(input.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (m *MockS3) ListObjects(input *s3.ListObjectsInput) (*s3.ListObjectsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := aws.StringValue(input.Bucket)
	objects, ok := m.buckets[bucket]
	if !ok {
		return nil, noSuchBucket(bucket)
	}

	prefix := aws.StringValue(input.Prefix)
	delimiter := aws.StringValue(input.Delimiter)
	marker := aws.StringValue(input.Marker)
	maxKeys := int(aws.Int64Value(input.MaxKeys))
	if maxKeys <= 0 {
		maxKeys = 1000
	}

	keys := make([]string, 0, len(objects))
	for key := range objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	output := &s3.ListObjectsOutput{IsTruncated: aws.Bool(false)}
	seenPrefixes := map[string]bool{}
	count := 0
	for _, key := range keys {
		if key <= marker || !strings.HasPrefix(key, prefix) {
			continue
		}
		if count == maxKeys {
			output.IsTruncated = aws.Bool(true)
			break
		}
		rest := key[len(prefix):]
		if delimiter != "" {
			if i := strings.Index(rest, delimiter); i >= 0 {
				common := prefix + rest[:i+len(delimiter)]
				if !seenPrefixes[common] {
					seenPrefixes[common] = true
					output.CommonPrefixes = append(output.CommonPrefixes,
						&s3.CommonPrefix{Prefix: aws.String(common)})
					count++
					output.NextMarker = aws.String(common)
				}
				continue
			}
		}
		output.Contents = append(output.Contents, &s3.Object{
			Key:  aws.String(key),
			Size: aws.Int64(int64(len(objects[key]))),
		})
		output.NextMarker = aws.String(key)
		count++
	}
	return output, nil
}
