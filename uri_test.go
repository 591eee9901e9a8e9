package s3fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUriBasic(t *testing.T) {
	parsed, err := ParseUri("s3://ak:sk@bucket/a/b?region=us-east-1")
	require.NoError(t, err)
	assert.Equal(t, "bucket", parsed.Bucket)
	assert.Equal(t, "a/b", parsed.Path)
	assert.Equal(t, "ak", parsed.Options.AccessKey)
	assert.Equal(t, "sk", parsed.Options.SecretKey)
	assert.Equal(t, "us-east-1", parsed.Options.Region)
}

func TestParseUriNoCredentials(t *testing.T) {
	parsed, err := ParseUri("s3://bucket/path/to/file.parquet")
	require.NoError(t, err)
	assert.Equal(t, "bucket", parsed.Bucket)
	assert.Equal(t, "path/to/file.parquet", parsed.Path)
	assert.Empty(t, parsed.Options.AccessKey)
	assert.Empty(t, parsed.Options.SecretKey)
}

func TestParseUriPercentDecoding(t *testing.T) {
	// reserved characters in credentials must arrive percent-encoded and
	// be decoded before use
	parsed, err := ParseUri("s3://AKIA:abc%2Fdef%3Agh@bucket/key")
	require.NoError(t, err)
	assert.Equal(t, "AKIA", parsed.Options.AccessKey)
	assert.Equal(t, "abc/def:gh", parsed.Options.SecretKey)
}

func TestParseUriBadEscape(t *testing.T) {
	_, err := ParseUri("s3://ak:bad%zzescape@bucket/key")
	require.ErrorIs(t, err, ErrMalformedUri)
}

func TestParseUriWrongScheme(t *testing.T) {
	_, err := ParseUri("gs://bucket/key")
	require.ErrorIs(t, err, ErrMalformedUri)

	_, err = ParseUri("bucket/key")
	require.ErrorIs(t, err, ErrMalformedUri)
}

func TestParseUriUnsupportedOption(t *testing.T) {
	_, err := ParseUri("s3://bucket/x?foo=bar")
	require.ErrorIs(t, err, ErrUnsupportedOption)
}

func TestParseUriBadSchemeOption(t *testing.T) {
	_, err := ParseUri("s3://bucket/x?scheme=ftp")
	require.ErrorIs(t, err, ErrUnsupportedOption)
}

func TestParseUriSchemeOption(t *testing.T) {
	parsed, err := ParseUri("s3://bucket/x?scheme=http")
	require.NoError(t, err)
	assert.Equal(t, "http", parsed.Options.Scheme)
}

func TestParseUriEndpointOverride(t *testing.T) {
	parsed, err := ParseUri("s3://bucket?endpoint_override=localhost:9000&scheme=http")
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", parsed.Options.EndpointOverride)

	// bucket-less root addressing is allowed with an override...
	parsed, err = ParseUri("s3://?endpoint_override=localhost:9000")
	require.NoError(t, err)
	assert.Empty(t, parsed.Bucket)

	// ...and refused without one
	_, err = ParseUri("s3:///key")
	require.ErrorIs(t, err, ErrMalformedUri)
}

func TestParseUriBucketLifecycleOptions(t *testing.T) {
	parsed, err := ParseUri("s3://bucket?allow_bucket_creation=true&allow_bucket_deletion=true")
	require.NoError(t, err)
	assert.True(t, parsed.Options.AllowBucketCreation)
	assert.True(t, parsed.Options.AllowBucketDeletion)

	_, err = ParseUri("s3://bucket?allow_bucket_creation=sometimes")
	require.ErrorIs(t, err, ErrUnsupportedOption)
}

func TestParseUriTrimsPath(t *testing.T) {
	parsed, err := ParseUri("s3://bucket//a//b/")
	require.NoError(t, err)
	assert.Equal(t, "a//b", parsed.Path) // interior normalization happens on use
	assert.Equal(t, "bucket/a/b", joinPath(parsed.Bucket, parsed.Path))
}
