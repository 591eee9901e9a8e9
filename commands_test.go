package s3fs

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMain(t *testing.T, conn *MockS3, args ...string) (string, int) {
	t.Helper()
	var buf bytes.Buffer
	code := Main(conn, append([]string{"s3fs"}, args...), &buf)
	return buf.String(), code
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(old) })
	return dir
}

func TestMainLsBuckets(t *testing.T) {
	conn := NewMockS3()
	conn.SetBucketRegion("bucket1", "")
	conn.SetBucketRegion("bucket2", "")

	output, code := runMain(t, conn, "ls")
	assert.Equal(t, 0, code)
	assert.Equal(t, "s3://bucket1/\ns3://bucket2/\n", output)
}

func TestMainLsKeys(t *testing.T) {
	conn := NewMockS3()
	conn.SetBucketRegion("lsbucket", "")
	putObject(t, conn, "lsbucket", "Nelson", "abcde")
	putObject(t, conn, "lsbucket", "Neo", "abcd")

	output, code := runMain(t, conn, "ls", "s3://lsbucket/")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Nelson\t5b\nNeo\t4b\n\n2 files, 9 bytes\n", output)
}

func TestMainCat(t *testing.T) {
	conn := NewMockS3()
	conn.SetBucketRegion("catbucket", "")
	putObject(t, conn, "catbucket", "a", "abcd")
	putObject(t, conn, "catbucket", "b", "efghi")

	output, code := runMain(t, conn, "cat", "s3://catbucket/")
	assert.Equal(t, 0, code)
	assert.Equal(t, "abcdefghi", output)
}

func TestMainCatSingleKey(t *testing.T) {
	conn := NewMockS3()
	conn.SetBucketRegion("catbucket2", "")
	putObject(t, conn, "catbucket2", "dir/a.txt", "only")

	output, code := runMain(t, conn, "cat", "s3://catbucket2/dir/a.txt")
	assert.Equal(t, 0, code)
	assert.Equal(t, "only", output)
}

func TestMainCatMissing(t *testing.T) {
	conn := NewMockS3()
	conn.SetBucketRegion("catbucket3", "")

	output, code := runMain(t, conn, "cat", "s3://catbucket3/nothing")
	assert.Equal(t, 1, code)
	assert.Contains(t, output, "error:")
}

func TestMainGet(t *testing.T) {
	conn := NewMockS3()
	conn.SetBucketRegion("getbucket", "")
	putObject(t, conn, "getbucket", "Nelson", "abcde")
	putObject(t, conn, "getbucket", "dir/Neo", "abcd")
	chdirTemp(t)

	_, code := runMain(t, conn, "-q", "get", "s3://getbucket/")
	assert.Equal(t, 0, code)

	data, err := os.ReadFile("Nelson")
	require.NoError(t, err)
	assert.Equal(t, "abcde", string(data))
	data, err = os.ReadFile(filepath.Join("dir", "Neo"))
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(data))
}

func TestMainPut(t *testing.T) {
	conn := NewMockS3()
	conn.SetBucketRegion("putbucket", "")
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hi there"), 0666))

	_, code := runMain(t, conn, "-q", "put", "hello.txt", "s3://putbucket/incoming/")
	assert.Equal(t, 0, code)

	output, err := conn.GetObject(&s3.GetObjectInput{
		Bucket: aws.String("putbucket"),
		Key:    aws.String("incoming/hello.txt"),
	})
	require.NoError(t, err)
	data, err := io.ReadAll(output.Body)
	require.NoError(t, err)
	assert.Equal(t, "hi there", string(data))
}

func TestMainRm(t *testing.T) {
	conn := NewMockS3()
	conn.SetBucketRegion("rmbucket", "")
	putObject(t, conn, "rmbucket", "x.txt", "x")

	output, code := runMain(t, conn, "rm", "s3://rmbucket/x.txt")
	assert.Equal(t, 0, code)
	assert.Equal(t, "D rmbucket/x.txt\n", output)

	_, err := conn.GetObject(&s3.GetObjectInput{
		Bucket: aws.String("rmbucket"),
		Key:    aws.String("x.txt"),
	})
	require.Error(t, err)
}

func TestMainMbRb(t *testing.T) {
	conn := NewMockS3()

	_, code := runMain(t, conn, "mb", "s3://freshbucket")
	assert.Equal(t, 0, code)
	names, err := ListBuckets(conn)
	require.NoError(t, err)
	assert.Equal(t, []string{"freshbucket"}, names)

	_, code = runMain(t, conn, "rb", "s3://freshbucket")
	assert.Equal(t, 0, code)
	names, err = ListBuckets(conn)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestMainUnsupportedUriOption(t *testing.T) {
	conn := NewMockS3()
	conn.SetBucketRegion("optbucket", "")

	output, code := runMain(t, conn, "ls", "s3://optbucket/?foo=bar")
	assert.Equal(t, 1, code)
	assert.Contains(t, output, "error:")
}
