package s3fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s3fs.toml")
	contents := `
region = "eu-west-2"
scheme = "http"
endpoint_override = "localhost:9000"
proxy = "http://user:pw@proxy.local:3128"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "eu-west-2", cfg.Region)
	assert.Equal(t, "localhost:9000", cfg.EndpointOverride)

	opts := NewOptions()
	require.NoError(t, cfg.apply(opts))
	assert.Equal(t, "eu-west-2", opts.Region)
	assert.Equal(t, "http", opts.Scheme)
	assert.Equal(t, "localhost:9000", opts.EndpointOverride)
	require.NotNil(t, opts.ProxyOptions)
	assert.Equal(t, "proxy.local", opts.ProxyOptions.Host)
}

func TestConfigDoesNotOverrideExplicit(t *testing.T) {
	cfg := &Config{Region: "eu-west-2", EndpointOverride: "localhost:9000"}

	opts := NewOptions()
	opts.Region = "us-west-1"
	require.NoError(t, cfg.apply(opts))
	assert.Equal(t, "us-west-1", opts.Region)
	assert.Equal(t, "localhost:9000", opts.EndpointOverride)
}

func TestConfigSchemeKeepsExplicit(t *testing.T) {
	cfg := &Config{Scheme: "http"}

	opts := NewOptions()
	opts.Scheme = "https"
	require.NoError(t, cfg.apply(opts))
	assert.Equal(t, "https", opts.Scheme)

	opts = NewOptions()
	require.NoError(t, cfg.apply(opts))
	assert.Equal(t, "http", opts.Scheme)
}

func TestLoadConfigBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s3fs.toml")
	require.NoError(t, os.WriteFile(path, []byte("region = [unclosed"), 0600))

	_, err := LoadConfig(path)
	require.Error(t, err)
}
