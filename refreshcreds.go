package s3fs

import (
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws/credentials"
)

// for tests
var now = time.Now

// RefreshingProvider wraps a credentials.Provider and reports itself expired
// once a fixed interval has elapsed since the last retrieval, forcing the
// wrapped source to be consulted again. Used for file-backed credentials,
// which can change underneath a long-lived FileSystem.
type RefreshingProvider struct {
	wrapped   credentials.Provider
	frequency time.Duration

	mu          sync.Mutex
	lastRefresh time.Time
}

var _ credentials.Provider = (*RefreshingProvider)(nil)

func NewRefreshingProvider(wrapped credentials.Provider, frequency time.Duration) *RefreshingProvider {
	if frequency <= 0 {
		frequency = time.Minute
	}
	return &RefreshingProvider{wrapped: wrapped, frequency: frequency}
}

func (p *RefreshingProvider) Retrieve() (credentials.Value, error) {
	v, err := p.wrapped.Retrieve()
	if err != nil {
		return credentials.Value{}, err
	}
	p.mu.Lock()
	p.lastRefresh = now()
	p.mu.Unlock()
	return v, nil
}

func (p *RefreshingProvider) IsExpired() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return now().Sub(p.lastRefresh) >= p.frequency
}
