package s3fs

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// RegionAPI is the slice of the S3 API needed to discover a bucket's home
// region.
type RegionAPI interface {
	GetBucketLocation(*s3.GetBucketLocationInput) (*s3.GetBucketLocationOutput, error)
}

// RegionResolver discovers and caches bucket regions. Auto-detection costs a
// network round trip, so each bucket is probed at most once for the lifetime
// of the resolver; concurrent lookups for the same bucket share a single
// in-flight probe.
type RegionResolver struct {
	log logrus.FieldLogger

	mu    sync.Mutex
	cache map[string]string
	group singleflight.Group
}

// regions is the process-wide resolver shared by filesystems constructed
// without an explicit one.
var regions = NewRegionResolver()

func NewRegionResolver() *RegionResolver {
	return &RegionResolver{
		log:   discardLogger(),
		cache: map[string]string{},
	}
}

// Resolve returns the region for bucket. An explicit region is used verbatim
// with no network call. Otherwise the backend is probed through client and
// the result cached.
func (r *RegionResolver) Resolve(client RegionAPI, bucket, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	r.mu.Lock()
	region, ok := r.cache[bucket]
	r.mu.Unlock()
	if ok {
		return region, nil
	}

	v, err, _ := r.group.Do(bucket, func() (interface{}, error) {
		// a racing caller may have finished the probe already
		r.mu.Lock()
		region, ok := r.cache[bucket]
		r.mu.Unlock()
		if ok {
			return region, nil
		}
		region, err := r.probe(client, bucket)
		if err != nil {
			return "", err
		}
		r.mu.Lock()
		r.cache[bucket] = region
		r.mu.Unlock()
		return region, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *RegionResolver) probe(client RegionAPI, bucket string) (string, error) {
	output, err := client.GetBucketLocation(&s3.GetBucketLocationInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return "", errors.Wrapf(ErrRegionResolution, "bucket %q: %s", bucket, err)
	}
	region := aws.StringValue(output.LocationConstraint)
	if region == "" {
		// Buckets in the original region report no location constraint.
		region = "us-east-1"
	}
	r.log.WithFields(logrus.Fields{"bucket": bucket, "region": region}).Debug("resolved bucket region")
	return region, nil
}

// EndpointFor builds the backend endpoint URL. A non-empty override wins; a
// bare override host is given the scheme.
func EndpointFor(region, scheme, override string) string {
	if override != "" {
		if strings.Contains(override, "://") {
			return override
		}
		return fmt.Sprintf("%s://%s", scheme, override)
	}
	return fmt.Sprintf("%s://s3.%s.amazonaws.com", scheme, region)
}
