package s3fs

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParsedUri is the result of parsing a storage URI:
//
//	s3://[access_key:secret_key@]bucket[/path][?region=R&scheme=S&endpoint_override=E]
//
// Credentials embedded in the URI must be percent-encoded; they are decoded
// during parsing and a decoding failure is an error, never a pass-through.
type ParsedUri struct {
	Bucket  string
	Path    string
	Options *Options
}

// uriOptionKeys are the only query parameters a storage URI may carry.
// Anything richer must be configured through Options at construction time;
// unknown parameters fail with ErrUnsupportedOption.
var uriOptionKeys = map[string]bool{
	"region":                true,
	"scheme":                true,
	"endpoint_override":     true,
	"allow_bucket_creation": true,
	"allow_bucket_deletion": true,
}

// ParseUri parses a storage URI into a bucket, a path and connection options.
func ParseUri(uri string) (*ParsedUri, error) {
	u, err := url.Parse(uri)
	if err != nil {
		// url.Parse rejects invalid percent-escapes in embedded
		// credentials, among other malformations.
		return nil, errors.Wrapf(ErrMalformedUri, "%q: %s", uri, err)
	}
	if u.Scheme != "s3" {
		return nil, errors.Wrapf(ErrMalformedUri, "%q: unrecognized scheme %q", uri, u.Scheme)
	}

	opts := NewOptions()
	if u.User != nil {
		opts.AccessKey = u.User.Username()
		opts.SecretKey, _ = u.User.Password()
		if err := opts.Validate(); err != nil {
			return nil, errors.Wrapf(ErrMalformedUri, "%q: %s", uri, err)
		}
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedUri, "%q: %s", uri, err)
	}
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := query.Get(k)
		if !uriOptionKeys[k] {
			return nil, errors.Wrapf(ErrUnsupportedOption, "%q: query parameter %q", uri, k)
		}
		switch k {
		case "region":
			opts.Region = v
		case "scheme":
			if v != "http" && v != "https" {
				return nil, errors.Wrapf(ErrUnsupportedOption, "%q: scheme %q", uri, v)
			}
			opts.Scheme = v
		case "endpoint_override":
			opts.EndpointOverride = v
		case "allow_bucket_creation":
			opts.AllowBucketCreation, err = strconv.ParseBool(v)
		case "allow_bucket_deletion":
			opts.AllowBucketDeletion, err = strconv.ParseBool(v)
		}
		if err != nil {
			return nil, errors.Wrapf(ErrUnsupportedOption, "%q: bad value for %q", uri, k)
		}
	}

	bucket := u.Host
	if bucket == "" && opts.EndpointOverride == "" {
		// Bucket-less root addressing is only meaningful against a
		// custom (emulated) endpoint.
		return nil, errors.Wrapf(ErrMalformedUri, "%q: missing bucket", uri)
	}

	return &ParsedUri{
		Bucket:  bucket,
		Path:    strings.Trim(u.Path, "/"),
		Options: opts,
	}, nil
}
