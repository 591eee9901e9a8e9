//
// s3fs - a filesystem abstraction over S3-compatible object storage.
//

package s3fs

import (
	"net/http"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/pkg/errors"
)

var (
	// ErrMalformedUri is returned when a storage URI cannot be parsed,
	// including when percent-decoding of embedded credentials fails.
	ErrMalformedUri = errors.New("malformed storage URI")

	// ErrUnsupportedOption is returned when a URI carries an unknown
	// query parameter or a bad value for a known one. Richer
	// configuration goes through Options, not URIs.
	ErrUnsupportedOption = errors.New("unsupported option")

	// ErrPartialCredentials is returned when exactly one of access key and
	// secret key is supplied by a credential source.
	ErrPartialCredentials = errors.New("access key and secret key must be provided together")

	// ErrCredentialsNotFound is returned when no source in the credential
	// chain yields a complete credential pair.
	ErrCredentialsNotFound = errors.New("no credentials found")

	// ErrRegionResolution is returned when the bucket region probe fails,
	// typically because the bucket does not exist or is unreachable.
	ErrRegionResolution = errors.New("could not resolve bucket region")

	ErrPathNotFound       = errors.New("path does not exist")
	ErrNotADirectory      = errors.New("not a directory")
	ErrPermission         = errors.New("permission denied")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// mapAwsError translates aws-sdk error codes into the filesystem error
// taxonomy, keeping the original error as wrapped context.
func mapAwsError(err error, path string) error {
	if err == nil {
		return nil
	}
	if reqErr, ok := err.(awserr.RequestFailure); ok {
		switch reqErr.StatusCode() {
		case http.StatusNotFound:
			return errors.Wrap(ErrPathNotFound, path)
		case http.StatusForbidden, http.StatusUnauthorized:
			return errors.Wrap(ErrPermission, path)
		}
	}
	if awsErr, ok := err.(awserr.Error); ok {
		switch awsErr.Code() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return errors.Wrap(ErrPathNotFound, path)
		case "AccessDenied", "Forbidden":
			return errors.Wrap(ErrPermission, path)
		case "RequestError", "RequestCanceled", "SerializationError":
			return errors.Wrapf(ErrBackendUnavailable, "%s: %s", path, awsErr.Message())
		}
		return errors.Wrapf(ErrBackendUnavailable, "%s: %s", path, awsErr.Code())
	}
	return err
}
