package s3fs

import (
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/credentials/stscreds"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/go-ini/ini"
	"github.com/pkg/errors"
)

// Environment variables consulted by the credential chain.
const (
	envAccessKey    = "AWS_ACCESS_KEY_ID"
	envSecretKey    = "AWS_SECRET_ACCESS_KEY"
	envSessionToken = "AWS_SESSION_TOKEN"
	envProfile      = "AWS_PROFILE"
	envSharedFile   = "AWS_SHARED_CREDENTIALS_FILE"
)

const defaultProfile = "default"

// ResolveCredentials walks the credential chain and returns credentials from
// the first source that yields a complete pair. Sources, highest priority
// first: static keys on opts (explicit or URI-embedded), environment
// variables, the shared credentials file, and finally an assume-role flow
// when RoleArn is set. Exactly one source is used in full; partial
// credentials from any source are an error, never merged with another
// source.
func ResolveCredentials(opts *Options) (*credentials.Credentials, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	log := opts.logger()

	if opts.hasStaticCredentials() {
		log.WithField("source", "static").Debug("resolved credentials")
		return credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, opts.SessionToken), nil
	}

	creds, err := envCredentials()
	if err != nil {
		return nil, err
	}
	if creds != nil {
		log.WithField("source", "env").Debug("resolved credentials")
		return creds, nil
	}

	creds, err = sharedFileCredentials(opts)
	if err != nil {
		return nil, err
	}
	if creds != nil {
		log.WithField("source", "file").Debug("resolved credentials")
		return creds, nil
	}

	if opts.RoleArn != "" {
		log.WithField("source", "role").WithField("arn", opts.RoleArn).Debug("resolved credentials")
		return assumeRoleCredentials(opts)
	}

	return nil, errors.WithStack(ErrCredentialsNotFound)
}

func envCredentials() (*credentials.Credentials, error) {
	access := os.Getenv(envAccessKey)
	secret := os.Getenv(envSecretKey)
	if access == "" && secret == "" {
		return nil, nil
	}
	if access == "" || secret == "" {
		return nil, errors.Wrap(ErrPartialCredentials, "environment")
	}
	return credentials.NewStaticCredentials(access, secret, os.Getenv(envSessionToken)), nil
}

func sharedFileCredentials(opts *Options) (*credentials.Credentials, error) {
	filename := sharedCredentialsPath()
	if filename == "" {
		return nil, nil
	}
	if _, err := os.Stat(filename); err != nil {
		return nil, nil
	}

	profile := os.Getenv(envProfile)
	if profile == "" {
		profile = defaultProfile
	}
	provider := &sharedFileProvider{filename: filename, profile: profile}
	// Probe once so that a missing profile falls through the chain while a
	// partial profile fails fast.
	if _, err := provider.Retrieve(); err != nil {
		if errors.Is(err, ErrPartialCredentials) {
			return nil, err
		}
		return nil, nil
	}
	// File contents may change underneath us; reload on an interval.
	return credentials.NewCredentials(NewRefreshingProvider(provider, opts.LoadFrequency)), nil
}

func sharedCredentialsPath() string {
	if filename := os.Getenv(envSharedFile); filename != "" {
		return filename
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aws", "credentials")
}

// sharedFileProvider reads a named profile from an AWS-convention shared
// credentials file.
type sharedFileProvider struct {
	filename string
	profile  string
}

func (p *sharedFileProvider) Retrieve() (credentials.Value, error) {
	cfg, err := ini.Load(p.filename)
	if err != nil {
		return credentials.Value{}, errors.Wrapf(err, "loading credentials file %s", p.filename)
	}
	section, err := cfg.GetSection(p.profile)
	if err != nil {
		return credentials.Value{}, errors.Wrapf(err, "profile %q not found in %s", p.profile, p.filename)
	}
	access := section.Key("aws_access_key_id").String()
	secret := section.Key("aws_secret_access_key").String()
	if access == "" && secret == "" {
		return credentials.Value{}, errors.Errorf("profile %q in %s has no credentials", p.profile, p.filename)
	}
	if access == "" || secret == "" {
		return credentials.Value{}, errors.Wrapf(ErrPartialCredentials, "profile %q in %s", p.profile, p.filename)
	}
	return credentials.Value{
		AccessKeyID:     access,
		SecretAccessKey: secret,
		SessionToken:    section.Key("aws_session_token").String(),
		ProviderName:    "SharedFileProvider",
	}, nil
}

func (p *sharedFileProvider) IsExpired() bool {
	return false
}

func assumeRoleCredentials(opts *Options) (*credentials.Credentials, error) {
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}
	sess, err := session.NewSession(aws.NewConfig().WithRegion(region))
	if err != nil {
		return nil, errors.Wrapf(ErrCredentialsNotFound, "assuming role %s: %s", opts.RoleArn, err)
	}
	return stscreds.NewCredentials(sess, opts.RoleArn, func(p *stscreds.AssumeRoleProvider) {
		if opts.RoleSessionName != "" {
			p.RoleSessionName = opts.RoleSessionName
		}
		if opts.ExternalID != "" {
			p.ExternalID = aws.String(opts.ExternalID)
		}
	}), nil
}
