package config

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config contains the [s3] settings.
type S3Config struct {
	Profile             string
	ExpectedBucketOwner *string
	Concurrency         int
}

// ForS3 returns configuration for uploading and downloading archives.
func (l *Loader) ForS3() (c S3Config) {
	sec := l.section("s3")

	c.Profile = sec.Key("profile").String()
	if l.Profile != "" {
		c.Profile = l.Profile
	}
	if v := sec.Key("expected-bucket-owner").String(); v != "" {
		c.ExpectedBucketOwner = aws.String(v)
	}
	c.Concurrency = sec.Key("concurrency").MustInt(0)

	return
}

// ForS3 calls Loader.ForS3 on the DefaultLoader instance.
func ForS3() S3Config {
	return DefaultLoader.ForS3()
}

// NewS3Client creates a new S3 client using the profile from ForS3.
//
// The client is cached so subsequent calls return the same instance.
func (l *Loader) NewS3Client(ctx context.Context, optFns ...func(*s3.Options)) (*s3.Client, error) {
	if c, ok := l.s3clientCache.Load("s3"); ok {
		return c.(*s3.Client), nil
	}

	var loadOpts []func(*config.LoadOptions) error
	if profile := l.ForS3().Profile; profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	c := s3.NewFromConfig(cfg, optFns...)
	l.s3clientCache.Store("s3", c)
	return c, nil
}

// NewS3Client calls Loader.NewS3Client on the DefaultLoader instance.
func NewS3Client(ctx context.Context, optFns ...func(*s3.Options)) (*s3.Client, error) {
	return DefaultLoader.NewS3Client(ctx, optFns...)
}
