// Package remote moves archives between the local filesystem and S3.
package remote

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ContentType is the content type of uploaded archives.
const ContentType = "application/zip"

// URI is a parsed "s3://bucket/key" location.
type URI struct {
	Bucket, Key string
}

// IsURI returns true if text looks like an S3 URI.
func IsURI(text string) bool {
	return strings.HasPrefix(text, "s3://")
}

// ParseURI parses text in format s3://bucket/key.
//
// Bucket names are not validated, but both bucket and key must be non-empty.
func ParseURI(text string) (u URI, err error) {
	if !IsURI(text) {
		return u, fmt.Errorf(`"%s" does not start with s3://`, text)
	}

	var ok bool
	if u.Bucket, u.Key, ok = strings.Cut(strings.TrimPrefix(text, "s3://"), "/"); !ok || u.Bucket == "" || u.Key == "" {
		return URI{}, fmt.Errorf(`"%s" is not in format s3://bucket/key`, text)
	}

	return u, nil
}

func (u URI) String() string {
	return "s3://" + u.Bucket + "/" + u.Key
}

// API is the subset of the S3 client used by manager.Uploader and manager.Downloader.
type API interface {
	manager.UploadAPIClient
	manager.DownloadAPIClient
}

// Client uploads and downloads archives.
type Client struct {
	// S3 is usually an *s3.Client.
	S3 API

	// Concurrency is the number of parts transferred in parallel. Default to the manager package's default.
	Concurrency int

	// ExpectedBucketOwner is passed to every request if given.
	ExpectedBucketOwner *string

	// Logger receives per-part progress. Default to the global zerolog logger.
	Logger *zerolog.Logger
}

func (c *Client) logger() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return &log.Logger
}

// Upload uploads the archive read from body to the given location.
func (c *Client) Upload(ctx context.Context, u URI, body io.Reader) error {
	uploader := manager.NewUploader(c.S3, func(uploader *manager.Uploader) {
		if c.Concurrency > 0 {
			uploader.Concurrency = c.Concurrency
		}
	}, LogSuccessfulUploadPart(c.logger()))

	if _, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:              aws.String(u.Bucket),
		Key:                 aws.String(u.Key),
		Body:                body,
		ContentType:         aws.String(ContentType),
		ExpectedBucketOwner: c.ExpectedBucketOwner,
	}); err != nil {
		return fmt.Errorf(`upload to "%s" error: %w`, u, err)
	}

	return nil
}

// Download downloads the archive at the given location into w, returning the number of bytes written.
func (c *Client) Download(ctx context.Context, u URI, w io.WriterAt) (int64, error) {
	downloader := manager.NewDownloader(c.S3, func(downloader *manager.Downloader) {
		if c.Concurrency > 0 {
			downloader.Concurrency = c.Concurrency
		}
	}, LogSuccessfulDownloadPart(c.logger()))

	n, err := downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket:              aws.String(u.Bucket),
		Key:                 aws.String(u.Key),
		ExpectedBucketOwner: c.ExpectedBucketOwner,
	})
	if err != nil {
		return n, fmt.Errorf(`download from "%s" error: %w`, u, err)
	}

	return n, nil
}
