package remote

import (
	"context"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// LoggingUploadAPIClient provides a post-hook on the UploadPart and PutObject calls that manager.Uploader makes.
//
// The hooks may be called from any of the goroutines that upload parts in parallel.
type LoggingUploadAPIClient struct {
	manager.UploadAPIClient
	PostPutObject  func(*s3.PutObjectOutput, error)
	PostUploadPart func(*s3.UploadPartOutput, error)
}

var _ manager.UploadAPIClient = &LoggingUploadAPIClient{}

func (l *LoggingUploadAPIClient) PutObject(ctx context.Context, input *s3.PutObjectInput, f ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	o, err := l.UploadAPIClient.PutObject(ctx, input, f...)
	if l.PostPutObject != nil {
		l.PostPutObject(o, err)
	}
	return o, err
}

func (l *LoggingUploadAPIClient) UploadPart(ctx context.Context, input *s3.UploadPartInput, f ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	o, err := l.UploadAPIClient.UploadPart(ctx, input, f...)
	if l.PostUploadPart != nil {
		l.PostUploadPart(o, err)
	}
	return o, err
}

// LogSuccessfulUploadPart wraps manager.Uploader's client to log successfully uploaded parts at Info level.
//
// The logger keeps a running tally of the completed parts: `uploaded %d parts so far`.
func LogSuccessfulUploadPart(logger *zerolog.Logger) func(*manager.Uploader) {
	return func(uploader *manager.Uploader) {
		client := &LoggingUploadAPIClient{UploadAPIClient: uploader.S3}
		uploader.S3 = client

		var n atomic.Int32
		client.PostUploadPart = func(_ *s3.UploadPartOutput, err error) {
			if err == nil {
				logger.Info().Msgf("uploaded %d parts so far", n.Add(1))
			}
		}
		client.PostPutObject = func(_ *s3.PutObjectOutput, err error) {
			if err == nil {
				logger.Info().Msg("uploaded in a single part")
			}
		}
	}
}

// LoggingDownloadAPIClient provides a post-hook on the GetObject calls that manager.Downloader makes.
//
// The hook may be called from any of the goroutines that download parts in parallel.
type LoggingDownloadAPIClient struct {
	manager.DownloadAPIClient
	PostGetObject func(*s3.GetObjectOutput, error)
}

var _ manager.DownloadAPIClient = &LoggingDownloadAPIClient{}

func (l *LoggingDownloadAPIClient) GetObject(ctx context.Context, input *s3.GetObjectInput, f ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	o, err := l.DownloadAPIClient.GetObject(ctx, input, f...)
	if l.PostGetObject != nil {
		l.PostGetObject(o, err)
	}
	return o, err
}

// LogSuccessfulDownloadPart wraps manager.Downloader's client to log successfully downloaded parts at Info level.
//
// The logger keeps a running tally of the completed parts: `downloaded %d parts so far`.
func LogSuccessfulDownloadPart(logger *zerolog.Logger) func(*manager.Downloader) {
	return func(downloader *manager.Downloader) {
		client := &LoggingDownloadAPIClient{DownloadAPIClient: downloader.S3}
		downloader.S3 = client

		var n atomic.Int32
		client.PostGetObject = func(_ *s3.GetObjectOutput, err error) {
			if err == nil {
				logger.Info().Msgf("downloaded %d parts so far", n.Add(1))
			}
		}
	}
}
