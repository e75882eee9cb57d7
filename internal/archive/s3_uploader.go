// internal/archive/s3_uploader.go
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"trino-query-log/internal/config"
	"trino-query-log/internal/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfgLib "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter 는 S3Uploader 가 사용하는 S3 API 부분집합.
// *s3.Client 가 구현하며, 테스트에서는 fake 를 넣는다.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

// S3Uploader
// ------------------------------------------------------------
//   - gzip JSONL 바이트 업로드 (UploadBytesWithRetryCtx)
//   - 로컬 DLQ 파일 업로드 (UploadFileWithRetryCtx)
//
// 재시도는 애플리케이션에서만 한다. (SDK retry = 0)
// 시도마다 S3Timeout 을 적용하고, ctx 가 끝나면 즉시 중단한다.
type S3Uploader struct {
	cfg     config.ArchiveConfig
	metrics *metrics.Metrics
	client  ObjectPutter

	backoff time.Duration
}

// NewS3Uploader 는 AWS 기본 credential chain 으로 S3 client 를 만든다.
func NewS3Uploader(ctx context.Context, cfg config.ArchiveConfig, m *metrics.Metrics) (*S3Uploader, error) {
	awsCfg, err := awsCfgLib.LoadDefaultConfig(ctx, awsCfgLib.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.RetryMaxAttempts = 0
	})
	return newS3UploaderWithClient(cfg, m, client), nil
}

func newS3UploaderWithClient(cfg config.ArchiveConfig, m *metrics.Metrics, client ObjectPutter) *S3Uploader {
	return &S3Uploader{
		cfg:     cfg,
		metrics: m,
		client:  client,
		backoff: initialBackoff,
	}
}

// UploadBytesWithRetryCtx 는 메모리의 body 를 key 로 업로드한다.
// 시도마다 새 reader 를 만든다.
func (u *S3Uploader) UploadBytesWithRetryCtx(ctx context.Context, key string, body []byte) error {
	return u.withRetry(ctx, func() error {
		return u.putObject(ctx, key, bytes.NewReader(body), int64(len(body)))
	})
}

// UploadFileWithRetryCtx 는 로컬 DLQ 파일을 업로드한다.
// 시도 전마다 Seek(0) 으로 되감는다.
func (u *S3Uploader) UploadFileWithRetryCtx(ctx context.Context, key string, f io.ReadSeeker, size int64) error {
	return u.withRetry(ctx, func() error {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
		return u.putObject(ctx, key, f, size)
	})
}

// withRetry 는 S3AppRetries 회까지 put 을 시도한다.
// backoff 는 200ms 부터 두 배씩, 최대 2초.
func (u *S3Uploader) withRetry(ctx context.Context, put func() error) error {
	var lastErr error
	backoff := u.backoff

	for attempt := 1; attempt <= u.cfg.S3AppRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := put()
		if err == nil {
			return nil
		}
		lastErr = err
		u.metrics.S3PutErrors.Inc()

		if attempt == u.cfg.S3AppRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
	return lastErr
}

// putObject 는 PutObject 1회 호출. 시도당 S3Timeout.
func (u *S3Uploader) putObject(ctx context.Context, key string, body io.Reader, size int64) error {
	ctx2, cancel := context.WithTimeout(ctx, u.cfg.S3Timeout)
	defer cancel()

	_, err := u.client.PutObject(ctx2, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	return err
}
