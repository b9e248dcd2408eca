package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Publisher uploads rendered reports to an S3-compatible bucket.
type Publisher struct {
	client objectStore
	bucket string

	mu          sync.Mutex
	bucketReady bool
}

func NewPublisher(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Publisher, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &Publisher{client: client, bucket: bucket}, nil
}

// Publish stores result under key, creating the bucket on first use, and
// returns the object's s3:// location.
func (p *Publisher) Publish(ctx context.Context, key string, result *Result) (string, error) {
	if p == nil {
		return "", ErrPublishingDisabled
	}
	if err := p.ensureBucket(ctx); err != nil {
		return "", err
	}
	info, err := p.client.PutObject(ctx, p.bucket, key, bytes.NewReader(result.Data), int64(len(result.Data)), minio.PutObjectOptions{
		ContentType: result.MimeType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", p.bucket, info.Key), nil
}

func (p *Publisher) ensureBucket(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bucketReady {
		return nil
	}
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", p.bucket, err)
	}
	if !exists {
		if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", p.bucket, err)
		}
	}
	p.bucketReady = true
	return nil
}
