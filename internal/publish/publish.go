// Package publish uploads compiled pipeline archives to S3 compatible
// storage.
package publish

import (
	"bytes"
	"context"
	"io"
	"path"
	"time"

	"github.com/buildkite/roko"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/askiada/go-kfp/internal/config"
	"github.com/askiada/go-kfp/internal/ctxlog"
)

const contentType = "application/gzip"

var (
	ErrEmptyArchive = errors.New("archive is empty")
	ErrEmptyName    = errors.New("pipeline name must be set")
)

// ObjectStore is the part of the minio client used by Publisher.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Publisher stores archives under <prefix>/<name>/<version>/<name>.tar.gz.
type Publisher struct {
	store         ObjectStore
	bucket        string
	region        string
	prefix        string
	maxAttempts   int
	retryInterval time.Duration
	sleep         func(time.Duration)
}

// Object describes an uploaded archive.
type Object struct {
	Bucket   string
	Key      string
	Size     int64
	ETag     string
	Attempts int
}

// New connects to the storage described by cfg.
func New(cfg config.PublishConfig) (*Publisher, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to create storage client")
	}

	return NewWithStore(client, cfg), nil
}

// NewWithStore uses store instead of a minio client.
func NewWithStore(store ObjectStore, cfg config.PublishConfig) *Publisher {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &Publisher{
		store:         store,
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		prefix:        cfg.Prefix,
		maxAttempts:   maxAttempts,
		retryInterval: cfg.RetryInterval,
		sleep:         time.Sleep,
	}
}

// Key returns the object key of an archive.
func (p *Publisher) Key(name, version string) string {
	if version == "" {
		version = "latest"
	}

	return path.Join(p.prefix, name, version, name+".tar.gz")
}

// Publish uploads archive, creating the bucket when it does not exist. Failed
// calls to the store are retried.
func (p *Publisher) Publish(ctx context.Context, name, version string, archive []byte) (*Object, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	if len(archive) == 0 {
		return nil, ErrEmptyArchive
	}

	logger := ctxlog.FromContext(ctx).With("bucket", p.bucket)
	obj := &Object{Bucket: p.bucket, Key: p.Key(name, version), Size: int64(len(archive))}

	err := p.retrier().DoWithContext(ctx, func(r *roko.Retrier) error {
		obj.Attempts = r.AttemptCount() + 1

		err := p.ensureBucket(ctx)
		if err != nil {
			logger.Warn("unable to check bucket", "attempt", obj.Attempts, "error", err)

			return err
		}

		info, err := p.store.PutObject(ctx, p.bucket, obj.Key, bytes.NewReader(archive), obj.Size, minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			logger.Warn("unable to upload archive", "key", obj.Key, "attempt", obj.Attempts, "error", err)

			return err
		}

		obj.ETag = info.ETag

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to publish %s after %d attempts", obj.Key, obj.Attempts)
	}

	logger.Info("archive published", "key", obj.Key, "size", obj.Size, "attempts", obj.Attempts)

	return obj, nil
}

func (p *Publisher) ensureBucket(ctx context.Context) error {
	exists, err := p.store.BucketExists(ctx, p.bucket)
	if err != nil {
		return errors.Wrap(err, "unable to check bucket")
	}

	if exists {
		return nil
	}

	err = p.store.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region})
	if err != nil {
		return errors.Wrap(err, "unable to create bucket")
	}

	return nil
}

func (p *Publisher) retrier() *roko.Retrier {
	return roko.NewRetrier(
		roko.WithMaxAttempts(p.maxAttempts),
		roko.WithStrategy(roko.Constant(p.retryInterval)),
		roko.WithSleepFunc(p.sleep),
	)
}
