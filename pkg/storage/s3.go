package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"time"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var ErrUnavailable = errors.New("blob store unavailable")

type objectAPI interface {
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type uploadAPI interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Store keeps insurance document bytes in one bucket. Every call goes
// through a circuit breaker so a failing bucket fails fast instead of holding
// request goroutines for the full timeout.
type S3Store struct {
	objects  objectAPI
	uploader uploadAPI
	presign  presignAPI

	bucket     string
	timeout    time.Duration
	presignTTL time.Duration

	breaker *gobreaker.CircuitBreaker[any]
	log     *zap.Logger
}

func NewS3Store(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket name not set")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	// Without static keys the default chain (env, shared config, IAM role) applies.
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3Store(
		client,
		manager.NewUploader(client),
		s3.NewPresignClient(client),
		cfg,
		log,
	), nil
}

func newS3Store(objects objectAPI, uploader uploadAPI, presign presignAPI, cfg config.StorageConfig, log *zap.Logger) *S3Store {
	log = log.Named("storage")
	return &S3Store{
		objects:    objects,
		uploader:   uploader,
		presign:    presign,
		bucket:     cfg.Bucket,
		timeout:    cfg.RequestTimeout,
		presignTTL: cfg.PresignTTL,
		breaker:    newBreaker("s3:"+cfg.Bucket, log),
		log:        log,
	}
}

func (s *S3Store) Bucket() string {
	return s.bucket
}

// Put streams body to key. size is advisory and only used for logging.
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return s.do(ctx, "put", func(ctx context.Context) error {
		_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        body,
			ContentType: aws.String(contentType),
		})
		if err != nil {
			return fmt.Errorf("s3 upload failed: %w", err)
		}
		s.log.Debug("object stored", zap.String("key", key), zap.Int64("size", size))
		return nil
	})
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	return s.do(ctx, "delete", func(ctx context.Context) error {
		_, err := s.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return fmt.Errorf("s3 delete failed: %w", err)
		}
		return nil
	})
}

// PresignGet returns a time-limited GET URL that downloads the object under
// downloadName.
func (s *S3Store) PresignGet(ctx context.Context, key, downloadName string) (string, error) {
	in := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if downloadName != "" {
		in.ResponseContentDisposition = aws.String(
			mime.FormatMediaType("attachment", map[string]string{"filename": downloadName}),
		)
	}

	req, err := s.presign.PresignGetObject(ctx, in, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// Ping checks that the bucket exists and is reachable with our credentials.
func (s *S3Store) Ping(ctx context.Context) error {
	return s.do(ctx, "head_bucket", func(ctx context.Context) error {
		_, err := s.objects.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
		return err
	})
}

func (s *S3Store) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	_, err := s.breaker.Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		s.log.Warn("blob store call rejected", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	return err
}
