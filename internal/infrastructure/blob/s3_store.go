package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "FeedbackAnalyzer/internal/config"
	"FeedbackAnalyzer/internal/ports"
)

const contentType = "audio/mpeg"

// s3API is the slice of the S3 client the store needs; tests substitute it.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store keeps synthesized audio durably in an S3 bucket. Without a
// configured bucket the store reports unavailable and callers keep audio
// on local disk only.
type S3Store struct {
	bucket    string
	region    string
	available bool
	client    s3API
	logger    *slog.Logger
}

var _ ports.BlobStore = (*S3Store)(nil)

// NewS3Store builds the store; an unassigned bucket or an unloadable AWS
// config leaves it unavailable rather than failing startup.
func NewS3Store(ctx context.Context, cfg appconfig.BlobConfig, logger *slog.Logger) *S3Store {
	if logger == nil {
		logger = slog.Default()
	}

	store := &S3Store{bucket: cfg.Bucket, region: cfg.Region, logger: logger}
	if !cfg.Configured() {
		logger.Info("blob storage not configured, audio stays on local disk")
		return store
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		logger.Error("blob storage unavailable", "error", err)
		return store
	}

	store.client = s3.NewFromConfig(awsCfg)
	store.available = true
	return store
}

// Available reports whether uploads can be attempted.
func (s *S3Store) Available() bool {
	return s.available
}

// Upload copies the local file under the given key and returns the object
// URL plus its byte size.
func (s *S3Store) Upload(ctx context.Context, key, localPath string) (string, int64, error) {
	if !s.available {
		return "", 0, fmt.Errorf("blob storage not available")
	}

	file, err := os.Open(localPath)
	if err != nil {
		return "", 0, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("stat %s: %w", localPath, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return "", 0, fmt.Errorf("put object %s: %w", key, err)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
	s.logger.Info("audio uploaded to blob storage", "key", key, "bytes", info.Size())
	return url, info.Size(), nil
}

// Fetch streams the stored object; callers own closing the reader.
func (s *S3Store) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	if !s.available {
		return nil, fmt.Errorf("blob storage not available")
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return out.Body, nil
}
