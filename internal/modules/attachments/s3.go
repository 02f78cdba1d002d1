package attachments

import (
	"context"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/aristath/tradebook/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// keyPrefix groups screenshots inside the bucket
const keyPrefix = "screenshots/"

// uploader is the part of manager.Uploader the store needs
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Store uploads attachments to an S3-compatible bucket.
// References have the form s3://bucket/key.
type S3Store struct {
	bucket   string
	uploader uploader
	now      func() time.Time
	log      zerolog.Logger
}

// NewS3Store builds a client from the default AWS chain, overridden by any
// static credentials, region or endpoint in cfg
func NewS3Store(ctx context.Context, cfg *config.AttachmentConfig, log zerolog.Logger) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required for the s3 attachment backend")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(cfg.S3Bucket, manager.NewUploader(client), log), nil
}

func newS3Store(bucket string, up uploader, log zerolog.Logger) *S3Store {
	return &S3Store{
		bucket:   bucket,
		uploader: up,
		now:      time.Now,
		log:      log.With().Str("component", "attachments").Str("backend", "s3").Logger(),
	}
}

// Save uploads body and returns its s3:// reference
func (s *S3Store) Save(ctx context.Context, tradeID int64, filename, contentType string, body io.Reader) (string, error) {
	if err := ValidateContentType(contentType); err != nil {
		return "", err
	}

	key := keyPrefix + ObjectName(tradeID, filename, contentType, s.now())
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(mediaType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload attachment to s3: %w", err)
	}

	ref := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	s.log.Info().Int64("trade_id", tradeID).Str("ref", ref).Str("location", out.Location).Msg("Attachment uploaded")
	return ref, nil
}
