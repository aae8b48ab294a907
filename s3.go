package folio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// storeTimeout bounds a single upload to the asset backend.
const storeTimeout = 30 * time.Second

// S3AssetStore implements AssetStore against any S3-compatible object
// store (AWS S3, Cloudflare R2, MinIO). Handles are random object keys;
// resolved URLs are built from the configured public base URL.
type S3AssetStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3AssetStore builds an S3 client with static credentials and an
// explicit endpoint override.
func NewS3AssetStore(ctx context.Context, cfg SiteConfig) (*S3AssetStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AssetAccessKey, cfg.AssetSecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("folio: init asset store: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.AssetEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AssetEndpoint)
		}
	})
	return &S3AssetStore{
		client:    client,
		bucket:    cfg.AssetBucket,
		publicURL: strings.TrimRight(cfg.AssetPublicURL, "/"),
	}, nil
}

// Store uploads the bytes under a fresh random key and returns the key as
// the asset handle. The content is passed through untouched; only the
// declared content type is attached.
func (s *S3AssetStore) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	handle := uuid.NewString()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(handle),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("%w: put object: %v", ErrAssetUnavailable, err)
	}
	return handle, nil
}

// Resolve verifies the object still exists and returns its public URL.
// An unknown handle resolves to "" without error; backend failures wrap
// ErrAssetUnavailable.
func (s *S3AssetStore) Resolve(ctx context.Context, handle string) (string, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(handle),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("%w: head object: %v", ErrAssetUnavailable, err)
	}
	return s.publicURL + "/" + handle, nil
}
