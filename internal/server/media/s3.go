package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/temten/aexpo/internal/server/models"
)

// s3API is the subset of the S3 client used by the store.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Params configures the object-storage backend. All fields are required.
type S3Params struct {
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	BaseEndpoint string
	PublicURL    string
}

// S3Store persists assets in an S3-compatible bucket and addresses them by
// public URL. The storage key is derived from the category folder, a fresh
// UUID and an extension mapped from the mime type.
type S3Store struct {
	api       s3API
	bucket    string
	publicURL string
}

// NewS3Store builds the client with static credentials against the
// configured endpoint (path-style, for minio/garage-type backends).
// Incomplete configuration fails construction; a half-configured backend
// must not start serving.
func NewS3Store(ctx context.Context, p S3Params) (*S3Store, error) {
	if p.AccessKey == "" || p.SecretKey == "" || p.Bucket == "" || p.BaseEndpoint == "" || p.PublicURL == "" {
		return nil, errors.New("s3 configuration is incomplete")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(p.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.AccessKey,
			p.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(p.BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Store{
		api:       client,
		bucket:    p.Bucket,
		publicURL: strings.TrimRight(p.PublicURL, "/"),
	}, nil
}

func (s *S3Store) Put(ctx context.Context, data []byte, mimeType string, category Category) (models.AssetRef, error) {
	key := fmt.Sprintf("%s/%s%s", category, uuid.New(), ExtensionForMimeType(mimeType))

	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return models.AssetRef{}, fmt.Errorf("s3 upload: %w", err)
	}

	return models.AssetRef{
		Kind:     models.AssetURL,
		MimeType: mimeType,
		URL:      fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key),
	}, nil
}

func (s *S3Store) Delete(ctx context.Context, ref models.AssetRef) error {
	key, err := s.keyFromURL(ref.URL)
	if err != nil {
		return err
	}

	_, err = s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete: %w", err)
	}
	return nil
}

// keyFromURL recovers the object key from a public URL of the form
// {publicURL}/{bucket}/{category}/{uuid}{ext}: everything after the bucket
// segment.
func (s *S3Store) keyFromURL(fileURL string) (string, error) {
	parts := strings.Split(fileURL, "/")
	for i, part := range parts {
		if part == s.bucket && i < len(parts)-1 {
			return strings.Join(parts[i+1:], "/"), nil
		}
	}
	return "", fmt.Errorf("invalid s3 url: %s", fileURL)
}

var mimeToExtension = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
	"video/x-msvideo": ".avi",
	"video/webm":      ".webm",
}

// ExtensionForMimeType maps a mime type to a file extension; unknown types
// get no extension.
func ExtensionForMimeType(mimeType string) string {
	return mimeToExtension[mimeType]
}
