package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/iliyamo/video-share-backend/internal/config"
)

// Uploader pushes local media files to an S3-compatible bucket and returns
// the hosted URL.  Failure is an explicit error; callers must not persist
// anything on failure so existing stored URLs stay intact.
type Uploader struct {
	cfg config.StorageConfig
}

func NewUploader(cfg config.StorageConfig) *Uploader {
	return &Uploader{cfg: cfg}
}

func (u *Uploader) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(u.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			u.cfg.AccessKey,
			u.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(u.cfg.Endpoint)
		o.UsePathStyle = true // MinIO serves buckets by path, not subdomain
	}), nil
}

// storageKey spreads objects by date so a bucket listing stays navigable.
func storageKey(ext string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("media/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

// Upload stores the file at localPath in the configured bucket and returns
// its public URL.  The temp file is left for the caller to clean up.
func (u *Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open upload file: %w", err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(localPath))
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	client, err := u.client(ctx)
	if err != nil {
		return "", fmt.Errorf("build s3 client: %w", err)
	}

	key := storageKey(ext)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return strings.TrimRight(u.cfg.PublicURL, "/") + "/" + key, nil
}
