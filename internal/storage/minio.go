// AngelaMos | 2026
// minio.go

package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/devassets/assets-api/internal/config"
)

type Minio struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinio(ctx context.Context, cfg config.MinioConfig) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(checkCtx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}

	if !exists {
		if err := client.MakeBucket(checkCtx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}

	return &Minio{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

func (m *Minio) Save(
	ctx context.Context,
	name string,
	r io.Reader,
	size int64,
	contentType string,
) error {
	if err := validateName(name); err != nil {
		return err
	}

	_, err := m.client.PutObject(ctx, m.bucket, name, r, size,
		minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				"uploaded-at": time.Now().UTC().Format(time.RFC3339),
			},
		})
	if err != nil {
		return fmt.Errorf("upload to minio: %w", err)
	}

	return nil
}

func (m *Minio) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	err := m.client.RemoveObject(ctx, m.bucket, name, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("delete from minio: %w", err)
	}

	return nil
}

func (m *Minio) URL(name string) string {
	return fmt.Sprintf("%s/%s/%s", m.publicURL, m.bucket, name)
}
