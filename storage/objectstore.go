package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/amankumarsingh77/gamerscrawl/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

type objectPutter interface {
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Publisher uploads the generated site to an S3-compatible bucket.
type Publisher struct {
	client objectPutter
	bucket string
	prefix string
}

func NewPublisher(cfg config.ObjectStoreConfig) (*Publisher, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	bucket := strings.TrimSpace(cfg.Bucket)
	if endpoint == "" {
		return nil, fmt.Errorf("object store: endpoint is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("object store: bucket is required")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object store: create client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("object store: check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("object store: create bucket: %w", err)
		}
	}

	return &Publisher{client: client, bucket: bucket, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

// PublishDir uploads every regular file under dir and returns the count.
func (p *Publisher) PublishDir(ctx context.Context, dir string) (int, error) {
	uploaded := 0
	err := filepath.WalkDir(dir, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, file)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}

		key := p.objectKey(rel)
		_, err = p.client.PutObject(ctx, p.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: contentType(rel),
		})
		if err != nil {
			return fmt.Errorf("object store: put object %s: %w", key, err)
		}
		uploaded++
		log.Debugf("uploaded %s", key)
		return nil
	})
	if err != nil {
		return uploaded, err
	}
	log.Printf("Published %d files to %s", uploaded, p.bucket)
	return uploaded, nil
}

func (p *Publisher) objectKey(rel string) string {
	key := filepath.ToSlash(rel)
	if p.prefix != "" {
		key = path.Join(p.prefix, key)
	}
	return key
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".json":
		return "application/json"
	case ".css":
		return "text/css; charset=utf-8"
	case ".xml":
		return "application/xml"
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
