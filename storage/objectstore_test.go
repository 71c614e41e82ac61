package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	objects map[string]string
	types   map[string]string
}

func (f *fakePutter) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[key] = string(data)
	f.types[key] = opts.ContentType
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func TestPublishDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "games", "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "games", "a", "index.html"), []byte("<p>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "daily-insight.json"), []byte("{}"), 0o644))

	fake := &fakePutter{objects: map[string]string{}, types: map[string]string{}}
	p := &Publisher{client: fake, bucket: "site", prefix: "www"}

	n, err := p.PublishDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	keys := make([]string, 0, len(fake.objects))
	for k := range fake.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"www/daily-insight.json", "www/games/a/index.html", "www/index.html"}, keys)
	assert.Equal(t, "text/html; charset=utf-8", fake.types["www/index.html"])
	assert.Equal(t, "application/json", fake.types["www/daily-insight.json"])
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", contentType("images/x-card-daily.png"))
	assert.Equal(t, "application/octet-stream", contentType("LICENSE"))
}
