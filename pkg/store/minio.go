package store

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageByName/config"
)

// MinioStore serves images out of a bucket. Paths map to object keys with
// forward slashes and no leading slash, so a root of /ratings/dark becomes the
// prefix ratings/dark.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(cfg config.Minio) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Minio client: %w", err)
	}
	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func objectKey(p string) string {
	return strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "/")
}

func (s *MinioStore) FileExists(ctx context.Context, p string) bool {
	_, err := s.client.StatObject(ctx, s.bucket, objectKey(p), minio.StatObjectOptions{})
	return err == nil
}

// DirExists treats a prefix as a directory when at least one object lives
// under it; buckets have no real directories.
func (s *MinioStore) DirExists(ctx context.Context, p string) bool {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:  objectKey(p) + "/",
		MaxKeys: 1,
	})
	obj, ok := <-objects
	return ok && obj.Err == nil
}

func (s *MinioStore) Open(ctx context.Context, p string) (*File, error) {
	key := objectKey(p)
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	// GetObject is lazy, Stat is the first round trip.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, key)
		}
		return nil, fmt.Errorf("failed to stat object %s: %w", key, err)
	}
	return &File{
		ReadSeekCloser: obj,
		Name:           path.Base(key),
		ModTime:        info.LastModified,
		Size:           info.Size,
	}, nil
}
