package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"scanmate/core/storage"
	"scanmate/feature/inventory"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Object is one archived artifact.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// Service keeps export artifacts and replaced store files in a bucket under
// <device>/<mode>/<kind>/<name>.
type Service struct {
	client storage.Client
	bucket string
	region string
	device string
	retain int
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates an archive service.
func NewService(client storage.Client, cfg storage.Config, device string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if device == "" {
		device = "device"
	}
	return &Service{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		device: device,
		retain: cfg.Retain,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// EnsureBucket creates the archive bucket if needed.
func (s *Service) EnsureBucket(ctx context.Context) error {
	return storage.EnsureBucket(ctx, s.client, s.bucket, s.region)
}

func (s *Service) prefix(mode inventory.Mode, kind string) string {
	return path.Join(s.device, string(mode), kind) + "/"
}

// PutArtifact uploads data and prunes older artifacts of the same kind.
func (s *Service) PutArtifact(ctx context.Context, mode inventory.Mode, kind, name, contentType string, data []byte) (string, error) {
	key := s.prefix(mode, kind) + name
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	s.logger.Info("Archived artifact", zap.String("key", key), zap.Int("bytes", len(data)))

	if _, err := s.Prune(ctx, mode, kind); err != nil {
		s.logger.Warn("Failed to prune archive", zap.String("prefix", s.prefix(mode, kind)), zap.Error(err))
	}
	return key, nil
}

// ArchiveFile uploads a local file, suffixing its name with the upload time.
func (s *Service) ArchiveFile(ctx context.Context, mode inventory.Mode, kind, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	name := fmt.Sprintf("%s.%s", filepath.Base(file), s.now().Format("20060102T150405Z"))
	_, err = s.PutArtifact(ctx, mode, kind, name, "application/vnd.sqlite3", data)
	return err
}

// List returns the artifacts of one kind, newest first.
func (s *Service) List(ctx context.Context, mode inventory.Mode, kind string) ([]Object, error) {
	var objects []Object
	opts := minio.ListObjectsOptions{Prefix: s.prefix(mode, kind), Recursive: true}
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list archive: %w", obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		objects = append(objects, Object{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}
	sort.Slice(objects, func(i, j int) bool {
		if objects[i].LastModified.Equal(objects[j].LastModified) {
			return objects[i].Key > objects[j].Key
		}
		return objects[i].LastModified.After(objects[j].LastModified)
	})
	return objects, nil
}

// Fetch opens an archived artifact.
func (s *Service) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	if !strings.HasPrefix(key, s.device+"/") {
		return nil, &inventory.ValidationError{Op: "fetch archive", Err: fmt.Errorf("key %q is outside this device's archive", key)}
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", key, err)
	}
	return obj, nil
}

// Prune removes the oldest artifacts of a kind beyond the retention count.
// A retention of zero keeps everything.
func (s *Service) Prune(ctx context.Context, mode inventory.Mode, kind string) (int, error) {
	if s.retain <= 0 {
		return 0, nil
	}
	objects, err := s.List(ctx, mode, kind)
	if err != nil {
		return 0, err
	}
	if len(objects) <= s.retain {
		return 0, nil
	}

	stale := objects[s.retain:]
	ch := make(chan minio.ObjectInfo, len(stale))
	for _, obj := range stale {
		ch <- minio.ObjectInfo{Key: obj.Key}
	}
	close(ch)

	var errs []error
	for rerr := range s.client.RemoveObjects(ctx, s.bucket, ch, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("failed to remove %s: %w", rerr.ObjectName, rerr.Err))
	}
	if len(errs) > 0 {
		return len(stale) - len(errs), errors.Join(errs...)
	}
	s.logger.Info("Pruned archive", zap.String("prefix", s.prefix(mode, kind)), zap.Int("removed", len(stale)))
	return len(stale), nil
}
