package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// Bucket is the subset of a Cloud Storage bucket the GCS store uses.
type Bucket interface {
	NewReader(ctx context.Context, object string) (io.ReadCloser, error)
	NewWriter(ctx context.Context, object string) io.WriteCloser
	Copy(ctx context.Context, src, dst string) error
	Delete(ctx context.Context, object string) error
}

// GCSStore keeps the checkpoint in a Cloud Storage object.
type GCSStore struct {
	bucket Bucket
	object string
	logger *zap.Logger
}

// NewGCSStore builds a GCSStore for object inside bucket.
func NewGCSStore(bucket Bucket, object string, logger *zap.Logger) (*GCSStore, error) {
	if bucket == nil {
		return nil, fmt.Errorf("bucket is required")
	}
	if strings.TrimSpace(object) == "" {
		return nil, fmt.Errorf("object name is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GCSStore{bucket: bucket, object: object, logger: logger}, nil
}

// Load reads the checkpoint object. Any failure logs a warning and yields an
// empty state.
func (s *GCSStore) Load(ctx context.Context) State {
	r, err := s.bucket.NewReader(ctx, s.object)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn("no checkpoint found, starting fresh", zap.String("object", s.object))
		} else {
			s.logger.Warn("checkpoint unreadable, starting fresh", zap.String("object", s.object), zap.Error(err))
		}
		return State{}
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		s.logger.Warn("checkpoint unreadable, starting fresh", zap.String("object", s.object), zap.Error(err))
		return State{}
	}
	state, err := Decode(data)
	if err != nil {
		s.logger.Warn("checkpoint corrupt, starting fresh", zap.String("object", s.object), zap.Error(err))
		return State{}
	}
	return state
}

// Save uploads the checkpoint. The object only changes once the writer
// closes successfully.
func (s *GCSStore) Save(ctx context.Context, state State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	w := s.bucket.NewWriter(ctx, s.object)
	if _, err := w.Write(data); err != nil {
		if closeErr := w.Close(); closeErr != nil {
			return fmt.Errorf("write checkpoint: %w (close writer: %v)", err, closeErr)
		}
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}

// Archive copies the object to its completed name and deletes the original.
func (s *GCSStore) Archive(ctx context.Context) error {
	dst := ArchiveName(s.object)
	if err := s.bucket.Copy(ctx, s.object, dst); err != nil {
		return fmt.Errorf("archive %s: %w", s.object, err)
	}
	if err := s.bucket.Delete(ctx, s.object); err != nil {
		return fmt.Errorf("delete archived checkpoint: %w", err)
	}
	s.logger.Info("checkpoint archived", zap.String("object", dst))
	return nil
}

// GCSBucket adapts a Cloud Storage bucket handle to Bucket.
type GCSBucket struct {
	handle *storage.BucketHandle
}

// NewGCSBucket wraps bucket from client.
func NewGCSBucket(client *storage.Client, bucket string) (*GCSBucket, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &GCSBucket{handle: client.Bucket(bucket)}, nil
}

// NewReader opens object, mapping a missing object to ErrNotFound.
func (b *GCSBucket) NewReader(ctx context.Context, object string) (io.ReadCloser, error) {
	r, err := b.handle.Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	return r, nil
}

// NewWriter returns a JSON writer for object.
func (b *GCSBucket) NewWriter(ctx context.Context, object string) io.WriteCloser {
	w := b.handle.Object(object).NewWriter(ctx)
	w.ContentType = "application/json"
	return w
}

// Copy duplicates src to dst within the bucket.
func (b *GCSBucket) Copy(ctx context.Context, src, dst string) error {
	_, err := b.handle.Object(dst).CopierFrom(b.handle.Object(src)).Run(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrNotFound
	}
	return err
}

// Delete removes object.
func (b *GCSBucket) Delete(ctx context.Context, object string) error {
	err := b.handle.Object(object).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrNotFound
	}
	return err
}
