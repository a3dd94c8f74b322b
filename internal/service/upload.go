package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cardocs/internal/model"
	"cardocs/internal/repository"
	"cardocs/internal/storage"
)

// UploadInput describes one file chosen for a category slot.
type UploadInput struct {
	Category    model.Category
	Name        string
	Content     io.Reader
	ContentType string
	Size        int64
}

// UploadService defines the use cases for uploaded files. Every write touches
// both the blob store and the metadata table; see Upload and Remove for the
// ordering and the compensation applied when the second step fails.
type UploadService interface {
	// Upload writes the binary to documents/<category>/<name>, resolves its URL and
	// saves the metadata. A failure after the binary write deletes the binary again,
	// unless older records still reference the same key.
	Upload(ctx context.Context, in UploadInput) (*model.UploadedFile, error)

	// List returns every metadata record.
	List(ctx context.Context) ([]model.UploadedFile, error)

	// Get returns a single metadata record.
	Get(ctx context.Context, id string) (*model.UploadedFile, error)

	// Remove deletes the metadata record, then the binary if no other record shares it.
	Remove(ctx context.Context, id string) error

	// DownloadURL returns a short-lived presigned link to the binary.
	DownloadURL(ctx context.Context, id string) (string, error)
}

type uploadService struct {
	store storage.Storage
	repo  repository.UploadRepository
	opts  options
}

// NewUploadService constructs a new UploadService.
func NewUploadService(store storage.Storage, repo repository.UploadRepository, opts ...Option) UploadService {
	return &uploadService{store: store, repo: repo, opts: newOptions(opts)}
}

func (s *uploadService) Upload(ctx context.Context, in UploadInput) (_ *model.UploadedFile, err error) {
	if in.Content == nil {
		return nil, ErrReaderNil
	}

	fields := map[string]string{}
	if !in.Category.Valid() {
		fields["category"] = "must be one of: driving_license, rc, pollution_certificate"
	}
	key, keyErr := storage.ObjectPath(in.Category, in.Name)
	if keyErr != nil {
		fields["name"] = keyErr.Error()
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	ctx, span := tracer.Start(ctx, "UploadService.Upload", trace.WithAttributes(
		attribute.String("upload.category", string(in.Category)),
		attribute.String("upload.key", key),
	))
	defer func() { endSpan(span, err) }()

	contentType := in.ContentType
	if contentType == "" {
		contentType = defaultUploadMediaType
	}

	// Records already pointing at this key keep pointing at it after the overwrite,
	// so a rollback must not delete the blob they serve.
	shared, err := s.repo.CountByStoragePath(ctx, key)
	if err != nil {
		return nil, storeError("count key references", err)
	}

	objInfo, err := s.store.Put(ctx, key, in.Content, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": in.Name,
			"category":          string(in.Category),
		},
	})
	if err != nil {
		return nil, storeError("upload to storage", err)
	}

	url, err := s.store.URL(ctx, key)
	if err != nil {
		return nil, s.compensateUpload(ctx, key, shared, storeError("resolve url", err))
	}

	size := objInfo.Size
	if size <= 0 {
		size = in.Size
	}
	f := &model.UploadedFile{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Category:    in.Category,
		URL:         url,
		StoragePath: key,
		Size:        size,
		ContentType: contentType,
		CreatedAt:   s.opts.now().UTC(),
	}
	stored, err := s.repo.Create(ctx, f)
	if err != nil {
		return nil, s.compensateUpload(ctx, key, shared, storeError("db save failed", err))
	}

	s.opts.logger.WithFields(logrus.Fields{
		"component": "upload",
		"event":     "upload_saved",
		"upload_id": stored.ID,
		"key":       key,
		"shared":    shared,
	}).Info("file uploaded")

	return stored, nil
}

// compensateUpload undoes the blob write after the metadata step failed.
func (s *uploadService) compensateUpload(ctx context.Context, key string, shared int, cause error) error {
	log := s.opts.logger.WithFields(logrus.Fields{
		"component": "upload",
		"key":       key,
		"cause":     cause.Error(),
	})

	if shared > 0 {
		log.WithField("event", "upload_rollback_skipped").
			Warn("blob overwrote a key other records still reference; leaving it in place")
		return cause
	}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	// A concurrent upload of the same key may have saved its record since the first count.
	current, cntErr := s.repo.CountByStoragePath(cctx, key)
	if cntErr != nil {
		s.opts.metrics.Compensation("upload", "failure")
		s.opts.metrics.PartialFailure("upload")
		log.WithError(cntErr).WithField("event", "upload_orphan").
			Error("key references could not be recounted; blob left for the next reconciliation sweep")
		return &PartialFailureError{
			Op:  "upload",
			Key: key,
			Err: fmt.Errorf("%w; rollback skipped: %w", cause, storeError("count key references", cntErr)),
		}
	}
	if current > 0 {
		log.WithFields(logrus.Fields{"event": "upload_rollback_skipped", "shared": current}).
			Warn("another record now references the key; leaving the blob in place")
		return cause
	}

	if delErr := s.store.Delete(cctx, key); delErr != nil {
		s.opts.metrics.Compensation("upload", "failure")
		s.opts.metrics.PartialFailure("upload")
		log.WithError(delErr).WithField("event", "upload_orphan").
			Error("rollback delete failed; blob is orphaned until the next reconciliation sweep")
		return &PartialFailureError{
			Op:  "upload",
			Key: key,
			Err: fmt.Errorf("%w; rollback delete failed: %w", cause, delErr),
		}
	}

	s.opts.metrics.Compensation("upload", "success")
	log.WithField("event", "upload_rolled_back").Warn("metadata write failed; blob removed")
	return cause
}

func (s *uploadService) List(ctx context.Context) (_ []model.UploadedFile, err error) {
	ctx, span := tracer.Start(ctx, "UploadService.List")
	defer func() { endSpan(span, err) }()

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError("list uploads", err)
	}
	return items, nil
}

func (s *uploadService) Get(ctx context.Context, id string) (_ *model.UploadedFile, err error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	ctx, span := tracer.Start(ctx, "UploadService.Get", trace.WithAttributes(attribute.String("upload.id", id)))
	defer func() { endSpan(span, err) }()

	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storeError("find upload", err)
	}
	return f, nil
}

func (s *uploadService) Remove(ctx context.Context, id string) (err error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "UploadService.Remove", trace.WithAttributes(
		attribute.String("upload.id", id),
		attribute.String("upload.key", f.StoragePath),
	))
	defer func() { endSpan(span, err) }()

	log := s.opts.logger.WithFields(logrus.Fields{
		"component": "upload",
		"upload_id": id,
		"key":       f.StoragePath,
	})

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return storeError("delete metadata", err)
	}
	if !deleted {
		return ErrNotFound
	}

	remaining, err := s.repo.CountByStoragePath(ctx, f.StoragePath)
	if err != nil {
		s.opts.metrics.PartialFailure("remove")
		log.WithError(err).WithField("event", "remove_orphan").Error("metadata deleted but key references could not be counted")
		return &PartialFailureError{Op: "remove", Key: f.StoragePath, Err: storeError("count key references", err)}
	}
	if remaining > 0 {
		log.WithFields(logrus.Fields{"event": "remove_blob_kept", "remaining": remaining}).
			Info("metadata deleted; blob kept for remaining records")
		return nil
	}

	if err := s.store.Delete(ctx, f.StoragePath); err != nil {
		s.opts.metrics.PartialFailure("remove")
		log.WithError(err).WithField("event", "remove_orphan").
			Error("metadata deleted but blob delete failed; blob is orphaned until the next reconciliation sweep")
		return &PartialFailureError{Op: "remove", Key: f.StoragePath, Err: storeError("delete storage", err)}
	}

	// An upload that overwrote the key after the count above now has a record
	// without a blob. Nothing can restore it here; surface it for the reconciler.
	if raced, err := s.repo.CountByStoragePath(ctx, f.StoragePath); err == nil && raced > 0 {
		s.opts.metrics.PartialFailure("remove")
		log.WithFields(logrus.Fields{"event": "remove_raced_upload", "dangling": raced}).
			Error("blob deleted while another upload saved a record for the same key")
		return nil
	}

	log.WithField("event", "remove_done").Info("file removed")
	return nil
}

func (s *uploadService) DownloadURL(ctx context.Context, id string) (string, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	u, err := s.store.PresignGet(ctx, f.StoragePath, s.opts.presignExpiry)
	if err != nil {
		return "", storeError("presign download", err)
	}
	return u, nil
}
