// Package registry keeps an in-memory mirror of the document and upload
// collections in front of the services that own them. Every successful write
// re-fetches the affected collection, so the mirror never carries an item the
// store did not return.
package registry

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"cardocs/internal/logging"
	"cardocs/internal/model"
	"cardocs/internal/service"
)

// Snapshot is a copy of the mirror at one point in time.
// Stale is set when a re-fetch after a successful write failed; the next
// successful fetch of that collection clears it.
type Snapshot struct {
	Documents   []model.Document     `json:"documents"`
	Uploads     []model.UploadedFile `json:"uploads"`
	RefreshedAt time.Time            `json:"refreshed_at"`
	Stale       bool                 `json:"stale"`
}

// Registry is the single entry point the HTTP layer uses for both collections.
type Registry interface {
	ListDocuments(ctx context.Context) ([]model.Document, error)
	AddDocument(ctx context.Context, in service.AddDocumentInput) (*model.Document, error)
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	ListUploadedFiles(ctx context.Context) ([]model.UploadedFile, error)
	UploadFile(ctx context.Context, in service.UploadInput) (*model.UploadedFile, error)
	RemoveUploadedFile(ctx context.Context, id string) error
	DownloadURL(ctx context.Context, id string) (string, error)

	// Refresh fetches both collections concurrently.
	Refresh(ctx context.Context) error
	Snapshot() Snapshot
}

type registry struct {
	docs    service.DocumentService
	uploads service.UploadService
	log     *logrus.Entry
	now     func() time.Time

	mu           sync.RWMutex
	documents    []model.Document
	files        []model.UploadedFile
	refreshedAt  time.Time
	docsStale    bool
	uploadsStale bool
}

// Option configures the registry.
type Option func(*registry)

// WithLogger sets the logger used for failed re-fetches.
func WithLogger(l *logrus.Logger) Option {
	return func(r *registry) { r.log = l.WithField("component", "registry") }
}

// WithClock overrides the clock used for RefreshedAt.
func WithClock(now func() time.Time) Option {
	return func(r *registry) { r.now = now }
}

// New returns an empty registry; call Refresh to load it.
func New(docs service.DocumentService, uploads service.UploadService, opts ...Option) Registry {
	r := &registry{
		docs:    docs,
		uploads: uploads,
		log:     logging.Discard().WithField("component", "registry"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *registry) ListDocuments(ctx context.Context) ([]model.Document, error) {
	items, err := r.docs.List(ctx)
	if err != nil {
		return nil, err
	}
	r.setDocuments(items)
	return slices.Clone(items), nil
}

func (r *registry) AddDocument(ctx context.Context, in service.AddDocumentInput) (*model.Document, error) {
	doc, err := r.docs.Add(ctx, in)
	if err != nil {
		return nil, err
	}
	r.refetchDocuments(ctx, "add_document")
	return doc, nil
}

func (r *registry) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	return r.docs.Get(ctx, id)
}

func (r *registry) DeleteDocument(ctx context.Context, id string) error {
	if err := r.docs.Delete(ctx, id); err != nil {
		return err
	}
	r.refetchDocuments(ctx, "delete_document")
	return nil
}

func (r *registry) ListUploadedFiles(ctx context.Context) ([]model.UploadedFile, error) {
	items, err := r.uploads.List(ctx)
	if err != nil {
		return nil, err
	}
	r.setUploads(items)
	return slices.Clone(items), nil
}

func (r *registry) UploadFile(ctx context.Context, in service.UploadInput) (*model.UploadedFile, error) {
	f, err := r.uploads.Upload(ctx, in)
	if err != nil {
		return nil, err
	}
	r.refetchUploads(ctx, "upload_file")
	return f, nil
}

// RemoveUploadedFile re-fetches uploads after a partial failure too: the
// metadata row is already gone even though the blob is not.
func (r *registry) RemoveUploadedFile(ctx context.Context, id string) error {
	err := r.uploads.Remove(ctx, id)
	if err != nil && !errors.Is(err, service.ErrPartialFailure) {
		return err
	}
	r.refetchUploads(ctx, "remove_uploaded_file")
	return err
}

func (r *registry) DownloadURL(ctx context.Context, id string) (string, error) {
	return r.uploads.DownloadURL(ctx, id)
}

func (r *registry) Refresh(ctx context.Context) error {
	var (
		docs  []model.Document
		files []model.UploadedFile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docs, err = r.docs.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		files, err = r.uploads.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents, r.files = docs, files
	r.docsStale, r.uploadsStale = false, false
	r.refreshedAt = r.now()
	return nil
}

func (r *registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		Documents:   slices.Clone(r.documents),
		Uploads:     slices.Clone(r.files),
		RefreshedAt: r.refreshedAt,
		Stale:       r.docsStale || r.uploadsStale,
	}
}

func (r *registry) refetchDocuments(ctx context.Context, op string) {
	items, err := r.docs.List(ctx)
	if err != nil {
		r.markStale(op, err, func() { r.docsStale = true })
		return
	}
	r.setDocuments(items)
}

func (r *registry) refetchUploads(ctx context.Context, op string) {
	items, err := r.uploads.List(ctx)
	if err != nil {
		r.markStale(op, err, func() { r.uploadsStale = true })
		return
	}
	r.setUploads(items)
}

func (r *registry) markStale(op string, err error, set func()) {
	r.log.WithError(err).WithFields(logrus.Fields{
		"event":     "refetch_failed",
		"operation": op,
	}).Warn("write succeeded but the mirror could not be refreshed")

	r.mu.Lock()
	set()
	r.mu.Unlock()
}

func (r *registry) setDocuments(items []model.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents = slices.Clone(items)
	r.docsStale = false
	r.refreshedAt = r.now()
}

func (r *registry) setUploads(items []model.UploadedFile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = slices.Clone(items)
	r.uploadsStale = false
	r.refreshedAt = r.now()
}
