// Package reconcile compares the blobs under documents/ with the upload
// metadata and removes the binaries nothing points to anymore.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"cardocs/internal/logging"
	"cardocs/internal/metrics"
	"cardocs/internal/repository"
	"cardocs/internal/storage"
)

const (
	KindOrphanBlob     = "orphan_blob"
	KindDanglingRecord = "dangling_record"
)

// DefaultGrace is how long a blob without metadata is left alone. An upload
// writes the blob before its metadata row, so a young unreferenced blob is
// usually an upload still in flight.
const DefaultGrace = 5 * time.Minute

// DanglingRecord is a metadata row whose blob is missing.
type DanglingRecord struct {
	ID          string `json:"id"`
	StoragePath string `json:"storage_path"`
}

// Report is the outcome of one Check or Sweep.
// Pending lists unreferenced blobs still inside the grace period; they are
// neither counted as orphans nor swept.
type Report struct {
	OrphanBlobs     []string          `json:"orphan_blobs"`
	DanglingRecords []DanglingRecord  `json:"dangling_records"`
	Pending         []string          `json:"pending"`
	Removed         []string          `json:"removed"`
	Failed          map[string]string `json:"failed,omitempty"`
}

// Clean reports whether storage and metadata agree.
func (r Report) Clean() bool {
	return len(r.OrphanBlobs) == 0 && len(r.DanglingRecords) == 0
}

type Reconciler struct {
	store   storage.Storage
	repo    repository.UploadRepository
	metrics *metrics.Recorder
	log     *logrus.Entry
	grace   time.Duration
	now     func() time.Time
}

type Option func(*Reconciler)

// WithGrace overrides DefaultGrace. Zero disables the grace period.
func WithGrace(d time.Duration) Option {
	return func(r *Reconciler) { r.grace = d }
}

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

func New(store storage.Storage, repo repository.UploadRepository, m *metrics.Recorder, logger *logrus.Logger, opts ...Option) *Reconciler {
	if logger == nil {
		logger = logging.Discard()
	}
	r := &Reconciler{
		store:   store,
		repo:    repo,
		metrics: m,
		log:     logger.WithField("component", "reconcile"),
		grace:   DefaultGrace,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// young reports whether a blob was written within the grace period.
// A missing modification time counts as old.
func (r *Reconciler) young(modified time.Time) bool {
	if r.grace <= 0 || modified.IsZero() {
		return false
	}
	return r.now().Sub(modified) < r.grace
}

// Check lists storage and metadata concurrently and reports the differences.
// It never modifies either side.
func (r *Reconciler) Check(ctx context.Context) (Report, error) {
	g, gctx := errgroup.WithContext(ctx)

	blobs := map[string]time.Time{}
	g.Go(func() error {
		objs, err := r.store.List(gctx, storage.Prefix)
		if err != nil {
			return fmt.Errorf("list storage: %w", err)
		}
		for _, o := range objs {
			blobs[o.Key] = o.LastModified
		}
		return nil
	})

	var records []DanglingRecord
	referenced := map[string]struct{}{}
	g.Go(func() error {
		files, err := r.repo.List(gctx)
		if err != nil {
			return fmt.Errorf("list metadata: %w", err)
		}
		for _, f := range files {
			referenced[f.StoragePath] = struct{}{}
			records = append(records, DanglingRecord{ID: f.ID, StoragePath: f.StoragePath})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	rep := Report{OrphanBlobs: []string{}, DanglingRecords: []DanglingRecord{}, Pending: []string{}, Removed: []string{}}
	for key, modified := range blobs {
		if _, ok := referenced[key]; ok {
			continue
		}
		if r.young(modified) {
			rep.Pending = append(rep.Pending, key)
			continue
		}
		rep.OrphanBlobs = append(rep.OrphanBlobs, key)
	}
	sort.Strings(rep.OrphanBlobs)
	sort.Strings(rep.Pending)
	for _, rec := range records {
		if _, ok := blobs[rec.StoragePath]; !ok {
			rep.DanglingRecords = append(rep.DanglingRecords, rec)
		}
	}

	r.metrics.Orphans(KindOrphanBlob, len(rep.OrphanBlobs))
	r.metrics.Orphans(KindDanglingRecord, len(rep.DanglingRecords))
	r.log.WithFields(logrus.Fields{
		"event":            "check",
		"orphan_blobs":     len(rep.OrphanBlobs),
		"dangling_records": len(rep.DanglingRecords),
		"pending":          len(rep.Pending),
	}).Info("reconciliation check finished")

	return rep, nil
}

// Sweep runs Check and deletes every orphan blob. A blob that fails to delete
// is listed in Failed and stays in OrphanBlobs. Pending blobs and dangling
// records are only reported.
func (r *Reconciler) Sweep(ctx context.Context) (Report, error) {
	rep, err := r.Check(ctx)
	if err != nil {
		return rep, err
	}

	remaining := make([]string, 0, len(rep.OrphanBlobs))
	for _, key := range rep.OrphanBlobs {
		if err := r.store.Delete(ctx, key); err != nil {
			if rep.Failed == nil {
				rep.Failed = map[string]string{}
			}
			rep.Failed[key] = err.Error()
			remaining = append(remaining, key)
			r.log.WithError(err).WithFields(logrus.Fields{"event": "sweep_failed", "key": key}).Warn("orphan blob not removed")
			continue
		}
		rep.Removed = append(rep.Removed, key)
		r.log.WithFields(logrus.Fields{"event": "sweep_removed", "key": key}).Info("orphan blob removed")
	}
	rep.OrphanBlobs = remaining

	r.metrics.Orphans(KindOrphanBlob, len(rep.OrphanBlobs))
	return rep, nil
}
