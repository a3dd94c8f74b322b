package repository

import (
	"context"

	"cardocs/internal/model"
)

// UploadRepository defines data access for the uploaded-file metadata collection.
type UploadRepository interface {
	// Create inserts a metadata record and returns the stored row.
	Create(ctx context.Context, f *model.UploadedFile) (*model.UploadedFile, error)

	// FindByID returns a metadata record by its ID. A missing row yields sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.UploadedFile, error)

	// List returns every metadata record.
	List(ctx context.Context) ([]model.UploadedFile, error)

	// Delete removes a metadata record by ID and reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)

	// CountByStoragePath returns how many records reference the given object key.
	CountByStoragePath(ctx context.Context, path string) (int, error)
}
