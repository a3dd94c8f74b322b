package repository

import (
	"context"

	"cardocs/internal/model"
)

// DocumentRepository defines data access for the documents collection using SQL queries only.
// No business logic here, only persistence.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	// The caller provides ID and CreatedAt.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID. A missing row yields sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns the full collection. No pagination, no filtering.
	List(ctx context.Context) ([]model.Document, error)

	// Delete removes a document by ID and reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
}
