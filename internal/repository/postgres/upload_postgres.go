package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"cardocs/internal/model"
	"cardocs/internal/repository"
)

var uploadColumns = []string{"id", "name", "category", "storage_path", "url", "size", "content_type", "created_at"}

// UploadPostgres is a PostgreSQL implementation of repository.UploadRepository.
type UploadPostgres struct {
	db *sql.DB
}

// NewUploadPostgres creates a new UploadPostgres repository.
func NewUploadPostgres(db *sql.DB) *UploadPostgres {
	return &UploadPostgres{db: db}
}

var _ repository.UploadRepository = (*UploadPostgres)(nil)

func scanUpload(row rowScanner) (*model.UploadedFile, error) {
	var f model.UploadedFile
	if err := row.Scan(
		&f.ID,
		&f.Name,
		&f.Category,
		&f.StoragePath,
		&f.URL,
		&f.Size,
		&f.ContentType,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a metadata row and returns the stored record.
func (r *UploadPostgres) Create(ctx context.Context, f *model.UploadedFile) (*model.UploadedFile, error) {
	q, args, err := psql.Insert(uploadsTable).
		Columns(uploadColumns...).
		Values(f.ID, f.Name, string(f.Category), f.StoragePath, f.URL, f.Size, f.ContentType, f.CreatedAt).
		Suffix("RETURNING " + strings.Join(uploadColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}
	return scanUpload(r.db.QueryRowContext(ctx, q, args...))
}

// FindByID fetches a single metadata record by its ID.
func (r *UploadPostgres) FindByID(ctx context.Context, id string) (*model.UploadedFile, error) {
	q, args, err := psql.Select(uploadColumns...).
		From(uploadsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	return scanUpload(r.db.QueryRowContext(ctx, q, args...))
}

// List returns every metadata record, newest first.
func (r *UploadPostgres) List(ctx context.Context) ([]model.UploadedFile, error) {
	q, args, err := psql.Select(uploadColumns...).
		From(uploadsTable).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.UploadedFile, 0)
	for rows.Next() {
		f, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a metadata record by ID.
func (r *UploadPostgres) Delete(ctx context.Context, id string) (bool, error) {
	q, args, err := psql.Delete(uploadsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountByStoragePath counts the records that point at the given object key.
func (r *UploadPostgres) CountByStoragePath(ctx context.Context, path string) (int, error) {
	q, args, err := psql.Select("COUNT(*)").
		From(uploadsTable).
		Where(squirrel.Eq{"storage_path": path}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
