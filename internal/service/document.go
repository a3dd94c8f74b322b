package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cardocs/internal/model"
	"cardocs/internal/repository"
)

// AddDocumentInput is the form submitted to create a document record.
type AddDocumentInput struct {
	Title string `json:"title" form:"title" validate:"required"`
	Date  string `json:"date" form:"date" validate:"required,datetime=2006-01-02"`
	Type  string `json:"type" form:"type" validate:"required,oneof=pollution insurance other"`
}

// DocumentService defines the use cases for document records.
type DocumentService interface {
	// Add validates the input and persists a new record with a fresh ID.
	Add(ctx context.Context, in AddDocumentInput) (*model.Document, error)

	// List returns the full collection in store order.
	List(ctx context.Context) ([]model.Document, error)

	// Get returns a single record by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Delete removes a record by its ID.
	Delete(ctx context.Context, id string) error
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	repo repository.DocumentRepository
	opts options
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(repo repository.DocumentRepository, opts ...Option) DocumentService {
	return &documentService{repo: repo, opts: newOptions(opts)}
}

func (s *documentService) Add(ctx context.Context, in AddDocumentInput) (_ *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Add")
	defer func() { endSpan(span, err) }()

	in.Title = strings.TrimSpace(in.Title)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	date, err := model.ParseDate(in.Date)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"date": "must be a date formatted as YYYY-MM-DD"}}
	}

	doc := &model.Document{
		ID:        uuid.New().String(),
		Title:     in.Title,
		Date:      date,
		Type:      model.DocumentType(in.Type),
		CreatedAt: s.opts.now().UTC(),
	}
	span.SetAttributes(attribute.String("document.id", doc.ID), attribute.String("document.type", in.Type))

	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		return nil, storeError("insert document", err)
	}
	return stored, nil
}

func (s *documentService) List(ctx context.Context) (_ []model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.List")
	defer func() { endSpan(span, err) }()

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError("list documents", err)
	}
	return items, nil
}

func (s *documentService) Get(ctx context.Context, id string) (_ *model.Document, err error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	ctx, span := tracer.Start(ctx, "DocumentService.Get", trace.WithAttributes(attribute.String("document.id", id)))
	defer func() { endSpan(span, err) }()

	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storeError("find document", err)
	}
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, id string) (err error) {
	if id == "" {
		return ErrIDRequired
	}
	ctx, span := tracer.Start(ctx, "DocumentService.Delete", trace.WithAttributes(attribute.String("document.id", id)))
	defer func() { endSpan(span, err) }()

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return storeError("delete document", err)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
