package mocks

import (
	"context"

	"cardocs/internal/model"
	"cardocs/internal/registry"
	"cardocs/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) ListDocuments(ctx context.Context) ([]model.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockRegistry) AddDocument(ctx context.Context, in service.AddDocumentInput) (*model.Document, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockRegistry) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockRegistry) DeleteDocument(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRegistry) ListUploadedFiles(ctx context.Context) ([]model.UploadedFile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UploadedFile), args.Error(1)
}

func (m *MockRegistry) UploadFile(ctx context.Context, in service.UploadInput) (*model.UploadedFile, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadedFile), args.Error(1)
}

func (m *MockRegistry) RemoveUploadedFile(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRegistry) DownloadURL(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockRegistry) Refresh(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRegistry) Snapshot() registry.Snapshot {
	args := m.Called()
	return args.Get(0).(registry.Snapshot)
}
