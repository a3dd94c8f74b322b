package mocks

import (
	"context"

	"cardocs/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockUploadRepository struct {
	mock.Mock
}

func (m *MockUploadRepository) Create(ctx context.Context, f *model.UploadedFile) (*model.UploadedFile, error) {
	args := m.Called(ctx, f)
	if fn, ok := args.Get(0).(func(context.Context, *model.UploadedFile) *model.UploadedFile); ok {
		return fn(ctx, f), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadedFile), args.Error(1)
}

func (m *MockUploadRepository) FindByID(ctx context.Context, id string) (*model.UploadedFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadedFile), args.Error(1)
}

func (m *MockUploadRepository) List(ctx context.Context) ([]model.UploadedFile, error) {
	args := m.Called(ctx)
	if fn, ok := args.Get(0).(func(context.Context) []model.UploadedFile); ok {
		return fn(ctx), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UploadedFile), args.Error(1)
}

func (m *MockUploadRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUploadRepository) CountByStoragePath(ctx context.Context, path string) (int, error) {
	args := m.Called(ctx, path)
	return args.Int(0), args.Error(1)
}
