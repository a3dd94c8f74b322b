package mocks

import (
	"context"

	"cardocs/internal/reconcile"

	"github.com/stretchr/testify/mock"
)

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Check(ctx context.Context) (reconcile.Report, error) {
	args := m.Called(ctx)
	return args.Get(0).(reconcile.Report), args.Error(1)
}

func (m *MockReconciler) Sweep(ctx context.Context) (reconcile.Report, error) {
	args := m.Called(ctx)
	return args.Get(0).(reconcile.Report), args.Error(1)
}
