package mocks

import (
	"context"
	"io"

	"github.com/Kyz7/pixelarts/internal/storage"
	"github.com/stretchr/testify/mock"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockProvider) Upload(ctx context.Context, r io.Reader, obj storage.Object) (*storage.Asset, error) {
	args := m.Called(ctx, r, obj)
	if f, ok := args.Get(0).(func(context.Context, io.Reader, storage.Object) *storage.Asset); ok {
		return f(ctx, r, obj), args.Error(1)
	}
	asset, _ := args.Get(0).(*storage.Asset)
	return asset, args.Error(1)
}

func (m *MockProvider) Delete(ctx context.Context, publicID, resourceType string) error {
	args := m.Called(ctx, publicID, resourceType)
	return args.Error(0)
}
