package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockGateway is a mock implementation of the store.Gateway interface
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Read(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	doc, _ := args.Get(0).([]byte)
	return doc, args.Error(1)
}

func (m *MockGateway) Write(ctx context.Context, key string, doc []byte) error {
	args := m.Called(ctx, key, doc)
	return args.Error(0)
}

func (m *MockGateway) AppendHistory(ctx context.Context, key string, record []byte) error {
	args := m.Called(ctx, key, record)
	return args.Error(0)
}

func (m *MockGateway) ReadHistory(ctx context.Context, key string, limit int) ([][]byte, error) {
	args := m.Called(ctx, key, limit)
	records, _ := args.Get(0).([][]byte)
	return records, args.Error(1)
}

func (m *MockGateway) List(ctx context.Context, prefix string) ([][]byte, error) {
	args := m.Called(ctx, prefix)
	docs, _ := args.Get(0).([][]byte)
	return docs, args.Error(1)
}

func (m *MockGateway) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGateway) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
