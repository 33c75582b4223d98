// Package mocks provides test doubles for the history store.
package mocks

import (
	"context"

	model "github.com/klarifikasi/klarifikasi-api/internal/model"
	store "github.com/klarifikasi/klarifikasi-api/internal/store"
	mock "github.com/stretchr/testify/mock"
)

// MockStore is a mock type for the Store interface.
type MockStore struct {
	mock.Mock
}

// Record provides a mock function with given fields: ctx, userID, query, resultCount, top
func (_m *MockStore) Record(ctx context.Context, userID *int64, query string, resultCount int, top *model.SourceResult) (*model.HistoryEntry, error) {
	ret := _m.Called(ctx, userID, query, resultCount, top)

	if len(ret) == 0 {
		panic("no return value specified for Record")
	}

	var r0 *model.HistoryEntry
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.HistoryEntry)
	}
	return r0, ret.Error(1)
}

// List provides a mock function with given fields: ctx, filter
func (_m *MockStore) List(ctx context.Context, filter store.HistoryFilter) (model.HistoryPage, error) {
	ret := _m.Called(ctx, filter)

	if len(ret) == 0 {
		panic("no return value specified for List")
	}

	var r0 model.HistoryPage
	if rf, ok := ret.Get(0).(func(context.Context, store.HistoryFilter) model.HistoryPage); ok {
		r0 = rf(ctx, filter)
	} else {
		r0 = ret.Get(0).(model.HistoryPage)
	}
	return r0, ret.Error(1)
}

// Clear provides a mock function with given fields: ctx, userID
func (_m *MockStore) Clear(ctx context.Context, userID int64) (int64, error) {
	ret := _m.Called(ctx, userID)

	if len(ret) == 0 {
		panic("no return value specified for Clear")
	}

	return ret.Get(0).(int64), ret.Error(1)
}

// Ping provides a mock function with given fields: ctx
func (_m *MockStore) Ping(ctx context.Context) error {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Ping")
	}

	return ret.Error(0)
}

// Migrate provides a mock function with given fields: ctx
func (_m *MockStore) Migrate(ctx context.Context) error {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Migrate")
	}

	return ret.Error(0)
}

// Close provides a mock function with given fields:
func (_m *MockStore) Close() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Close")
	}

	return ret.Error(0)
}

// NewMockStore creates a new instance of MockStore. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStore {
	m := &MockStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
