package service

import (
	"context"
	"time"

	"vitrina/internal/database"
	"vitrina/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateStore(ctx context.Context, store *models.Store) error {
	return m.Called(ctx, store).Error(0)
}
func (m *mockRepo) GetStore(ctx context.Context, id string) (*models.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Store), args.Error(1)
}
func (m *mockRepo) ListStores(ctx context.Context, filter database.StoreFilter) ([]*models.Store, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Store), args.Error(1)
}
func (m *mockRepo) UpdateStore(ctx context.Context, store *models.Store) error {
	return m.Called(ctx, store).Error(0)
}
func (m *mockRepo) DeactivateStore(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) ListCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *mockRepo) CreateBookingWithLock(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) UpdateBookingStatusWithVersion(ctx context.Context, id string, v int64, s string) error {
	return m.Called(ctx, id, v, s).Error(0)
}
func (m *mockRepo) GetSlotLoad(ctx context.Context, storeID string, date time.Time) (map[string]int64, error) {
	args := m.Called(ctx, storeID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}
func (m *mockRepo) BookingsForCustomer(ctx context.Context, customerID, statusFilter string) ([]*models.Booking, error) {
	args := m.Called(ctx, customerID, statusFilter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) BookingsForStore(ctx context.Context, storeID, statusFilter string) ([]*models.Booking, error) {
	args := m.Called(ctx, storeID, statusFilter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) BookingsForStoreByDateRange(ctx context.Context, storeID string, start, end time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, storeID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetStoreStats(ctx context.Context, storeID string, asOf time.Time) (*models.StoreStats, error) {
	args := m.Called(ctx, storeID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StoreStats), args.Error(1)
}

type mockSyncWorker struct {
	mock.Mock
}

func (m *mockSyncWorker) EnqueueUpsert(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockSyncWorker) EnqueueStatus(ctx context.Context, bookingID, status string) error {
	return m.Called(ctx, bookingID, status).Error(0)
}
