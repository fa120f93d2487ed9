package domain

import (
	"context"
	"time"

	"vitrina/internal/database"
	"vitrina/internal/models"
)

// Repository is the persistence surface the services depend on.
type Repository interface {
	// stores
	CreateStore(ctx context.Context, store *models.Store) error
	GetStore(ctx context.Context, id string) (*models.Store, error)
	ListStores(ctx context.Context, filter database.StoreFilter) ([]*models.Store, error)
	UpdateStore(ctx context.Context, store *models.Store) error
	DeactivateStore(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]string, error)

	// bookings
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error
	GetSlotLoad(ctx context.Context, storeID string, date time.Time) (map[string]int64, error)
	BookingsForCustomer(ctx context.Context, customerID, statusFilter string) ([]*models.Booking, error)
	BookingsForStore(ctx context.Context, storeID, statusFilter string) ([]*models.Booking, error)
	BookingsForStoreByDateRange(ctx context.Context, storeID string, start, end time.Time) ([]*models.Booking, error)
	GetStoreStats(ctx context.Context, storeID string, asOf time.Time) (*models.StoreStats, error)
}

// EventPublisher emits domain events to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SyncWorker accepts booking sync tasks for the external schedule mirror.
type SyncWorker interface {
	EnqueueUpsert(ctx context.Context, booking *models.Booking) error
	EnqueueStatus(ctx context.Context, bookingID, status string) error
}

// SheetsWriter mirrors bookings into an external spreadsheet.
type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID, status string) error
	ReplaceBookingsSheet(ctx context.Context, bookings []*models.Booking) error
}

// OccupancyCounter is the counted check-in stream per store.
type OccupancyCounter interface {
	CheckIn(ctx context.Context, storeID string) (int64, error)
	CheckOut(ctx context.Context, storeID string) (int64, error)
	Current(ctx context.Context, storeID string) (int64, error)
}
