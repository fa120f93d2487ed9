package service

import (
	"context"
	"fmt"
	"time"

	"vitrina/internal/database"
	"vitrina/internal/domain"
	"vitrina/internal/models"

	"github.com/rs/zerolog"
)

// QueryService — read-only срезы журнала для клиентов и владельцев.
type QueryService struct {
	repo   domain.Repository
	now    func() time.Time
	logger *zerolog.Logger
}

func NewQueryService(repo domain.Repository, logger *zerolog.Logger) *QueryService {
	return &QueryService{repo: repo, now: time.Now, logger: logger}
}

func (s *QueryService) BookingsForCustomer(ctx context.Context, customerID, statusFilter string) ([]*models.Booking, error) {
	if err := checkStatusFilter(statusFilter); err != nil {
		return nil, err
	}
	return s.repo.BookingsForCustomer(ctx, customerID, statusFilter)
}

// BookingsForStore отдаёт журнал магазина его владельцу.
func (s *QueryService) BookingsForStore(ctx context.Context, storeID, ownerID, statusFilter string) ([]*models.Booking, error) {
	if err := checkStatusFilter(statusFilter); err != nil {
		return nil, err
	}
	store, err := s.repo.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store.OwnerID != ownerID {
		return nil, database.ErrPermissionDenied
	}
	return s.repo.BookingsForStore(ctx, storeID, statusFilter)
}

func (s *QueryService) StoreStats(ctx context.Context, storeID, ownerID string) (*models.StoreStats, error) {
	store, err := s.repo.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store.OwnerID != ownerID {
		return nil, database.ErrPermissionDenied
	}
	return s.repo.GetStoreStats(ctx, storeID, s.now())
}

func checkStatusFilter(status string) error {
	if status != "" && !models.ValidStatus(status) {
		return fmt.Errorf("%w: unknown status %q", database.ErrValidation, status)
	}
	return nil
}
