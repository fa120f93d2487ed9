package service

import (
	"context"
	"fmt"
	"strings"

	"vitrina/internal/database"
	"vitrina/internal/domain"
	"vitrina/internal/events"
	"vitrina/internal/models"

	"github.com/rs/zerolog"
)

// CatalogService владеет каталогом магазинов. Никакой логики бронирований
// здесь нет — только витрина и её валидация.
type CatalogService struct {
	repo                domain.Repository
	eventBus            domain.EventPublisher
	defaultSlotCapacity int64
	logger              *zerolog.Logger
}

// CreateStoreRequest carries the owner-supplied store fields.
type CreateStoreRequest struct {
	Name         string
	Category     string
	Address      string
	ContactInfo  string
	OpeningHours []models.OpeningHours
	SlotTemplate []string
	SlotCapacity int64
}

func NewCatalogService(repo domain.Repository, eventBus domain.EventPublisher, defaultSlotCapacity int64, logger *zerolog.Logger) *CatalogService {
	if defaultSlotCapacity < 1 {
		defaultSlotCapacity = models.DefaultSlotCapacity
	}
	return &CatalogService{
		repo:                repo,
		eventBus:            eventBus,
		defaultSlotCapacity: defaultSlotCapacity,
		logger:              logger,
	}
}

func (s *CatalogService) GetStore(ctx context.Context, id string) (*models.Store, error) {
	return s.repo.GetStore(ctx, id)
}

func (s *CatalogService) ListStores(ctx context.Context, filter database.StoreFilter) ([]*models.Store, error) {
	return s.repo.ListStores(ctx, filter)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]string, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CatalogService) CreateStore(ctx context.Context, ownerID string, req CreateStoreRequest) (*models.Store, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id is required", database.ErrValidation)
	}
	if err := validateStoreFields(req.Name, req.Category, req.Address); err != nil {
		return nil, err
	}
	if err := models.ValidateOpeningHours(req.OpeningHours); err != nil {
		return nil, fmt.Errorf("%w: %s", database.ErrValidation, err)
	}
	if err := models.ValidateSlotTemplate(req.SlotTemplate); err != nil {
		return nil, fmt.Errorf("%w: %s", database.ErrValidation, err)
	}
	// Магазин без слотов не принимает брони, такой каталог не нужен.
	if len(req.SlotTemplate) == 0 {
		return nil, fmt.Errorf("%w: slot template must not be empty", database.ErrValidation)
	}

	capacity := req.SlotCapacity
	if capacity == 0 {
		capacity = s.defaultSlotCapacity
	}
	if capacity < 1 {
		return nil, fmt.Errorf("%w: slot capacity must be at least 1", database.ErrValidation)
	}

	store := &models.Store{
		OwnerID:      ownerID,
		Name:         strings.TrimSpace(req.Name),
		Category:     strings.TrimSpace(req.Category),
		Address:      strings.TrimSpace(req.Address),
		ContactInfo:  strings.TrimSpace(req.ContactInfo),
		OpeningHours: req.OpeningHours,
		SlotTemplate: req.SlotTemplate,
		SlotCapacity: capacity,
		IsActive:     true,
	}
	if err := s.repo.CreateStore(ctx, store); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventStoreCreated, store); err != nil {
			s.logger.Error().Err(err).Str("store_id", store.ID).Msg("publish event error")
		}
	}

	s.logger.Info().Str("store_id", store.ID).Str("owner_id", ownerID).Msg("store created")
	return store, nil
}

// UpdateStore применяет патч. Менять магазин может только его владелец.
func (s *CatalogService) UpdateStore(ctx context.Context, id, ownerID string, patch models.StorePatch) (*models.Store, error) {
	store, err := s.repo.GetStore(ctx, id)
	if err != nil {
		return nil, err
	}
	if store.OwnerID != ownerID {
		return nil, database.ErrPermissionDenied
	}

	if patch.Name != nil {
		store.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Category != nil {
		store.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Address != nil {
		store.Address = strings.TrimSpace(*patch.Address)
	}
	if patch.ContactInfo != nil {
		store.ContactInfo = strings.TrimSpace(*patch.ContactInfo)
	}
	if patch.OpeningHours != nil {
		if err := models.ValidateOpeningHours(patch.OpeningHours); err != nil {
			return nil, fmt.Errorf("%w: %s", database.ErrValidation, err)
		}
		store.OpeningHours = patch.OpeningHours
	}
	if patch.SlotTemplate != nil {
		if err := models.ValidateSlotTemplate(patch.SlotTemplate); err != nil {
			return nil, fmt.Errorf("%w: %s", database.ErrValidation, err)
		}
		if len(patch.SlotTemplate) == 0 {
			return nil, fmt.Errorf("%w: slot template must not be empty", database.ErrValidation)
		}
		store.SlotTemplate = patch.SlotTemplate
	}
	if patch.SlotCapacity != nil {
		if *patch.SlotCapacity < 1 {
			return nil, fmt.Errorf("%w: slot capacity must be at least 1", database.ErrValidation)
		}
		store.SlotCapacity = *patch.SlotCapacity
	}
	if patch.IsActive != nil {
		store.IsActive = *patch.IsActive
	}

	if err := validateStoreFields(store.Name, store.Category, store.Address); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStore(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}

// DeactivateStore убирает магазин из выдачи, брони остаются в журнале.
func (s *CatalogService) DeactivateStore(ctx context.Context, id, ownerID string) error {
	store, err := s.repo.GetStore(ctx, id)
	if err != nil {
		return err
	}
	if store.OwnerID != ownerID {
		return database.ErrPermissionDenied
	}
	if err := s.repo.DeactivateStore(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("store_id", id).Msg("store deactivated")
	return nil
}

func validateStoreFields(name, category, address string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", database.ErrValidation)
	}
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("%w: category is required", database.ErrValidation)
	}
	if strings.TrimSpace(address) == "" {
		return fmt.Errorf("%w: address is required", database.ErrValidation)
	}
	return nil
}
