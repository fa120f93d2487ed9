package service

import (
	"context"
	"encoding/json"
	"testing"

	"vitrina/internal/database"
	"vitrina/internal/events"
	"vitrina/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestCatalogService(repo *mockRepo) *CatalogService {
	return NewCatalogService(repo, nil, 1, testLogger())
}

func TestCreateStore(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestCatalogService(repo)
	ctx := context.Background()

	repo.On("CreateStore", ctx, mock.AnythingOfType("*models.Store")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Store).ID = "store-1"
		}).
		Return(nil)

	store, err := svc.CreateStore(ctx, "owner-1", CreateStoreRequest{
		Name:         "  Кофейня на углу ",
		Category:     "cafe",
		Address:      "Невский 1",
		SlotTemplate: []string{"10:00", "11:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, "store-1", store.ID)
	assert.Equal(t, "Кофейня на углу", store.Name)
	assert.Equal(t, int64(1), store.SlotCapacity, "default capacity applies")
	assert.True(t, store.IsActive)
	repo.AssertExpectations(t)
}

func TestCreateStore_PublishesEvent(t *testing.T) {
	repo := new(mockRepo)
	bus := events.NewEventBus()
	svc := NewCatalogService(repo, bus, 1, testLogger())
	ctx := context.Background()

	received := make(chan *events.Event, 1)
	bus.Subscribe(events.EventStoreCreated, func(e *events.Event) error {
		received <- e
		return nil
	})

	repo.On("CreateStore", ctx, mock.AnythingOfType("*models.Store")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Store).ID = "store-1"
		}).
		Return(nil)

	_, err := svc.CreateStore(ctx, "owner-1", CreateStoreRequest{
		Name:         "Кофейня на углу",
		Category:     "cafe",
		Address:      "Невский 1",
		SlotTemplate: []string{"10:00"},
	})
	require.NoError(t, err)

	select {
	case e := <-received:
		var got models.Store
		require.NoError(t, json.Unmarshal(e.Payload, &got))
		assert.Equal(t, "store-1", got.ID)
		assert.Equal(t, "owner-1", got.OwnerID)
	default:
		t.Fatal("expected store created event")
	}
}

func TestCreateStore_Validation(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestCatalogService(repo)
	ctx := context.Background()

	tests := []struct {
		name  string
		owner string
		req   CreateStoreRequest
	}{
		{"empty owner", "", CreateStoreRequest{Name: "x", Category: "x", Address: "x"}},
		{"empty name", "owner-1", CreateStoreRequest{Category: "x", Address: "x"}},
		{"empty category", "owner-1", CreateStoreRequest{Name: "x", Address: "x"}},
		{"empty address", "owner-1", CreateStoreRequest{Name: "x", Category: "x"}},
		{"bad slot", "owner-1", CreateStoreRequest{Name: "x", Category: "x", Address: "x", SlotTemplate: []string{"25:00"}}},
		{"duplicate slot", "owner-1", CreateStoreRequest{Name: "x", Category: "x", Address: "x", SlotTemplate: []string{"10:00", "10:00"}}},
		{"empty slot template", "owner-1", CreateStoreRequest{Name: "x", Category: "x", Address: "x"}},
		{"negative capacity", "owner-1", CreateStoreRequest{Name: "x", Category: "x", Address: "x", SlotTemplate: []string{"10:00"}, SlotCapacity: -1}},
		{"duplicate weekday", "owner-1", CreateStoreRequest{
			Name: "x", Category: "x", Address: "x",
			OpeningHours: []models.OpeningHours{{Day: "mon", Hours: "10-20"}, {Day: "mon", Hours: "11-21"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateStore(ctx, tt.owner, tt.req)
			assert.ErrorIs(t, err, database.ErrValidation)
		})
	}
	repo.AssertNotCalled(t, "CreateStore", mock.Anything, mock.Anything)
}

func TestUpdateStore_OwnerOnly(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestCatalogService(repo)
	ctx := context.Background()

	repo.On("GetStore", ctx, "store-1").Return(testStore(), nil)

	name := "Новое имя"
	_, err := svc.UpdateStore(ctx, "store-1", "intruder", models.StorePatch{Name: &name})
	assert.ErrorIs(t, err, database.ErrPermissionDenied)
	repo.AssertNotCalled(t, "UpdateStore", mock.Anything, mock.Anything)
}

func TestUpdateStore_AppliesPatch(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestCatalogService(repo)
	ctx := context.Background()

	repo.On("GetStore", ctx, "store-1").Return(testStore(), nil)
	repo.On("UpdateStore", ctx, mock.AnythingOfType("*models.Store")).Return(nil)

	name := "Кофейня у моста"
	capacity := int64(5)
	updated, err := svc.UpdateStore(ctx, "store-1", "owner-1", models.StorePatch{
		Name:         &name,
		SlotCapacity: &capacity,
		SlotTemplate: []string{"09:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Кофейня у моста", updated.Name)
	assert.Equal(t, int64(5), updated.SlotCapacity)
	assert.Equal(t, []string{"09:00"}, updated.SlotTemplate)
	// Непереданные поля не трогаются.
	assert.Equal(t, "cafe", updated.Category)
}

func TestUpdateStore_InvalidPatch(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestCatalogService(repo)
	ctx := context.Background()

	repo.On("GetStore", ctx, "store-1").Return(testStore(), nil)

	empty := "  "
	_, err := svc.UpdateStore(ctx, "store-1", "owner-1", models.StorePatch{Name: &empty})
	assert.ErrorIs(t, err, database.ErrValidation)

	_, err = svc.UpdateStore(ctx, "store-1", "owner-1", models.StorePatch{SlotTemplate: []string{"noon"}})
	assert.ErrorIs(t, err, database.ErrValidation)

	// Стереть расписание целиком нельзя.
	_, err = svc.UpdateStore(ctx, "store-1", "owner-1", models.StorePatch{SlotTemplate: []string{}})
	assert.ErrorIs(t, err, database.ErrValidation)
}

func TestDeactivateStore(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestCatalogService(repo)
	ctx := context.Background()

	repo.On("GetStore", ctx, "store-1").Return(testStore(), nil)
	repo.On("DeactivateStore", ctx, "store-1").Return(nil)

	require.NoError(t, svc.DeactivateStore(ctx, "store-1", "owner-1"))

	err := svc.DeactivateStore(ctx, "store-1", "intruder")
	assert.ErrorIs(t, err, database.ErrPermissionDenied)
}

func TestListStores_PassesFilter(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestCatalogService(repo)
	ctx := context.Background()

	filter := database.StoreFilter{Category: "cafe", Query: "утро"}
	repo.On("ListStores", ctx, filter).Return([]*models.Store{testStore()}, nil)

	stores, err := svc.ListStores(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, stores, 1)
	repo.AssertExpectations(t)
}
