package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"vitrina/internal/models"

	"github.com/google/uuid"
)

const storeColumns = `id, owner_id, name, category, address, contact_info,
                 opening_hours, slot_template, slot_capacity, is_active,
                 created_at, updated_at`

// StoreFilter narrows ListStores results. Zero value matches everything.
type StoreFilter struct {
	Category string
	Query    string
}

func (db *DB) CreateStore(ctx context.Context, store *models.Store) error {
	hours, err := json.Marshal(store.OpeningHours)
	if err != nil {
		return fmt.Errorf("failed to encode opening hours: %w", err)
	}
	slots, err := json.Marshal(store.SlotTemplate)
	if err != nil {
		return fmt.Errorf("failed to encode slot template: %w", err)
	}

	query := `INSERT INTO stores (
				id, owner_id, name, category, address, contact_info,
				opening_hours, slot_template, slot_capacity, is_active,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	id := uuid.NewString()
	_, err = db.ExecContext(ctx, query,
		id,
		store.OwnerID,
		store.Name,
		store.Category,
		store.Address,
		store.ContactInfo,
		string(hours),
		string(slots),
		store.SlotCapacity,
		store.IsActive,
		now,
		now,
	)
	if err != nil {
		return unavailable("failed to create store", err)
	}

	store.ID = id
	store.CreatedAt = now
	store.UpdatedAt = now
	return nil
}

func (db *DB) GetStore(ctx context.Context, id string) (*models.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE id = ?`
	store, err := scanStore(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, unavailable("failed to get store", err)
	}
	return store, nil
}

func (db *DB) ListStores(ctx context.Context, filter StoreFilter) ([]*models.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE is_active = 1`
	var args []interface{}

	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.Query != "" {
		query += ` AND name LIKE ? COLLATE NOCASE`
		args = append(args, "%"+filter.Query+"%")
	}
	query += ` ORDER BY name ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("failed to list stores", err)
	}
	defer rows.Close()

	var stores []*models.Store
	for rows.Next() {
		store, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		stores = append(stores, store)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("failed to list stores", err)
	}
	return stores, nil
}

func (db *DB) UpdateStore(ctx context.Context, store *models.Store) error {
	hours, err := json.Marshal(store.OpeningHours)
	if err != nil {
		return fmt.Errorf("failed to encode opening hours: %w", err)
	}
	slots, err := json.Marshal(store.SlotTemplate)
	if err != nil {
		return fmt.Errorf("failed to encode slot template: %w", err)
	}

	query := `UPDATE stores SET name = ?, category = ?, address = ?, contact_info = ?,
	                 opening_hours = ?, slot_template = ?, slot_capacity = ?, is_active = ?,
	                 updated_at = ?
              WHERE id = ?`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		store.Name,
		store.Category,
		store.Address,
		store.ContactInfo,
		string(hours),
		string(slots),
		store.SlotCapacity,
		store.IsActive,
		now,
		store.ID,
	)
	if err != nil {
		return unavailable("failed to update store", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrStoreNotFound
	}
	store.UpdatedAt = now
	return nil
}

// DeactivateStore мягко отключает магазин вместо удаления.
func (db *DB) DeactivateStore(ctx context.Context, id string) error {
	query := `UPDATE stores SET is_active = 0, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return unavailable("failed to deactivate store", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrStoreNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStore(row rowScanner) (*models.Store, error) {
	var store models.Store
	var hoursRaw, slotsRaw string
	err := row.Scan(
		&store.ID, &store.OwnerID, &store.Name, &store.Category, &store.Address,
		&store.ContactInfo, &hoursRaw, &slotsRaw, &store.SlotCapacity,
		&store.IsActive, &store.CreatedAt, &store.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(hoursRaw), &store.OpeningHours); err != nil {
		return nil, fmt.Errorf("failed to decode opening hours for store %s: %w", store.ID, err)
	}
	if err := json.Unmarshal([]byte(slotsRaw), &store.SlotTemplate); err != nil {
		return nil, fmt.Errorf("failed to decode slot template for store %s: %w", store.ID, err)
	}
	return &store, nil
}

// Категории активных магазинов, без дублей, по алфавиту.
func (db *DB) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT category FROM stores WHERE is_active = 1 ORDER BY category`)
	if err != nil {
		return nil, unavailable("failed to list categories", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, strings.TrimSpace(c))
	}
	return categories, rows.Err()
}
