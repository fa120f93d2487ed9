package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vitrina/internal/models"

	"github.com/google/uuid"
)

const bookingColumns = `id, store_id, customer_id, date, slot, party_size,
                 notes, status, created_at, updated_at, version`

// CreateBookingWithLock выполняет проверку вместимости и вставку в одной
// транзакции. Это единственный путь создания бронирования: гонка двух
// клиентов за последнее место разрешается здесь.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 1. Вместимость слота читается из stores внутри транзакции,
	// никаких кэшей между вызовами.
	var capacity int64
	var isActive bool
	err = tx.QueryRowContext(ctx,
		`SELECT slot_capacity, is_active FROM stores WHERE id = ?`,
		booking.StoreID,
	).Scan(&capacity, &isActive)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrStoreNotFound
	}
	if err != nil {
		return unavailable("failed to read store capacity in tx", err)
	}
	if !isActive {
		return ErrStoreNotFound
	}

	// 2. Занятость слота: сумма party_size по pending+confirmed.
	var taken int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(party_size), 0) FROM bookings
         WHERE store_id = ? AND date = ? AND slot = ? AND status IN (?, ?)`,
		booking.StoreID,
		booking.Date.Format(models.DateLayout),
		booking.Slot,
		models.StatusPending,
		models.StatusConfirmed,
	).Scan(&taken)
	if err != nil {
		return unavailable("failed to check slot load in tx", err)
	}

	if taken+booking.PartySize > capacity {
		return ErrSlotFull
	}

	// 3. Вставка. Идентификатор генерируется на сервере внутри транзакции.
	now := time.Now()
	id := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings (
			id, store_id, customer_id, date, slot, party_size,
			notes, status, created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		booking.StoreID,
		booking.CustomerID,
		booking.Date.Format(models.DateLayout),
		booking.Slot,
		booking.PartySize,
		booking.Notes,
		booking.Status,
		now,
		now,
		1,
	)
	if err != nil {
		return unavailable("failed to insert booking in tx", err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable("failed to commit booking", err)
	}

	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, unavailable("failed to get booking", err)
	}
	return booking, nil
}

// UpdateBookingStatusWithVersion переводит бронирование в новый статус,
// только если версия не изменилась с момента чтения.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, fromVersion)
	if err != nil {
		return unavailable("failed to update booking status", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// GetSlotLoad возвращает занятость слотов магазина на дату:
// slot -> сумма party_size по pending+confirmed.
func (db *DB) GetSlotLoad(ctx context.Context, storeID string, date time.Time) (map[string]int64, error) {
	query := `SELECT slot, SUM(party_size) FROM bookings
              WHERE store_id = ? AND date = ? AND status IN (?, ?)
              GROUP BY slot`
	rows, err := db.QueryContext(ctx, query,
		storeID, date.Format(models.DateLayout),
		models.StatusPending, models.StatusConfirmed,
	)
	if err != nil {
		return nil, unavailable("failed to get slot load", err)
	}
	defer rows.Close()

	load := make(map[string]int64)
	for rows.Next() {
		var slot string
		var taken int64
		if err := rows.Scan(&slot, &taken); err != nil {
			return nil, fmt.Errorf("failed to scan slot load: %w", err)
		}
		load[slot] = taken
	}
	return load, rows.Err()
}

func (db *DB) GetBookedPartySize(ctx context.Context, storeID string, date time.Time, slot string) (int64, error) {
	query := `SELECT COALESCE(SUM(party_size), 0) FROM bookings
              WHERE store_id = ? AND date = ? AND slot = ? AND status IN (?, ?)`
	var taken int64
	err := db.QueryRowContext(ctx, query,
		storeID, date.Format(models.DateLayout), slot,
		models.StatusPending, models.StatusConfirmed,
	).Scan(&taken)
	if err != nil {
		return 0, unavailable("failed to get booked party size", err)
	}
	return taken, nil
}

// BookingsForCustomer возвращает бронирования клиента, отсортированные
// по дате и слоту. statusFilter пустой — без фильтра.
func (db *DB) BookingsForCustomer(ctx context.Context, customerID, statusFilter string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE customer_id = ?`
	args := []interface{}{customerID}
	if statusFilter != "" {
		query += ` AND status = ?`
		args = append(args, statusFilter)
	}
	query += ` ORDER BY date ASC, slot ASC`
	return db.queryBookings(ctx, query, args...)
}

func (db *DB) BookingsForStore(ctx context.Context, storeID, statusFilter string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE store_id = ?`
	args := []interface{}{storeID}
	if statusFilter != "" {
		query += ` AND status = ?`
		args = append(args, statusFilter)
	}
	query += ` ORDER BY date ASC, slot ASC`
	return db.queryBookings(ctx, query, args...)
}

// UpcomingBookings возвращает журнал начиная с даты, по всем магазинам.
// Используется полным пересбором зеркала расписания.
func (db *DB) UpcomingBookings(ctx context.Context, from time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE date >= ? ORDER BY date ASC, slot ASC`
	return db.queryBookings(ctx, query, from.Format(models.DateLayout))
}

// BookingsForStoreByDateRange используется экспортом расписания.
func (db *DB) BookingsForStoreByDateRange(ctx context.Context, storeID string, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE store_id = ? AND date >= ? AND date <= ?
              ORDER BY date ASC, slot ASC`
	return db.queryBookings(ctx, query,
		storeID, start.Format(models.DateLayout), end.Format(models.DateLayout))
}

// GetStoreStats пересчитывает агрегаты по требованию, без инкрементальных
// счётчиков.
func (db *DB) GetStoreStats(ctx context.Context, storeID string, asOf time.Time) (*models.StoreStats, error) {
	query := `SELECT
                COUNT(*),
                COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
                COALESCE(SUM(CASE WHEN date = ? AND status IN (?, ?) THEN 1 ELSE 0 END), 0)
              FROM bookings WHERE store_id = ?`
	var stats models.StoreStats
	err := db.QueryRowContext(ctx, query,
		models.StatusPending,
		asOf.Format(models.DateLayout),
		models.StatusPending,
		models.StatusConfirmed,
		storeID,
	).Scan(&stats.Total, &stats.Pending, &stats.Today)
	if err != nil {
		return nil, unavailable("failed to get store stats", err)
	}
	return &stats, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("failed to query bookings", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var dateStr string
	err := row.Scan(
		&b.ID, &b.StoreID, &b.CustomerID, &dateStr, &b.Slot, &b.PartySize,
		&b.Notes, &b.Status, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}

	b.Date, err = time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
	}
	return &b, nil
}
