package worker

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"vitrina/internal/database"
	"vitrina/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type fakeSheets struct {
	err          error
	upsertCalls  int
	statusCalls  int
	lastStatus   string
	replaceCalls int
	lastReplaced []*models.Booking
}

func (f *fakeSheets) UpsertBooking(_ context.Context, _ *models.Booking) error {
	f.upsertCalls++
	return f.err
}

func (f *fakeSheets) UpdateBookingStatus(_ context.Context, _, status string) error {
	f.statusCalls++
	f.lastStatus = status
	return f.err
}

func (f *fakeSheets) ReplaceBookingsSheet(_ context.Context, bookings []*models.Booking) error {
	f.replaceCalls++
	f.lastReplaced = bookings
	return f.err
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "worker.db"), &logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func loadTaskStatus(t *testing.T, db *database.DB, id int64) (string, int, sql.NullTime) {
	t.Helper()
	var status string
	var retryCount int
	var nextRetry sql.NullTime
	err := db.QueryRow(`SELECT status, retry_count, next_retry_at FROM sync_queue WHERE id = ?`, id).
		Scan(&status, &retryCount, &nextRetry)
	if err != nil {
		t.Fatalf("load task: %v", err)
	}
	return status, retryCount, nextRetry
}

func testBooking(id string) *models.Booking {
	return &models.Booking{
		ID:         id,
		StoreID:    "store-1",
		CustomerID: "customer-1",
		Date:       time.Now(),
		Slot:       "10:00",
		PartySize:  2,
		Status:     models.StatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

func TestProcessTaskSuccess(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	worker := NewSheetsWorker(db, sheets, nil, RetryPolicy{}, nil)

	ctx := context.Background()
	if err := worker.EnqueueUpsert(ctx, testBooking("booking-1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := worker.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	worker.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	if status != "completed" {
		t.Fatalf("expected status=completed, got %s", status)
	}
	if retryCount != 0 {
		t.Fatalf("expected retry_count=0, got %d", retryCount)
	}
	if nextRetry.Valid {
		t.Fatalf("expected next_retry_at NULL on success")
	}
	if sheets.upsertCalls != 1 {
		t.Fatalf("expected upsert call, got %d", sheets.upsertCalls)
	}
}

func TestProcessTaskStatusUpdate(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	worker := NewSheetsWorker(db, sheets, nil, RetryPolicy{}, nil)

	ctx := context.Background()
	if err := worker.EnqueueStatus(ctx, "booking-1", models.StatusConfirmed); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, _ := worker.tryLocalQueue()
	worker.processTask(ctx, &task)

	if sheets.statusCalls != 1 || sheets.lastStatus != models.StatusConfirmed {
		t.Fatalf("expected one status call with confirmed, got %d %q", sheets.statusCalls, sheets.lastStatus)
	}
}

func TestProcessTaskRetry(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{err: errors.New("boom")}
	worker := NewSheetsWorker(db, sheets, nil, RetryPolicy{MaxRetries: 3, InitialDelay: time.Second}, nil)

	ctx := context.Background()
	if err := worker.EnqueueUpsert(ctx, testBooking("booking-2")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := worker.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	worker.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	if status != "retry" {
		t.Fatalf("expected status=retry, got %s", status)
	}
	if retryCount != 1 {
		t.Fatalf("expected retry_count=1, got %d", retryCount)
	}
	if !nextRetry.Valid || nextRetry.Time.Before(time.Now()) {
		t.Fatalf("expected next_retry_at in future, got %v", nextRetry)
	}
}

func TestProcessTaskFail(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{err: errors.New("fatal")}
	worker := NewSheetsWorker(db, sheets, nil, RetryPolicy{MaxRetries: 1}, nil)

	ctx := context.Background()
	if err := worker.EnqueueUpsert(ctx, testBooking("booking-3")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	task, _ := worker.tryLocalQueue()
	worker.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, db, task.ID)
	if status != "failed" {
		t.Fatalf("expected status=failed, got %s", status)
	}
}

func TestEnqueueValidation(t *testing.T) {
	db := newTestDB(t)
	worker := NewSheetsWorker(db, &fakeSheets{}, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	if err := worker.EnqueueUpsert(ctx, nil); err == nil {
		t.Fatal("expected error for nil booking")
	}
	if err := worker.EnqueueStatus(ctx, "", models.StatusConfirmed); err == nil {
		t.Fatal("expected error for empty booking id")
	}
	if err := worker.EnqueueStatus(ctx, "booking-1", ""); err == nil {
		t.Fatal("expected error for empty status")
	}
}

func TestEnqueueGoesThroughRedis(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	db := newTestDB(t)
	worker := NewSheetsWorker(db, &fakeSheets{}, client, RetryPolicy{}, nil)
	ctx := context.Background()

	if err := worker.EnqueueUpsert(ctx, testBooking("booking-4")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	// Задача уходит в redis, локальная очередь остается пустой.
	if _, ok := worker.tryLocalQueue(); ok {
		t.Fatal("expected empty local queue when redis is up")
	}
	if n, _ := client.LLen(ctx, worker.redisQueueKey).Result(); n != 1 {
		t.Fatalf("expected 1 task in redis queue, got %d", n)
	}

	task, ok := worker.tryRedis(ctx)
	if !ok {
		t.Fatal("expected task from redis")
	}
	if task.TaskType != TaskUpsert {
		t.Fatalf("expected upsert task, got %s", task.TaskType)
	}
}

func TestFailedTaskLandsInDeadLetter(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	db := newTestDB(t)
	sheets := &fakeSheets{err: errors.New("fatal")}
	worker := NewSheetsWorker(db, sheets, client, RetryPolicy{MaxRetries: 1}, nil)
	ctx := context.Background()

	if err := worker.EnqueueUpsert(ctx, testBooking("booking-5")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	task, ok := worker.tryRedis(ctx)
	if !ok {
		t.Fatal("expected task from redis")
	}
	worker.processTask(ctx, &task)

	if n, _ := client.LLen(ctx, worker.deadLetterKey).Result(); n != 1 {
		t.Fatalf("expected 1 task in dead letter queue, got %d", n)
	}
}

func TestResyncRebuildsSheet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	store := &models.Store{
		OwnerID:      "owner-1",
		Name:         "Кофейня на углу",
		Category:     "cafe",
		Address:      "Невский 1",
		SlotTemplate: []string{"10:00"},
		SlotCapacity: 2,
		IsActive:     true,
	}
	if err := db.CreateStore(ctx, store); err != nil {
		t.Fatalf("create store: %v", err)
	}
	booking := &models.Booking{
		StoreID:    store.ID,
		CustomerID: "customer-1",
		Date:       time.Now().AddDate(0, 0, 1),
		Slot:       "10:00",
		PartySize:  2,
		Status:     models.StatusPending,
	}
	if err := db.CreateBookingWithLock(ctx, booking); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	sheets := &fakeSheets{}
	worker := NewSheetsWorker(db, sheets, nil, RetryPolicy{}, nil)
	worker.resync(ctx)

	if sheets.replaceCalls != 1 {
		t.Fatalf("expected one full sheet rebuild, got %d", sheets.replaceCalls)
	}
	if len(sheets.lastReplaced) != 1 || sheets.lastReplaced[0].ID != booking.ID {
		t.Fatalf("expected rebuilt sheet with booking %s, got %+v", booking.ID, sheets.lastReplaced)
	}
}

func TestRetryPolicyNextDelay(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, InitialDelay: time.Second, MaxDelay: 10 * time.Second, BackoffFactor: 2}

	if d := p.NextDelay(1); d != time.Second {
		t.Fatalf("attempt 1: expected 1s, got %v", d)
	}
	if d := p.NextDelay(3); d != 4*time.Second {
		t.Fatalf("attempt 3: expected 4s, got %v", d)
	}
	if d := p.NextDelay(10); d != 10*time.Second {
		t.Fatalf("attempt 10: expected clamp to 10s, got %v", d)
	}
	if d := (RetryPolicy{}).NextDelay(0); d != time.Second {
		t.Fatalf("zero policy: expected 1s, got %v", d)
	}
}
