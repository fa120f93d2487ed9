package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vitrina/internal/models"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func setupMockServer(ctx context.Context) (*http.ServeMux, *httptest.Server, *SheetsService) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	srv, _ := sheets.NewService(ctx, option.WithEndpoint(server.URL), option.WithoutAuthentication())
	s := &SheetsService{
		service:       srv,
		spreadsheetID: "schedule_tid",
		rowCache:      make(map[string]int),
	}
	return mux, server, s
}

func TestSheetsService_TestConnection(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockServer(ctx)
	defer server.Close()
	mux.HandleFunc("/v4/spreadsheets/schedule_tid/values/Bookings!A1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}}})
	})
	if err := s.TestConnection(ctx); err != nil {
		t.Errorf("TestConnection failed: %v", err)
	}
}

func TestSheetsService_WarmUpCache(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockServer(ctx)
	defer server.Close()
	mux.HandleFunc("/v4/spreadsheets/schedule_tid/values/Bookings!A:A", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{
			Values: [][]interface{}{{"ID"}, {"booking-1"}, {"booking-2"}},
		})
	})
	if err := s.WarmUpCache(ctx); err != nil {
		t.Errorf("WarmUpCache failed: %v", err)
	}
	if row, ok := s.getCachedRow("booking-1"); !ok || row != 2 {
		t.Errorf("Expected row 2 for booking-1, got %d", row)
	}
}

func TestSheetsService_UpsertBooking_AppendsWhenMissing(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockServer(ctx)
	defer server.Close()

	mux.HandleFunc("/v4/spreadsheets/schedule_tid/values/Bookings!A:A", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}}})
	})
	appended := false
	mux.HandleFunc("/v4/spreadsheets/schedule_tid/values/Bookings!A:A:append", func(w http.ResponseWriter, r *http.Request) {
		appended = true
		_ = json.NewEncoder(w).Encode(sheets.AppendValuesResponse{})
	})

	booking := &models.Booking{ID: "booking-9", Date: time.Now(), CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := s.UpsertBooking(ctx, booking); err != nil {
		t.Errorf("UpsertBooking failed: %v", err)
	}
	if !appended {
		t.Error("expected append for a booking missing from the sheet")
	}
}

func TestSheetsService_UpsertBooking_UpdatesCachedRow(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockServer(ctx)
	defer server.Close()

	s.setCachedRow("booking-5", 5)
	updated := false
	mux.HandleFunc("/v4/spreadsheets/schedule_tid/values/Bookings!A5:J5", func(w http.ResponseWriter, r *http.Request) {
		updated = true
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	booking := &models.Booking{ID: "booking-5", Date: time.Now(), CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := s.UpsertBooking(ctx, booking); err != nil {
		t.Errorf("UpsertBooking failed: %v", err)
	}
	if !updated {
		t.Error("expected in-place update for a cached booking row")
	}
}

func TestSheetsService_UpdateBookingStatus(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockServer(ctx)
	defer server.Close()

	s.setCachedRow("booking-3", 3)
	mux.HandleFunc("/v4/spreadsheets/schedule_tid/values/Bookings!G3:G3", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})
	mux.HandleFunc("/v4/spreadsheets/schedule_tid/values/Bookings!J3:J3", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	if err := s.UpdateBookingStatus(ctx, "booking-3", models.StatusConfirmed); err != nil {
		t.Errorf("UpdateBookingStatus failed: %v", err)
	}
}

func TestSheetsService_ReplaceBookingsSheet(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockServer(ctx)
	defer server.Close()

	mux.HandleFunc("/v4/spreadsheets/schedule_tid/values/Bookings!A1:J2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	bookings := []*models.Booking{
		{ID: "booking-1", Date: time.Now(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}
	if err := s.ReplaceBookingsSheet(ctx, bookings); err != nil {
		t.Errorf("ReplaceBookingsSheet failed: %v", err)
	}
	if row, ok := s.getCachedRow("booking-1"); !ok || row != 2 {
		t.Errorf("Expected cached row 2 after replace, got %d", row)
	}
}
