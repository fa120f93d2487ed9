package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"vitrina/internal/database"
	"vitrina/internal/metrics"
	"vitrina/internal/models"
	"vitrina/internal/service"
)

type createStoreRequest struct {
	OwnerID      string                `json:"owner_id"`
	Name         string                `json:"name"`
	Category     string                `json:"category"`
	Address      string                `json:"address"`
	ContactInfo  string                `json:"contact_info"`
	OpeningHours []models.OpeningHours `json:"opening_hours"`
	SlotTemplate []string              `json:"slot_template"`
	SlotCapacity int64                 `json:"slot_capacity"`
}

type updateStoreRequest struct {
	ActorID      string                `json:"actor_id"`
	Name         *string               `json:"name"`
	Category     *string               `json:"category"`
	Address      *string               `json:"address"`
	ContactInfo  *string               `json:"contact_info"`
	OpeningHours []models.OpeningHours `json:"opening_hours"`
	SlotTemplate []string              `json:"slot_template"`
	SlotCapacity *int64                `json:"slot_capacity"`
	IsActive     *bool                 `json:"is_active"`
}

type createBookingRequest struct {
	CustomerID string `json:"customer_id"`
	StoreID    string `json:"store_id"`
	Date       string `json:"date"`
	Slot       string `json:"slot"`
	PartySize  int64  `json:"party_size"`
	Notes      string `json:"notes"`
}

type transitionRequest struct {
	ActorID string `json:"actor_id"`
	Status  string `json:"status"`
}

func (s *HTTPServer) handleStores(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter := database.StoreFilter{
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
			Query:    strings.TrimSpace(r.URL.Query().Get("q")),
		}
		stores, err := s.catalog.ListStores(r.Context(), filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"stores": stores})

	case http.MethodPost:
		var body createStoreRequest
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		store, err := s.catalog.CreateStore(r.Context(), body.OwnerID, service.CreateStoreRequest{
			Name:         body.Name,
			Category:     body.Category,
			Address:      body.Address,
			ContactInfo:  body.ContactInfo,
			OpeningHours: body.OpeningHours,
			SlotTemplate: body.SlotTemplate,
			SlotCapacity: body.SlotCapacity,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, store)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleStoreSubtree разбирает пути вида /api/v1/stores/{id}[/{action}].
func (s *HTTPServer) handleStoreSubtree(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/stores/"), "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	storeID := parts[0]

	if len(parts) == 1 {
		s.handleStoreItem(w, r, storeID)
		return
	}
	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch parts[1] {
	case "slots":
		s.handleStoreSlots(w, r, storeID)
	case "stats":
		s.handleStoreStats(w, r, storeID)
	case "bookings":
		s.handleStoreBookings(w, r, storeID)
	case "export":
		s.handleStoreExport(w, r, storeID)
	case "checkin":
		s.handleCheckIn(w, r, storeID, true)
	case "checkout":
		s.handleCheckIn(w, r, storeID, false)
	case "occupancy":
		s.handleOccupancy(w, r, storeID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) handleStoreItem(w http.ResponseWriter, r *http.Request, storeID string) {
	switch r.Method {
	case http.MethodGet:
		store, err := s.catalog.GetStore(r.Context(), storeID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, store)

	case http.MethodPatch:
		var body updateStoreRequest
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		store, err := s.catalog.UpdateStore(r.Context(), storeID, body.ActorID, models.StorePatch{
			Name:         body.Name,
			Category:     body.Category,
			Address:      body.Address,
			ContactInfo:  body.ContactInfo,
			OpeningHours: body.OpeningHours,
			SlotTemplate: body.SlotTemplate,
			SlotCapacity: body.SlotCapacity,
			IsActive:     body.IsActive,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, store)

	case http.MethodDelete:
		actorID := strings.TrimSpace(r.URL.Query().Get("actor_id"))
		if err := s.catalog.DeactivateStore(r.Context(), storeID, actorID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleStoreSlots(w http.ResponseWriter, r *http.Request, storeID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date, ok := parseDateParam(w, r, "date")
	if !ok {
		return
	}

	slots, err := s.bookings.GetAvailableSlots(r.Context(), storeID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"store_id": storeID,
		"date":     date.Format(models.DateLayout),
		"slots":    slots,
	})
}

func (s *HTTPServer) handleStoreStats(w http.ResponseWriter, r *http.Request, storeID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ownerID := strings.TrimSpace(r.URL.Query().Get("owner_id"))
	stats, err := s.queries.StoreStats(r.Context(), storeID, ownerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) handleStoreBookings(w http.ResponseWriter, r *http.Request, storeID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ownerID := strings.TrimSpace(r.URL.Query().Get("owner_id"))
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	bookings, err := s.queries.BookingsForStore(r.Context(), storeID, ownerID, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleStoreExport(w http.ResponseWriter, r *http.Request, storeID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusNotImplemented, "export is not configured")
		return
	}

	store, err := s.catalog.GetStore(r.Context(), storeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	ownerID := strings.TrimSpace(r.URL.Query().Get("owner_id"))
	if store.OwnerID != ownerID {
		writeServiceError(w, database.ErrPermissionDenied)
		return
	}

	from, ok := parseDateParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := parseDateParam(w, r, "to")
	if !ok {
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not be before from")
		return
	}

	path, err := s.exporter.ExportStoreSchedule(r.Context(), storeID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=schedule.xlsx")
	http.ServeFile(w, r, path)
}

func (s *HTTPServer) handleCheckIn(w http.ResponseWriter, r *http.Request, storeID string, in bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.occupancy == nil {
		writeError(w, http.StatusNotImplemented, "occupancy tracking is not configured")
		return
	}

	// Поток входов ведется только для существующих магазинов.
	if _, err := s.catalog.GetStore(r.Context(), storeID); err != nil {
		writeServiceError(w, err)
		return
	}

	var current int64
	var err error
	if in {
		current, err = s.occupancy.CheckIn(r.Context(), storeID)
		metrics.IncCheckIn("in")
	} else {
		current, err = s.occupancy.CheckOut(r.Context(), storeID)
		metrics.IncCheckIn("out")
	}
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "occupancy counter unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"store_id": storeID, "current": current})
}

func (s *HTTPServer) handleOccupancy(w http.ResponseWriter, r *http.Request, storeID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.occupancy == nil {
		writeError(w, http.StatusNotImplemented, "occupancy tracking is not configured")
		return
	}

	store, err := s.catalog.GetStore(r.Context(), storeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	current, err := s.occupancy.Current(r.Context(), storeID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "occupancy counter unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"store_id":              storeID,
		"current":               current,
		"wait_estimate_minutes": waitEstimateMinutes(current, store.SlotCapacity),
	})
}

// waitEstimateMinutes грубо оценивает очередь: сколько полных партий
// размером со слот стоит перед посетителем, по slotDurationMinutes на партию.
func waitEstimateMinutes(current, capacity int64) int64 {
	if current <= 0 || capacity <= 0 {
		return 0
	}
	return (current / capacity) * models.SlotDurationMinutes
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body createBookingRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := time.Parse(models.DateLayout, strings.TrimSpace(body.Date))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	booking, err := s.bookings.CreateBooking(r.Context(), body.CustomerID, service.CreateBookingRequest{
		StoreID:   body.StoreID,
		Date:      date,
		Slot:      body.Slot,
		PartySize: body.PartySize,
		Notes:     body.Notes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// handleBookingSubtree разбирает /api/v1/bookings/{id}[/status].
func (s *HTTPServer) handleBookingSubtree(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/"), "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	bookingID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		booking, err := s.bookings.GetBooking(r.Context(), bookingID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)

	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPost:
		var body transitionRequest
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		booking, err := s.bookings.Transition(r.Context(), bookingID, body.ActorID, body.Status)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleCustomerSubtree разбирает /api/v1/customers/{id}/bookings.
func (s *HTTPServer) handleCustomerSubtree(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/customers/"), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "bookings" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	bookings, err := s.queries.BookingsForCustomer(r.Context(), parts[0], status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	categories, err := s.catalog.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func parseDateParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		writeError(w, http.StatusBadRequest, name+" is required")
		return time.Time{}, false
	}
	date, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name+" format; expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}
