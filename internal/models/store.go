package models

import (
	"fmt"
	"sort"
	"time"
)

// OpeningHours описывает часы работы на один день недели.
type OpeningHours struct {
	Day   string `json:"day" yaml:"day"`
	Hours string `json:"hours" yaml:"hours"`
}

type Store struct {
	ID           string         `json:"id"`
	OwnerID      string         `json:"owner_id"`
	Name         string         `json:"name"`
	Category     string         `json:"category"`
	Address      string         `json:"address"`
	ContactInfo  string         `json:"contact_info"`
	OpeningHours []OpeningHours `json:"opening_hours"`
	SlotTemplate []string       `json:"slot_template"`
	SlotCapacity int64          `json:"slot_capacity"`
	IsActive     bool           `json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// StorePatch перечисляет изменяемые поля магазина. Nil означает "не менять".
type StorePatch struct {
	Name         *string
	Category     *string
	Address      *string
	ContactInfo  *string
	OpeningHours []OpeningHours
	SlotTemplate []string
	SlotCapacity *int64
	IsActive     *bool
}

// HasSlot reports whether the slot belongs to the store's template.
func (s *Store) HasSlot(slot string) bool {
	for _, t := range s.SlotTemplate {
		if t == slot {
			return true
		}
	}
	return false
}

// SortedSlots returns the slot template ordered ascending by time of day.
// Slots are HH:MM in 24-hour form, so lexicographic order is time order.
func (s *Store) SortedSlots() []string {
	slots := append([]string(nil), s.SlotTemplate...)
	sort.Strings(slots)
	return slots
}

// ParseSlot validates a slot value as 24-hour HH:MM.
func ParseSlot(slot string) error {
	if _, err := time.Parse("15:04", slot); err != nil {
		return fmt.Errorf("invalid slot %q: expected HH:MM", slot)
	}
	return nil
}

// ValidateSlotTemplate checks every entry parses as HH:MM and is unique.
func ValidateSlotTemplate(slots []string) error {
	seen := make(map[string]bool, len(slots))
	for _, slot := range slots {
		if err := ParseSlot(slot); err != nil {
			return err
		}
		if seen[slot] {
			return fmt.Errorf("duplicate slot %q", slot)
		}
		seen[slot] = true
	}
	return nil
}

// ValidateOpeningHours checks there is at most one entry per weekday.
func ValidateOpeningHours(hours []OpeningHours) error {
	seen := make(map[string]bool, len(hours))
	for _, h := range hours {
		if h.Day == "" {
			return fmt.Errorf("opening hours entry without day")
		}
		if seen[h.Day] {
			return fmt.Errorf("duplicate opening hours for %s", h.Day)
		}
		seen[h.Day] = true
	}
	return nil
}

// SlotAvailability is one bookable slot with its remaining capacity.
type SlotAvailability struct {
	Slot      string `json:"slot"`
	Capacity  int64  `json:"capacity"`
	Remaining int64  `json:"remaining"`
}

// StoreStats are aggregate counts recomputed on demand.
type StoreStats struct {
	Total   int64 `json:"total_bookings"`
	Pending int64 `json:"pending_bookings"`
	Today   int64 `json:"todays_bookings"`
}
