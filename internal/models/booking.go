package models

import "time"

type Booking struct {
	ID         string    `json:"id"`
	StoreID    string    `json:"store_id"`
	CustomerID string    `json:"customer_id"`
	Date       time.Time `json:"date"`
	Slot       string    `json:"slot"`
	PartySize  int64     `json:"party_size"`
	Notes      string    `json:"notes,omitempty"`
	Status     string    `json:"status"` // pending, confirmed, cancelled
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Version    int64     `json:"version"`
}

// statusTransitions описывает разрешённые переходы статусов.
// Cancelled — терминальный статус, из него переходов нет.
var statusTransitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: {},
}

// ValidStatus reports whether the value belongs to the closed status set.
func ValidStatus(status string) bool {
	_, ok := statusTransitions[status]
	return ok
}

// CanTransition checks if the status change is allowed by the state machine.
func CanTransition(from, to string) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CountsTowardCapacity reports whether the booking consumes slot capacity.
func (b *Booking) CountsTowardCapacity() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}
