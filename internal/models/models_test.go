package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"pending to confirmed", StatusPending, StatusConfirmed, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"confirmed to cancelled", StatusConfirmed, StatusCancelled, true},
		{"confirmed to pending", StatusConfirmed, StatusPending, false},
		{"cancelled to pending", StatusCancelled, StatusPending, false},
		{"cancelled to confirmed", StatusCancelled, StatusConfirmed, false},
		{"same status pending", StatusPending, StatusPending, false},
		{"same status confirmed", StatusConfirmed, StatusConfirmed, false},
		{"unknown source", "rejected", StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusPending))
	assert.True(t, ValidStatus(StatusConfirmed))
	assert.True(t, ValidStatus(StatusCancelled))
	assert.False(t, ValidStatus("completed"))
	assert.False(t, ValidStatus(""))
}

func TestCountsTowardCapacity(t *testing.T) {
	assert.True(t, (&Booking{Status: StatusPending}).CountsTowardCapacity())
	assert.True(t, (&Booking{Status: StatusConfirmed}).CountsTowardCapacity())
	assert.False(t, (&Booking{Status: StatusCancelled}).CountsTowardCapacity())
}

func TestParseSlot(t *testing.T) {
	assert.NoError(t, ParseSlot("09:00"))
	assert.NoError(t, ParseSlot("23:30"))
	assert.Error(t, ParseSlot("9am"))
	assert.Error(t, ParseSlot("25:00"))
	assert.Error(t, ParseSlot(""))
}

func TestValidateSlotTemplate(t *testing.T) {
	assert.NoError(t, ValidateSlotTemplate([]string{"09:00", "09:30", "10:00"}))
	assert.Error(t, ValidateSlotTemplate([]string{"09:00", "09:00"}))
	assert.Error(t, ValidateSlotTemplate([]string{"morning"}))
	assert.NoError(t, ValidateSlotTemplate(nil))
}

func TestValidateOpeningHours(t *testing.T) {
	assert.NoError(t, ValidateOpeningHours([]OpeningHours{
		{Day: "Monday", Hours: "09:00-18:00"},
		{Day: "Tuesday", Hours: "09:00-18:00"},
	}))
	assert.Error(t, ValidateOpeningHours([]OpeningHours{
		{Day: "Monday", Hours: "09:00-18:00"},
		{Day: "Monday", Hours: "10:00-19:00"},
	}))
	assert.Error(t, ValidateOpeningHours([]OpeningHours{{Hours: "09:00-18:00"}}))
}

func TestSortedSlots(t *testing.T) {
	s := &Store{SlotTemplate: []string{"14:00", "09:30", "09:00"}}
	assert.Equal(t, []string{"09:00", "09:30", "14:00"}, s.SortedSlots())
	// original order is untouched
	assert.Equal(t, []string{"14:00", "09:30", "09:00"}, s.SlotTemplate)
}

func TestHasSlot(t *testing.T) {
	s := &Store{SlotTemplate: []string{"09:00", "10:00"}}
	assert.True(t, s.HasSlot("09:00"))
	assert.False(t, s.HasSlot("11:00"))
}
