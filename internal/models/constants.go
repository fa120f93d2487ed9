package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	// DateLayout формат календарной даты без времени
	DateLayout = "2006-01-02"

	// SlotLayout формат слота (время начала, 24 часа)
	SlotLayout = "15:04"

	// DefaultSlotCapacity вместимость слота по умолчанию
	DefaultSlotCapacity = 1

	// DefaultMaxBookingDays горизонт бронирования по умолчанию
	DefaultMaxBookingDays = 90

	// SlotDurationMinutes длительность одного слота
	SlotDurationMinutes = 30

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 128
)
