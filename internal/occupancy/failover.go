package occupancy

import (
	"context"
	"sync/atomic"
	"time"

	"vitrina/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverCounter переключается на резервный счётчик, когда основной
// (Redis) недоступен, и раз в минуту пробует вернуться обратно.
type FailoverCounter struct {
	primary   domain.OccupancyCounter
	fallback  domain.OccupancyCounter
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nano
}

func NewFailoverCounter(primary, fallback domain.OccupancyCounter, logger *zerolog.Logger) *FailoverCounter {
	return &FailoverCounter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *FailoverCounter) CheckIn(ctx context.Context, storeID string) (int64, error) {
	return f.call(ctx, storeID, domain.OccupancyCounter.CheckIn)
}

func (f *FailoverCounter) CheckOut(ctx context.Context, storeID string) (int64, error) {
	return f.call(ctx, storeID, domain.OccupancyCounter.CheckOut)
}

func (f *FailoverCounter) Current(ctx context.Context, storeID string) (int64, error) {
	return f.call(ctx, storeID, domain.OccupancyCounter.Current)
}

func (f *FailoverCounter) call(ctx context.Context, storeID string, op func(domain.OccupancyCounter, context.Context, string) (int64, error)) (int64, error) {
	if !f.isDown.Load() || f.shouldRetryPrimary() {
		val, err := op(f.primary, ctx, storeID)
		if err == nil {
			f.isDown.Store(false)
			return val, nil
		}
		f.logger.Error().Err(err).Msg("primary occupancy counter failed, falling back to memory")
		f.isDown.Store(true)
		f.lastCheck.Store(time.Now().UnixNano())
	}
	return op(f.fallback, ctx, storeID)
}

func (f *FailoverCounter) shouldRetryPrimary() bool {
	return time.Since(time.Unix(0, f.lastCheck.Load())) > time.Minute
}
