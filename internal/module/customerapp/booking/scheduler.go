package booking

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tazkarti/tz-booking/pkg/lock"
)

const sweepLockKey = "tz-booking:expiry-sweep"

// ExpirySweeper periodically expires pending bookings whose hold ran out.
type ExpirySweeper struct {
	logger   *logrus.Logger
	usecase  BookingUseCase
	locker   lock.Locker
	interval time.Duration
	batch    int64
}

type ExpirySweeperProperty struct {
	Logger         *logrus.Logger
	BookingUseCase BookingUseCase
	// Locker keeps replicas from sweeping at the same time. Nil sweeps unguarded.
	Locker   lock.Locker
	Interval time.Duration
	Batch    int64
}

func NewExpirySweeper(props ExpirySweeperProperty) *ExpirySweeper {
	return &ExpirySweeper{
		logger:   props.Logger,
		usecase:  props.BookingUseCase,
		locker:   props.Locker,
		interval: props.Interval,
		batch:    props.Batch,
	}
}

// Run sweeps on every tick until ctx is done.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.WithField("object", "expiry-sweeper").Infof("sweeping every %s", s.interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single pass and returns how many bookings were expired.
func (s *ExpirySweeper) Sweep(ctx context.Context) int {
	if s.locker != nil {
		release, err := s.locker.TryAcquire(ctx, sweepLockKey, s.interval)
		if err != nil {
			s.logger.WithField("object", "expiry-sweeper").WithError(err).Error("failed to acquire sweep lock")
			return 0
		}
		if release == nil {
			return 0
		}
		defer release(context.WithoutCancel(ctx))
	}

	expired, err := s.usecase.ExpireDueBookings(ctx, s.batch)
	if err != nil {
		s.logger.WithField("object", "expiry-sweeper").WithError(err).Error("sweep failed, retrying on next tick")
		return 0
	}

	if expired > 0 {
		s.logger.WithField("object", "expiry-sweeper").Infof("%d booking(s) expired", expired)
	}

	return expired
}
