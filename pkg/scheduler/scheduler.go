package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// HoldExpirer is the slice of the seat service the scheduler drives.
type HoldExpirer interface {
	ExpireHolds(ctx context.Context) (int, error)
}

type Scheduler struct {
	expirer  HoldExpirer
	interval time.Duration
}

func NewScheduler(expirer HoldExpirer, interval time.Duration) *Scheduler {
	return &Scheduler{
		expirer:  expirer,
		interval: interval,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			released, err := s.expirer.ExpireHolds(ctx)
			if err != nil {
				logrus.Errorf("Error expiring seat holds: %v", err)
				continue
			}
			if released > 0 {
				logrus.Infof("Expired %d seat holds", released)
			}
		case <-ctx.Done():
			return
		}
	}
}
