package session

import (
	"context"
	"fmt"
	"time"

	"github.com/casahojaldre/chatbot-backend/pkg/config"
	"github.com/casahojaldre/chatbot-backend/pkg/logger"
)

// Janitor periodically sweeps idle sessions out of the store.
type Janitor struct {
	logg     *logger.Logger
	store    *Store
	interval time.Duration
}

func NewJanitor(logg *logger.Logger, store *Store, cfg config.SessionConfig) (*Janitor, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Janitor{logg: logg, store: store, interval: interval}, nil
}

// Run sweeps on a fixed cadence until the context is canceled.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logg.Info(ctx, "session janitor context canceled")
			return ctx.Err()
		case <-ticker.C:
			if removed := j.store.Sweep(); removed > 0 {
				j.logg.Info(j.logg.WithField(ctx, "removed", removed), "swept idle sessions")
			}
		}
	}
}
