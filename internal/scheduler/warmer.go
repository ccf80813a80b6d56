package scheduler

import (
	"context"
	"time"

	"traffic-insight/internal/registry"
	"traffic-insight/internal/services"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Warmer periodically refreshes gateway readings for the default areas so
// interactive requests mostly hit a warm cache. Failures are absorbed by
// the gateway's synthetic fallback, so a warm cycle never errors.
type Warmer struct {
	cron     *cron.Cron
	gateway  *services.Gateway
	registry *registry.Registry
	areas    []string
	schedule string
	logger   *zap.Logger
}

func NewWarmer(
	gateway *services.Gateway,
	reg *registry.Registry,
	areas []string,
	schedule string,
	logger *zap.Logger,
) *Warmer {
	return &Warmer{
		cron:     cron.New(),
		gateway:  gateway,
		registry: reg,
		areas:    areas,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the cron entry and runs one warm cycle immediately.
func (w *Warmer) Start() error {
	if _, err := w.cron.AddFunc(w.schedule, w.warm); err != nil {
		return err
	}
	w.cron.Start()

	w.logger.Info("Cache warmer started",
		zap.String("schedule", w.schedule),
		zap.Strings("areas", w.areas))

	go w.warm()
	return nil
}

// Stop halts scheduling and waits for a running cycle to finish.
func (w *Warmer) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	w.logger.Info("Cache warmer stopped")
}

func (w *Warmer) warm() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	warmed := 0
	for _, name := range w.areas {
		match, ok := w.registry.Lookup(name)
		if !ok {
			w.logger.Warn("Configured warm area not in registry", zap.String("area", name))
			continue
		}
		if _, _, err := w.gateway.Fetch(ctx, match.Area); err != nil {
			w.logger.Warn("Warm fetch cancelled", zap.String("area", name), zap.Error(err))
			return
		}
		warmed++
	}

	w.logger.Info("Warm cycle completed",
		zap.Int("areas", warmed),
		zap.Duration("duration", time.Since(start)))
}
