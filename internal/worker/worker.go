// Package worker starts the background pieces that run next to the HTTP
// server.
package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/portyard/port-ticket-service/internal/service"
	"github.com/portyard/port-ticket-service/internal/simulator"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartSimulator runs sim until ctx ends or the returned stop is called.
// stop blocks until the run has returned.
func StartSimulator(ctx context.Context, sim *simulator.Simulator, logger *zap.Logger) (stop func()) {
	if sim == nil {
		return func() {}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("turn simulator started")
		if err := sim.Run(ctx); err != nil {
			logger.Error("turn simulator stopped", zap.Error(err))
			return
		}
		logger.Info("turn simulator stopped")
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			sim.Stop()
			wg.Wait()
		})
	}
}
