package jobs

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"
)

const ConnectionCleanInterval = 5 * time.Minute

type StaleConnectionRemover interface {
	CleanupStale(ctx context.Context) (int, error)
}

type ConnectionCleaner struct {
	remover  StaleConnectionRemover
	interval time.Duration
}

func NewConnectionCleaner(remover StaleConnectionRemover) *ConnectionCleaner {
	return &ConnectionCleaner{remover: remover, interval: ConnectionCleanInterval}
}

func (c *ConnectionCleaner) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	log.Info("Connection cleaner cron started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping connection cleaner...")
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *ConnectionCleaner) cleanup(ctx context.Context) {
	removed, err := c.remover.CleanupStale(ctx)
	if err != nil {
		log.Errorf("Cleaner: failed to remove stale connections: %v", err)
		return
	}

	if removed > 0 {
		log.Infof("Cleaner: terminated %d stale connections", removed)
	}
}
