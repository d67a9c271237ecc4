package jobs

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"
)

type OrphanSweeper interface {
	SweepOrphans(ctx context.Context) (int, error)
}

// AttachmentSweeper periodically deletes blobs whose attachment row is gone.
type AttachmentSweeper struct {
	sweeper  OrphanSweeper
	interval time.Duration
}

func NewAttachmentSweeper(sweeper OrphanSweeper, interval time.Duration) *AttachmentSweeper {
	return &AttachmentSweeper{sweeper: sweeper, interval: interval}
}

func (a *AttachmentSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	log.Infof("Attachment sweeper cron started (every %s)", a.interval)

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping attachment sweeper...")
			return
		case <-ticker.C:
			a.sweep(ctx)
		}
	}
}

func (a *AttachmentSweeper) sweep(ctx context.Context) {
	removed, err := a.sweeper.SweepOrphans(ctx)
	if err != nil {
		log.Errorf("Sweeper: failed to sweep attachments: %v", err)
		return
	}

	log.Debugf("Sweeper: removed %d orphan attachment blobs", removed)
}
