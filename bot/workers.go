package bot

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// StartExpirySweeper starts a background worker that deactivates expired redeem codes.
// Returns a cleanup function to stop the worker gracefully.
func (b *Bot) StartExpirySweeper(ctx context.Context, interval time.Duration) func() {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	stopChan := make(chan struct{})

	sweep := func() {
		if count := b.ledger.SweepExpiredCodes(ctx); count > 0 {
			log.WithField("count", count).Info("Expiry sweep deactivated codes")
		}
	}

	go func() {
		log.WithField("interval", interval).Info("Code expiry worker started")

		// Run immediately on startup
		sweep()

		for {
			select {
			case <-ctx.Done():
				log.Info("Code expiry worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Code expiry worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				sweep()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(stopChan)
		})
	}
}
