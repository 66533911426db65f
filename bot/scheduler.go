package bot

import (
	"rustbot/database"
	"rustbot/moving"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var c *cron.Cron

// startScheduler starts the cron jobs.
func startScheduler(s *discordgo.Session, store *database.Store) {
	logrus.Info("initializing scheduler")
	c = cron.New()
	_, err := c.AddFunc("@hourly", func() {
		sweepStaleWebhooks(s, store)
	})
	if err != nil {
		logrus.Fatalf("could not set up cron job: %v", err)
	}
	c.Start()

	// Run once on startup too, to pick up leftovers from a crash.
	go sweepStaleWebhooks(s, store)
}

// stopScheduler stops the cron jobs.
func stopScheduler() {
	if c != nil {
		c.Stop()
		logrus.Info("scheduler stopped")
	}
}

// sweepStaleWebhooks deletes relay webhooks whose correction window has long
// passed. Normally the correction listener cleans up after itself; records
// older than the window mean the process died mid-move.
func sweepStaleWebhooks(s *discordgo.Session, store *database.Store) {
	stale, err := store.StaleWebhooks(moving.CorrectionWindow)
	if err != nil {
		logrus.WithError(err).Error("failed to query stale webhooks")
		return
	}

	for _, webhook := range stale {
		if err := s.WebhookDelete(webhook.WebhookID); err != nil {
			logrus.WithError(err).WithField("webhook", webhook.WebhookID).
				Warn("failed to delete stale webhook")
		}
		// Clear the record either way; a delete failure here usually means
		// the webhook is already gone.
		if err := store.ClearWebhook(webhook.WebhookID); err != nil {
			logrus.WithError(err).Warn("failed to clear stale webhook record")
		}
	}

	if len(stale) > 0 {
		logrus.WithField("count", len(stale)).Info("cleaned up stale relay webhooks")
	}
}
