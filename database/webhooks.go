package database

import (
	"fmt"
	"time"

	"rustbot/models"
)

// RecordWebhook remembers an ephemeral webhook so the janitor can delete it
// if the process dies before the correction window closes.
func (s *Store) RecordWebhook(webhookID, channelID string) error {
	query := `
    INSERT OR REPLACE INTO pending_webhooks (webhook_id, channel_id, created_at)
    VALUES (?, ?, ?);`

	_, err := s.db.Exec(query, webhookID, channelID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to record webhook: %w", err)
	}
	return nil
}

// ClearWebhook drops the record once the webhook has been deleted.
func (s *Store) ClearWebhook(webhookID string) error {
	_, err := s.db.Exec(`DELETE FROM pending_webhooks WHERE webhook_id = ?;`, webhookID)
	if err != nil {
		return fmt.Errorf("failed to clear webhook record: %w", err)
	}
	return nil
}

// StaleWebhooks lists recorded webhooks older than the given age. These are
// leftovers from moves whose correction listener never got to clean up.
func (s *Store) StaleWebhooks(olderThan time.Duration) ([]models.PendingWebhook, error) {
	cutoff := time.Now().Add(-olderThan).Unix()

	rows, err := s.db.Query(`SELECT webhook_id, channel_id, created_at FROM pending_webhooks WHERE created_at < ?;`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale webhooks: %w", err)
	}
	defer rows.Close()

	var webhooks []models.PendingWebhook
	for rows.Next() {
		var w models.PendingWebhook
		if err := rows.Scan(&w.WebhookID, &w.ChannelID, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan webhook record: %w", err)
		}
		webhooks = append(webhooks, w)
	}
	return webhooks, rows.Err()
}
