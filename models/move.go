package models

// MoveRecord is one audit-log entry for a completed relocation.
type MoveRecord struct {
	GuildID         string
	SourceChannelID string
	DestinationID   string
	InitiatorID     string
	MessageCount    int
	Timestamp       int64
}

// PendingWebhook tracks an ephemeral relay webhook that has not been
// cleaned up yet.
type PendingWebhook struct {
	WebhookID string
	ChannelID string
	CreatedAt int64
}
