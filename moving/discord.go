package moving

import (
	"io"

	"github.com/bwmarrin/discordgo"
)

// Discord is the slice of the platform API the move engine depends on.
// The production implementation is SessionAdapter; tests substitute fakes.
type Discord interface {
	// Message history and channel plumbing.
	MessagesAfter(channelID, afterID string, limit int) ([]*discordgo.Message, error)
	DeleteMessage(channelID, messageID string) error
	SendMessage(channelID, content string, suppressMentions bool) (*discordgo.Message, error)
	Channel(channelID string) (*discordgo.Channel, error)
	GuildForumChannels(guildID string) ([]*discordgo.Channel, error)
	DisplayName(guildID string, user *discordgo.User) string

	// Destination creation.
	CreateThread(parentID, name string) (*discordgo.Channel, error)
	CreateForumPost(forumID, name, initialContent string) (*discordgo.Channel, error)
	DeleteChannel(channelID string) error

	// Webhook lifecycle used for impersonated relaying.
	CreateWebhook(channelID, name string) (*discordgo.Webhook, error)
	ExecuteWebhook(webhook *discordgo.Webhook, threadID string, params *discordgo.WebhookParams) (*discordgo.Message, error)
	EditWebhookMessage(webhook *discordgo.Webhook, messageID, threadID, content string) error
	DeleteWebhook(webhookID string) error
	DownloadAttachment(url string) (io.ReadCloser, error)

	// Corrections.
	CreateDMChannel(userID string) (*discordgo.Channel, error)
	RemoveReaction(channelID, messageID, emojiName, userID string) error

	// Interaction surface for the options dialog.
	RespondComponents(inter *discordgo.Interaction, components []discordgo.MessageComponent) error
	InteractionMessage(inter *discordgo.Interaction) (*discordgo.Message, error)
	DeferUpdate(inter *discordgo.Interaction) error
	UpdateComponents(inter *discordgo.Interaction, components []discordgo.MessageComponent) error
	OpenModal(inter *discordgo.Interaction, data *discordgo.InteractionResponseData) error
	DeleteResponse(inter *discordgo.Interaction) error
	FollowUp(inter *discordgo.Interaction, content string) error
}

// Store persists bookkeeping that must survive a process restart: the move
// audit log and the set of ephemeral webhooks that still need cleanup.
type Store interface {
	RecordMove(guildID, sourceID, destinationID, initiatorID string, messageCount int) error
	RecordWebhook(webhookID, channelID string) error
	ClearWebhook(webhookID string) error
}
