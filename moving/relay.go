package moving

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// invisiblePlaceholder is sent when a message has no text, since webhook
// executions with empty content are rejected by the platform.
const invisiblePlaceholder = "_ _"

// RelayedMessage is the re-posted copy of a selected message, tagged with
// the original author for the correction window.
type RelayedMessage struct {
	Message  *discordgo.Message
	AuthorID string
}

// moveSaga records the compensating actions for every completed side effect
// of a relay, so a failure mid-way can undo the partial work.
type moveSaga struct {
	deleteWebhook     func() error
	deleteDestination func() error
	deleteMessages    []func() error
}

// Relayer re-posts selected messages into the destination through an
// ephemeral webhook, impersonating the original authors.
type Relayer struct {
	Discord Discord
	Log     *logrus.Entry
}

// Relay sends every selected message in order. On the first hard failure it
// rolls back all completed side effects and returns the failure wrapped with
// rollback context; the caller must not delete the originals in that case.
func (r *Relayer) Relay(guildID string, dest ResolvedDestination, webhook *discordgo.Webhook, messages []SelectedMessage) ([]RelayedMessage, error) {
	saga := &moveSaga{
		deleteWebhook: func() error { return r.Discord.DeleteWebhook(webhook.ID) },
	}
	if dest.NewlyCreated {
		saga.deleteDestination = func() error { return r.Discord.DeleteChannel(dest.TargetID()) }
	}

	var relayed []RelayedMessage
	for _, msg := range messages {
		sent, err := r.relayOne(guildID, dest, webhook, msg)
		if err != nil {
			r.rollback(saga)
			return nil, fmt.Errorf("failed to move messages (partial work rolled back): %w", err)
		}

		relayed = append(relayed, RelayedMessage{Message: sent, AuthorID: msg.Author.ID})

		sentID := sent.ID
		saga.deleteMessages = append(saga.deleteMessages, func() error {
			return r.Discord.DeleteMessage(dest.TargetID(), sentID)
		})
	}

	return relayed, nil
}

func (r *Relayer) relayOne(guildID string, dest ResolvedDestination, webhook *discordgo.Webhook, msg SelectedMessage) (*discordgo.Message, error) {
	content := msg.Content
	if content == "" {
		content = invisiblePlaceholder
	}

	params := &discordgo.WebhookParams{
		Content:         content,
		Username:        r.Discord.DisplayName(guildID, msg.Author),
		AvatarURL:       msg.Author.AvatarURL(""),
		Embeds:          msg.Embeds,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}

	// Attachments are re-uploaded from their original URLs. A single failed
	// attachment is not fatal to the move.
	for _, attachment := range msg.Attachments {
		body, err := r.Discord.DownloadAttachment(attachment.URL)
		if err != nil {
			r.Log.WithError(err).WithField("attachment", attachment.URL).
				Warn("failed to re-fetch attachment for relayed message")
			continue
		}
		params.Files = append(params.Files, &discordgo.File{
			Name:        attachment.Filename,
			ContentType: attachment.ContentType,
			Reader:      body,
		})
	}

	sent, err := r.Discord.ExecuteWebhook(webhook, dest.ThreadID, params)
	closeFiles(params.Files)
	if err != nil {
		return nil, fmt.Errorf("executing webhook: %w", err)
	}
	if sent == nil {
		// We always ask the platform to wait for confirmation, so a nil
		// message is an engine invariant violation.
		return nil, fmt.Errorf("webhook accepted message without confirmation")
	}

	return sent, nil
}

// rollback undoes the completed side effects, collecting failures instead
// of aborting on them. The webhook goes first; then, for destinations
// created by this move, deleting the whole destination supersedes the
// per-message undos. Only when destination deletion itself fails are the
// relayed messages deleted one by one, newest first.
func (r *Relayer) rollback(saga *moveSaga) {
	if err := saga.deleteWebhook(); err != nil {
		r.Log.WithError(err).Warn("rollback: failed to delete webhook")
	}

	if saga.deleteDestination != nil {
		err := saga.deleteDestination()
		if err == nil {
			return
		}
		r.Log.WithError(err).Warn("rollback: failed to delete created destination, deleting messages instead")
	}

	for i := len(saga.deleteMessages) - 1; i >= 0; i-- {
		if err := saga.deleteMessages[i](); err != nil {
			r.Log.WithError(err).Warn("rollback: failed to delete relayed message")
		}
	}
}

// PostNotice announces the move in the destination. Failure is non-fatal.
func (r *Relayer) PostNotice(dest ResolvedDestination, initiatorID, sourceChannelID string, participants []string) {
	var roster strings.Builder
	for _, id := range participants {
		fmt.Fprintf(&roster, "<@%s>", id)
	}

	notice := fmt.Sprintf(
		"<@%s> moved the conversation from <#%s> to here.\nParticipants: %s",
		initiatorID, sourceChannelID, roster.String(),
	)

	if _, err := r.Discord.SendMessage(dest.TargetID(), notice, true); err != nil {
		r.Log.WithError(err).Warn("failed to send notice to move destination")
	}
}

func closeFiles(files []*discordgo.File) {
	for _, f := range files {
		if closer, ok := f.Reader.(interface{ Close() error }); ok {
			closer.Close()
		}
	}
}
