package moving

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

const (
	// CorrectionWindow is how long the original authors can react to their
	// relayed messages before the listener shuts down.
	CorrectionWindow = 4 * time.Hour
	// EditReplyWindow is how long an author has to answer the DM edit prompt.
	EditReplyWindow = 5 * time.Minute

	deleteEmoji = "❌"
)

// editEmojis are the reactions that open the DM edit flow.
var editEmojis = []string{"\U0001f4dd", "✏️", "✏"} // 📝 ✏️ ✏

// isEditEmoji matches both the plain pencil and its variation-selector form,
// since clients differ in which one they send.
func isEditEmoji(name string) bool {
	for _, emoji := range editEmojis {
		if name == emoji {
			return true
		}
	}
	return false
}

// CorrectionListener watches relayed messages for reactions from their
// original authors and applies delete or edit corrections. It runs as a
// detached task after a successful relay and owns the ephemeral webhook for
// the remainder of its life.
type CorrectionListener struct {
	Discord Discord
	Router  *Router
	Store   Store
	Log     *logrus.Entry

	// Timeout defaults to CorrectionWindow when zero.
	Timeout time.Duration
	// EditTimeout defaults to EditReplyWindow when zero.
	EditTimeout time.Duration
}

// Listen consumes reaction events until the inactivity timeout elapses or
// the stream closes, then deletes the webhook, which it is the last owner
// of by this point.
func (l *CorrectionListener) Listen(destinationID string, webhook *discordgo.Webhook, threadID string, relayed []RelayedMessage) {
	timeout := l.Timeout
	if timeout == 0 {
		timeout = CorrectionWindow
	}

	authors := make(map[string]string, len(relayed)) // relayed message ID -> original author
	allowedAuthors := make(map[string]struct{}, len(relayed))
	byID := make(map[string]*discordgo.Message, len(relayed))
	for _, rm := range relayed {
		authors[rm.Message.ID] = rm.AuthorID
		allowedAuthors[rm.AuthorID] = struct{}{}
		byID[rm.Message.ID] = rm.Message
	}

	reactions := l.Router.SubscribeReactions(destinationID)
	defer l.Router.UnsubscribeReactions(destinationID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			l.shutdown(webhook)
			return

		case reaction, ok := <-reactions:
			if !ok {
				l.shutdown(webhook)
				return
			}

			if !l.handleReaction(reaction, webhook, threadID, authors, allowedAuthors, byID) {
				continue
			}

			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(timeout)
		}
	}
}

// handleReaction applies one correction. Returns true if the reaction was
// relevant to a relayed message (and should reset the inactivity timer).
func (l *CorrectionListener) handleReaction(
	reaction *discordgo.MessageReactionAdd,
	webhook *discordgo.Webhook,
	threadID string,
	authors map[string]string,
	allowedAuthors map[string]struct{},
	byID map[string]*discordgo.Message,
) bool {
	// Cheap allow-list checks before the exact author match.
	authorID, ok := authors[reaction.MessageID]
	if !ok {
		return false
	}
	if _, ok := allowedAuthors[reaction.UserID]; !ok {
		return false
	}
	// Only the user who originally posted the message may correct it.
	if reaction.UserID != authorID {
		return false
	}

	message, ok := byID[reaction.MessageID]
	if !ok {
		l.Log.Warn("message tracked in author map but not in relayed set")
		return false
	}

	switch {
	case reaction.Emoji.Name == deleteEmoji:
		if err := l.Discord.DeleteMessage(message.ChannelID, message.ID); err != nil {
			l.Log.WithError(err).Warn("failed to delete relayed message")
		}
		delete(authors, message.ID)
		delete(byID, message.ID)
		return true

	case isEditEmoji(reaction.Emoji.Name):
		go l.promptForEdit(authorID, message, webhook, threadID)

		if err := l.Discord.RemoveReaction(reaction.ChannelID, reaction.MessageID, reaction.Emoji.Name, reaction.UserID); err != nil {
			l.Log.WithError(err).Warn("failed to remove edit reaction")
		}
		return true
	}

	return false
}

// promptForEdit DMs the author a quote of the relayed message and waits for
// a single reply to use as the new content.
func (l *CorrectionListener) promptForEdit(userID string, message *discordgo.Message, webhook *discordgo.Webhook, threadID string) {
	editTimeout := l.EditTimeout
	if editTimeout == 0 {
		editTimeout = EditReplyWindow
	}

	dm, err := l.Discord.CreateDMChannel(userID)
	if err != nil {
		l.Log.WithError(err).Warn("failed to open DM channel for edit prompt")
		return
	}

	prompt, err := l.Discord.SendMessage(dm.ID, editPromptText(message.Content), false)
	if err != nil {
		l.Log.WithError(err).Warn("failed to DM edit prompt")
		return
	}

	replies := l.Router.SubscribeDM(dm.ID)
	defer l.Router.UnsubscribeDM(dm.ID)

	var reply *discordgo.Message
	select {
	case reply = <-replies:
	case <-time.After(editTimeout):
		if err := l.Discord.DeleteMessage(dm.ID, prompt.ID); err != nil {
			l.Log.WithError(err).Warn("failed to delete edit prompt")
		}
		return
	}

	if err := l.Discord.EditWebhookMessage(webhook, message.ID, threadID, reply.Content); err != nil {
		l.Log.WithError(err).Warn("failed to edit relayed message")

		notice := fmt.Sprintf("Failed to edit message, webhook has likely been deleted: %v", err)
		if _, err := l.Discord.SendMessage(dm.ID, notice, false); err != nil {
			l.Log.WithError(err).Warn("failed to notify user of failed edit")
		}
		return
	}

	if err := l.Discord.DeleteMessage(dm.ID, prompt.ID); err != nil {
		l.Log.WithError(err).Warn("failed to delete edit prompt in DM")
	}
}

// shutdown deletes the webhook and clears its crash-recovery record.
func (l *CorrectionListener) shutdown(webhook *discordgo.Webhook) {
	if err := l.Discord.DeleteWebhook(webhook.ID); err != nil {
		l.Log.WithError(err).Warn("failed to delete webhook used for relaying messages")
	}
	if l.Store != nil {
		if err := l.Store.ClearWebhook(webhook.ID); err != nil {
			l.Log.WithError(err).Warn("failed to clear webhook record")
		}
	}
}

func editPromptText(original string) string {
	var b strings.Builder
	b.WriteString("**Original message:**\n")
	for _, line := range strings.Split(original, "\n") {
		b.WriteString("> ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n**Please respond with your edit within the next five minutes:**")

	text := b.String()
	if runes := []rune(text); len(runes) > 2048 {
		text = string(runes[:2048])
	}
	return text
}
