package moving

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

// SessionAdapter implements Discord on top of a live discordgo session.
type SessionAdapter struct {
	Session *discordgo.Session
	HTTP    *http.Client
}

// NewSessionAdapter wraps a discordgo session. The HTTP client is used for
// re-fetching attachments from their CDN URLs.
func NewSessionAdapter(s *discordgo.Session) *SessionAdapter {
	return &SessionAdapter{
		Session: s,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *SessionAdapter) MessagesAfter(channelID, afterID string, limit int) ([]*discordgo.Message, error) {
	return a.Session.ChannelMessages(channelID, limit, "", afterID, "")
}

func (a *SessionAdapter) DeleteMessage(channelID, messageID string) error {
	return a.Session.ChannelMessageDelete(channelID, messageID)
}

func (a *SessionAdapter) SendMessage(channelID, content string, suppressMentions bool) (*discordgo.Message, error) {
	send := &discordgo.MessageSend{Content: content}
	if suppressMentions {
		// An empty allowed-mentions object turns every mention into plain text.
		send.AllowedMentions = &discordgo.MessageAllowedMentions{}
	}
	return a.Session.ChannelMessageSendComplex(channelID, send)
}

func (a *SessionAdapter) Channel(channelID string) (*discordgo.Channel, error) {
	if ch, err := a.Session.State.Channel(channelID); err == nil {
		return ch, nil
	}
	return a.Session.Channel(channelID)
}

func (a *SessionAdapter) GuildForumChannels(guildID string) ([]*discordgo.Channel, error) {
	channels, err := a.Session.GuildChannels(guildID)
	if err != nil {
		return nil, err
	}

	forums := make([]*discordgo.Channel, 0, 1)
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildForum {
			forums = append(forums, ch)
		}
	}
	return forums, nil
}

// DisplayName resolves the name a user shows up as in the guild, preferring
// the member nickname over the account name.
func (a *SessionAdapter) DisplayName(guildID string, user *discordgo.User) string {
	if guildID != "" {
		if member, err := a.Session.GuildMember(guildID, user.ID); err == nil && member.Nick != "" {
			return member.Nick
		}
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}

func (a *SessionAdapter) CreateThread(parentID, name string) (*discordgo.Channel, error) {
	return a.Session.ThreadStartComplex(parentID, &discordgo.ThreadStart{
		Name:                name,
		Type:                discordgo.ChannelTypeGuildPublicThread,
		AutoArchiveDuration: 1440,
	})
}

func (a *SessionAdapter) CreateForumPost(forumID, name, initialContent string) (*discordgo.Channel, error) {
	return a.Session.ForumThreadStart(forumID, name, 1440, initialContent)
}

func (a *SessionAdapter) DeleteChannel(channelID string) error {
	_, err := a.Session.ChannelDelete(channelID)
	return err
}

func (a *SessionAdapter) CreateWebhook(channelID, name string) (*discordgo.Webhook, error) {
	return a.Session.WebhookCreate(channelID, name, "")
}

func (a *SessionAdapter) ExecuteWebhook(webhook *discordgo.Webhook, threadID string, params *discordgo.WebhookParams) (*discordgo.Message, error) {
	if threadID != "" {
		return a.Session.WebhookThreadExecute(webhook.ID, webhook.Token, true, threadID, params)
	}
	return a.Session.WebhookExecute(webhook.ID, webhook.Token, true, params)
}

func (a *SessionAdapter) EditWebhookMessage(webhook *discordgo.Webhook, messageID, threadID, content string) error {
	edit := &discordgo.WebhookEdit{Content: &content}
	if threadID == "" {
		_, err := a.Session.WebhookMessageEdit(webhook.ID, webhook.Token, messageID, edit)
		return err
	}

	// The library offers no thread-aware webhook message edit, so issue the
	// PATCH with the thread_id query parameter directly.
	uri := discordgo.EndpointWebhookMessage(webhook.ID, webhook.Token, messageID) + "?thread_id=" + threadID
	_, err := a.Session.RequestWithBucketID("PATCH", uri, edit, discordgo.EndpointWebhookToken("", ""))
	return err
}

func (a *SessionAdapter) DeleteWebhook(webhookID string) error {
	return a.Session.WebhookDelete(webhookID)
}

func (a *SessionAdapter) DownloadAttachment(url string) (io.ReadCloser, error) {
	resp, err := a.HTTP.Get(url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching attachment: unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

func (a *SessionAdapter) CreateDMChannel(userID string) (*discordgo.Channel, error) {
	return a.Session.UserChannelCreate(userID)
}

func (a *SessionAdapter) RemoveReaction(channelID, messageID, emojiName, userID string) error {
	return a.Session.MessageReactionRemove(channelID, messageID, emojiName, userID)
}

func (a *SessionAdapter) RespondComponents(inter *discordgo.Interaction, components []discordgo.MessageComponent) error {
	return a.Session.InteractionRespond(inter, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Components: components,
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
}

func (a *SessionAdapter) InteractionMessage(inter *discordgo.Interaction) (*discordgo.Message, error) {
	return a.Session.InteractionResponse(inter)
}

func (a *SessionAdapter) DeferUpdate(inter *discordgo.Interaction) error {
	return a.Session.InteractionRespond(inter, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

func (a *SessionAdapter) UpdateComponents(inter *discordgo.Interaction, components []discordgo.MessageComponent) error {
	return a.Session.InteractionRespond(inter, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{Components: components},
	})
}

func (a *SessionAdapter) OpenModal(inter *discordgo.Interaction, data *discordgo.InteractionResponseData) error {
	return a.Session.InteractionRespond(inter, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: data,
	})
}

func (a *SessionAdapter) DeleteResponse(inter *discordgo.Interaction) error {
	return a.Session.InteractionResponseDelete(inter)
}

func (a *SessionAdapter) FollowUp(inter *discordgo.Interaction, content string) error {
	_, err := a.Session.FollowupMessageCreate(inter, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	return err
}
