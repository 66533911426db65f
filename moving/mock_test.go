package moving

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// Both implementations must satisfy the full platform surface.
var (
	_ Discord = (*fakeDiscord)(nil)
	_ Discord = (*SessionAdapter)(nil)
)

// fakeDiscord implements Discord in memory and records every mutation so
// tests can assert on the exact platform calls a scenario produced.
type fakeDiscord struct {
	mu sync.Mutex

	channels map[string]*discordgo.Channel
	// history maps a channel ID to the messages posted after the starting
	// message, in chronological order.
	history map[string][]*discordgo.Message
	forums  []*discordgo.Channel

	sent            map[string][]*discordgo.Message
	deletedMessages map[string][]string
	deletedChannels []string

	webhooks        map[string]*discordgo.Webhook
	deletedWebhooks []string
	executeCount    int
	failExecuteAt   int // 1-based execute call to fail on; 0 = never

	failCreateThread  bool
	failDeleteChannel bool
	failEditWebhook   bool
	failCreateDM      bool

	editedWebhookMessages map[string]string
	removedReactions      []string
	dmChannels            map[string]*discordgo.Channel

	dialogMessage   *discordgo.Message
	updates         [][]discordgo.MessageComponent
	modals          []*discordgo.InteractionResponseData
	deferrals       int
	followups       []string
	deletedResponse bool

	nextID int
}

func newFakeDiscord() *fakeDiscord {
	return &fakeDiscord{
		channels:              make(map[string]*discordgo.Channel),
		history:               make(map[string][]*discordgo.Message),
		sent:                  make(map[string][]*discordgo.Message),
		deletedMessages:       make(map[string][]string),
		webhooks:              make(map[string]*discordgo.Webhook),
		editedWebhookMessages: make(map[string]string),
		dmChannels:            make(map[string]*discordgo.Channel),
		dialogMessage:         &discordgo.Message{ID: "dialog-msg", ChannelID: "dialog-channel"},
		nextID:                1000,
	}
}

func (f *fakeDiscord) genID() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

func (f *fakeDiscord) MessagesAfter(channelID, afterID string, limit int) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	after := f.history[channelID]
	if len(after) > limit {
		after = after[:limit]
	}

	// The real API returns newest first.
	out := make([]*discordgo.Message, len(after))
	for i, m := range after {
		out[len(after)-1-i] = m
	}
	return out, nil
}

func (f *fakeDiscord) DeleteMessage(channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedMessages[channelID] = append(f.deletedMessages[channelID], messageID)
	return nil
}

func (f *fakeDiscord) SendMessage(channelID, content string, suppressMentions bool) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := &discordgo.Message{ID: f.genID(), ChannelID: channelID, Content: content}
	f.sent[channelID] = append(f.sent[channelID], msg)
	return msg, nil
}

func (f *fakeDiscord) Channel(channelID string) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("unknown channel %s", channelID)
	}
	return ch, nil
}

func (f *fakeDiscord) GuildForumChannels(guildID string) ([]*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forums, nil
}

func (f *fakeDiscord) DisplayName(guildID string, user *discordgo.User) string {
	return user.Username
}

func (f *fakeDiscord) CreateThread(parentID, name string) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateThread {
		return nil, fmt.Errorf("thread creation rejected")
	}
	thread := &discordgo.Channel{
		ID:       "thread-" + f.genID(),
		Name:     name,
		ParentID: parentID,
		Type:     discordgo.ChannelTypeGuildPublicThread,
	}
	f.channels[thread.ID] = thread
	return thread, nil
}

func (f *fakeDiscord) CreateForumPost(forumID, name, initialContent string) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post := &discordgo.Channel{
		ID:       "post-" + f.genID(),
		Name:     name,
		ParentID: forumID,
		Type:     discordgo.ChannelTypeGuildPublicThread,
	}
	f.channels[post.ID] = post
	f.sent[post.ID] = append(f.sent[post.ID], &discordgo.Message{ID: f.genID(), ChannelID: post.ID, Content: initialContent})
	return post, nil
}

func (f *fakeDiscord) DeleteChannel(channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeleteChannel {
		return fmt.Errorf("cannot delete channel")
	}
	f.deletedChannels = append(f.deletedChannels, channelID)
	delete(f.sent, channelID)
	return nil
}

func (f *fakeDiscord) CreateWebhook(channelID, name string) (*discordgo.Webhook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	webhook := &discordgo.Webhook{ID: "webhook-" + f.genID(), ChannelID: channelID, Name: name, Token: "token"}
	f.webhooks[webhook.ID] = webhook
	return webhook, nil
}

func (f *fakeDiscord) ExecuteWebhook(webhook *discordgo.Webhook, threadID string, params *discordgo.WebhookParams) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.executeCount++
	if f.failExecuteAt > 0 && f.executeCount == f.failExecuteAt {
		return nil, fmt.Errorf("webhook rejected message")
	}

	target := webhook.ChannelID
	if threadID != "" {
		target = threadID
	}

	msg := &discordgo.Message{
		ID:        f.genID(),
		ChannelID: target,
		Content:   params.Content,
		Author:    &discordgo.User{Username: params.Username},
	}
	f.sent[target] = append(f.sent[target], msg)
	return msg, nil
}

func (f *fakeDiscord) EditWebhookMessage(webhook *discordgo.Webhook, messageID, threadID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEditWebhook {
		return fmt.Errorf("webhook gone")
	}
	f.editedWebhookMessages[messageID] = content
	return nil
}

func (f *fakeDiscord) DeleteWebhook(webhookID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedWebhooks = append(f.deletedWebhooks, webhookID)
	delete(f.webhooks, webhookID)
	return nil
}

func (f *fakeDiscord) DownloadAttachment(url string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("attachment-bytes")), nil
}

func (f *fakeDiscord) CreateDMChannel(userID string) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateDM {
		return nil, fmt.Errorf("cannot DM user")
	}
	if ch, ok := f.dmChannels[userID]; ok {
		return ch, nil
	}
	ch := &discordgo.Channel{ID: "dm-" + userID, Type: discordgo.ChannelTypeDM}
	f.dmChannels[userID] = ch
	return ch, nil
}

func (f *fakeDiscord) RemoveReaction(channelID, messageID, emojiName, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removedReactions = append(f.removedReactions, messageID+":"+emojiName)
	return nil
}

func (f *fakeDiscord) RespondComponents(inter *discordgo.Interaction, components []discordgo.MessageComponent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, components)
	return nil
}

func (f *fakeDiscord) InteractionMessage(inter *discordgo.Interaction) (*discordgo.Message, error) {
	return f.dialogMessage, nil
}

func (f *fakeDiscord) DeferUpdate(inter *discordgo.Interaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deferrals++
	return nil
}

func (f *fakeDiscord) UpdateComponents(inter *discordgo.Interaction, components []discordgo.MessageComponent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, components)
	return nil
}

func (f *fakeDiscord) OpenModal(inter *discordgo.Interaction, data *discordgo.InteractionResponseData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modals = append(f.modals, data)
	return nil
}

func (f *fakeDiscord) DeleteResponse(inter *discordgo.Interaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedResponse = true
	return nil
}

func (f *fakeDiscord) FollowUp(inter *discordgo.Interaction, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followups = append(f.followups, content)
	return nil
}

func (f *fakeDiscord) sentIn(channelID string) []*discordgo.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*discordgo.Message(nil), f.sent[channelID]...)
}

func (f *fakeDiscord) lastFollowup() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.followups) == 0 {
		return ""
	}
	return f.followups[len(f.followups)-1]
}

// fakeStore records bookkeeping calls in memory.
type fakeStore struct {
	mu       sync.Mutex
	moves    []string
	webhooks map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{webhooks: make(map[string]bool)}
}

func (s *fakeStore) RecordMove(guildID, sourceID, destinationID, initiatorID string, messageCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moves = append(s.moves, fmt.Sprintf("%s:%s->%s by %s (%d)", guildID, sourceID, destinationID, initiatorID, messageCount))
	return nil
}

func (s *fakeStore) RecordWebhook(webhookID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.webhooks[webhookID] = true
	return nil
}

func (s *fakeStore) ClearWebhook(webhookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.webhooks, webhookID)
	return nil
}

func testLog() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

// testMessage builds a source message with a snowflake-shaped ID derived
// from ts, so ID-based timestamp fallbacks behave like production data.
func testMessage(ts time.Time, author string, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        snowflake(ts),
		ChannelID: "source",
		Author:    &discordgo.User{ID: author, Username: "user-" + author},
		Content:   content,
		Timestamp: ts,
	}
}

// snowflake encodes a timestamp the way Discord message IDs do.
func snowflake(ts time.Time) string {
	const discordEpoch = 1420070400000
	ms := ts.UnixMilli() - discordEpoch
	return strconv.FormatUint(uint64(ms)<<22, 10)
}
