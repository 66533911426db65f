package moving

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moveFixture(t *testing.T) (*fakeDiscord, *fakeStore, *Service, *discordgo.Interaction, *discordgo.Message) {
	t.Helper()

	fake := newFakeDiscord()
	store := newFakeStore()

	service := NewService(fake, NewLockRegistry(), NewRouter(), store, testLog())
	service.DialogTimeout = 5 * time.Second
	service.ListenTimeout = 200 * time.Millisecond

	inter := &discordgo.Interaction{
		GuildID:   "guild",
		ChannelID: "source",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "mover"}},
	}

	base := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	start := testMessage(base, "alice", "first message")
	fake.history["source"] = []*discordgo.Message{
		testMessage(base.Add(1*time.Minute), "bob", "second message"),
		testMessage(base.Add(2*time.Minute), "alice", "third message"),
		testMessage(base.Add(3*time.Minute), "bob", "fourth message"),
		testMessage(base.Add(4*time.Minute), "alice", "fifth message"),
	}

	return fake, store, service, inter, start
}

func waitForDialog(t *testing.T, router *Router, messageID string) {
	t.Helper()
	require.Eventually(t, func() bool {
		router.mu.RLock()
		defer router.mu.RUnlock()
		_, ok := router.dialogs[messageID]
		return ok
	}, time.Second, 5*time.Millisecond)
}

func componentEvent(dialogMsgID, customID string, values ...string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionMessageComponent,
		Message: &discordgo.Message{ID: dialogMsgID},
		Data: discordgo.MessageComponentInteractionData{
			CustomID: customID,
			Values:   values,
		},
	}}
}

func modalEvent(dialogMsgID, baseID, text string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionModalSubmit,
		Data: discordgo.ModalSubmitInteractionData{
			CustomID: baseID + ":" + dialogMsgID,
			Components: []discordgo.MessageComponent{
				&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					&discordgo.TextInput{CustomID: baseID, Value: text},
				}},
			},
		},
	}}
}

func TestMoveToNewThread(t *testing.T) {
	fake, store, service, inter, start := moveFixture(t)

	errCh := make(chan error, 1)
	go func() {
		errCh <- service.Move(context.Background(), inter, start)
	}()

	waitForDialog(t, service.Router, "dialog-msg")

	service.Router.DispatchInteraction(componentEvent("dialog-msg", ComponentDestination, "New Thread"))
	service.Router.DispatchInteraction(componentEvent("dialog-msg", ComponentChannel, "parent"))
	service.Router.DispatchInteraction(modalEvent("dialog-msg", ModalThreadName, "Test"))
	service.Router.DispatchInteraction(componentEvent("dialog-msg", ComponentExecute))

	require.NoError(t, waitErr(t, errCh))

	// The thread was created under the chosen parent with the chosen name.
	var thread *discordgo.Channel
	fake.mu.Lock()
	for _, ch := range fake.channels {
		if ch.Name == "Test" {
			thread = ch
		}
	}
	fake.mu.Unlock()
	require.NotNil(t, thread, "a thread named Test must exist")
	assert.Equal(t, "parent", thread.ParentID)

	// All five messages arrive in original order with impersonated authors,
	// followed by the notice.
	posted := fake.sentIn(thread.ID)
	require.Len(t, posted, 6)
	expected := []string{"first message", "second message", "third message", "fourth message", "fifth message"}
	for i, content := range expected {
		assert.Equal(t, content, posted[i].Content)
	}
	assert.Contains(t, posted[5].Content, "<@mover> moved the conversation from <#source>")

	// The originals are gone from the source.
	fake.mu.Lock()
	deleted := append([]string(nil), fake.deletedMessages["source"]...)
	fake.mu.Unlock()
	assert.Len(t, deleted, 5)
	assert.Contains(t, deleted, start.ID)

	// Audit log written, and exactly one terminal reply to the invoker.
	store.mu.Lock()
	require.Len(t, store.moves, 1)
	assert.Contains(t, store.moves[0], "(5)")
	store.mu.Unlock()
	assert.Contains(t, fake.lastFollowup(), "Moved the conversation")

	// The correction listener eventually tears the webhook down.
	require.Eventually(t, func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return len(fake.deletedWebhooks) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Both channel locks are free again.
	assert.False(t, service.Locks.Locked("source"))
	assert.False(t, service.Locks.Locked(thread.ID))
}

func TestMoveRejectsSourceAsDestination(t *testing.T) {
	fake, _, service, inter, start := moveFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- service.Move(ctx, inter, start)
	}()

	waitForDialog(t, service.Router, "dialog-msg")

	// Picking the source channel is ignored, so submitting is rejected: the
	// dialog is re-rendered and stays open, with no reply sent.
	service.Router.DispatchInteraction(componentEvent("dialog-msg", ComponentChannel, "source"))
	service.Router.DispatchInteraction(componentEvent("dialog-msg", ComponentExecute))

	require.Eventually(t, func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return len(fake.updates) == 2
	}, time.Second, 5*time.Millisecond)

	// Nothing was created, deleted, or replied to while the dialog is open.
	fake.mu.Lock()
	assert.Empty(t, fake.followups)
	assert.Empty(t, fake.webhooks)
	assert.Empty(t, fake.deletedMessages)
	assert.Empty(t, fake.channels)
	fake.mu.Unlock()

	// Abandoning the dialog releases the source lock and produces the one
	// terminal reply.
	cancel()
	require.NoError(t, waitErr(t, errCh))
	assert.True(t, fake.deletedResponse, "dialog deleted on abandonment")
	assert.Equal(t, "Move cancelled.", fake.lastFollowup())
	assert.False(t, service.Locks.Locked("source"))
}

func TestMoveRelayFailureRollsBackAndKeepsOriginals(t *testing.T) {
	fake, store, service, inter, start := moveFixture(t)
	fake.failExecuteAt = 3

	errCh := make(chan error, 1)
	go func() {
		errCh <- service.Move(context.Background(), inter, start)
	}()

	waitForDialog(t, service.Router, "dialog-msg")

	service.Router.DispatchInteraction(componentEvent("dialog-msg", ComponentDestination, "New Thread"))
	service.Router.DispatchInteraction(componentEvent("dialog-msg", ComponentChannel, "parent"))
	service.Router.DispatchInteraction(componentEvent("dialog-msg", ComponentExecute))

	require.Error(t, waitErr(t, errCh))

	fake.mu.Lock()
	deletedChannels := append([]string(nil), fake.deletedChannels...)
	deletedWebhooks := append([]string(nil), fake.deletedWebhooks...)
	sourceDeletions := fake.deletedMessages["source"]
	fake.mu.Unlock()

	require.Len(t, deletedChannels, 1, "the created thread is rolled back")
	assert.Empty(t, fake.sentIn(deletedChannels[0]), "no relayed messages remain in the destination")
	assert.Len(t, deletedWebhooks, 1, "the webhook is rolled back")
	assert.Empty(t, sourceDeletions, "original messages are never deleted on relay failure")

	store.mu.Lock()
	assert.Empty(t, store.moves, "failed moves are not recorded")
	assert.Empty(t, store.webhooks, "webhook record cleared after rollback")
	store.mu.Unlock()

	assert.Contains(t, fake.lastFollowup(), "Failed to move messages")

	assert.False(t, service.Locks.Locked("source"))
}

func waitErr(t *testing.T, errCh chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("move operation did not finish in time")
		return nil
	}
}
