package moving

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// dialogTimeout mirrors the lifetime of the interaction token; once it
// expires the dialog can no longer be updated and the move is abandoned.
const dialogTimeout = 15 * time.Minute

// ErrAbandoned means the options dialog was closed without a submission.
var ErrAbandoned = errors.New("move dialog abandoned")

// Service wires the relocation engine together. One Move call drives a full
// relocation; the correction listener it spawns outlives the call.
type Service struct {
	Discord Discord
	Locks   *LockRegistry
	Router  *Router
	Store   Store
	Log     *logrus.Entry

	// DialogTimeout overrides the default dialog lifetime (tests).
	DialogTimeout time.Duration
	// ListenTimeout overrides the correction window (tests).
	ListenTimeout time.Duration
}

// NewService creates a Service around a live registry and router.
func NewService(discord Discord, locks *LockRegistry, router *Router, store Store, log *logrus.Entry) *Service {
	return &Service{
		Discord: discord,
		Locks:   locks,
		Router:  router,
		Store:   store,
		Log:     log,
	}
}

// Move runs one relocation triggered on startMsg. Every terminal state
// produces exactly one user-visible reply through the interaction.
func (s *Service) Move(ctx context.Context, inter *discordgo.Interaction, startMsg *discordgo.Message) error {
	sourceLock, ok := s.Locks.TryLock(startMsg.ChannelID)
	if !ok {
		s.reply(inter, "This channel is already used by another move operation, try again later.")
		return ErrChannelBusy
	}
	defer sourceLock.Release()

	selector := &Selector{Discord: s.Discord}

	window, err := selector.FetchWindow(startMsg)
	if err != nil {
		s.reply(inter, "Failed to fetch messages, try again later.")
		return err
	}
	if len(window) == 0 {
		s.reply(inter, "No messages found.")
		return nil
	}

	participants := participantsByMessageCount(window)

	dialog := NewDialog(startMsg.ChannelID, startMsg.ID, participants, s.singleGuildForum(inter.GuildID))

	opts, err := s.runDialog(ctx, inter, dialog)
	if err != nil {
		if errors.Is(err, ErrAbandoned) {
			s.reply(inter, "Move cancelled.")
			return nil
		}
		return err
	}

	resolver := &Resolver{Discord: s.Discord}
	dest, err := resolver.Resolve(opts, startMsg.ChannelID)
	if err != nil {
		s.reply(inter, fmt.Sprintf("Could not resolve the destination: %v", err))
		return err
	}

	lockTimeout := lockWaitTimeout
	destLock, err := s.Locks.WaitForLock(ctx, dest.TargetID(), lockTimeout)
	if err != nil {
		s.reply(inter, "The destination channel is busy with another move operation, try again later.")
		return err
	}
	defer destLock.Release()

	webhook, err := s.Discord.CreateWebhook(dest.ParentID, "move conversation "+startMsg.ID)
	if err != nil {
		s.reply(inter, "Failed to create the relay webhook.")
		return fmt.Errorf("creating webhook: %w", err)
	}
	if s.Store != nil {
		if err := s.Store.RecordWebhook(webhook.ID, dest.ParentID); err != nil {
			s.Log.WithError(err).Warn("failed to record webhook for cleanup")
		}
	}

	selected, err := selector.Select(window, startMsg, SelectionFilters{
		Participants:  opts.Participants,
		StopMessageID: opts.StopMessageID,
	})
	if err != nil {
		s.reply(inter, "Failed to fetch messages, try again later.")
		return err
	}

	relayer := &Relayer{Discord: s.Discord, Log: s.Log}

	relayed, err := relayer.Relay(inter.GuildID, dest, webhook, selected)
	if err != nil {
		if s.Store != nil {
			if clearErr := s.Store.ClearWebhook(webhook.ID); clearErr != nil {
				s.Log.WithError(clearErr).Warn("failed to clear webhook record")
			}
		}
		s.reply(inter, fmt.Sprintf("Failed to move messages: %v", err))
		return err
	}

	relayer.PostNotice(dest, interactionUserID(inter), startMsg.ChannelID, opts.Participants)

	if s.Store != nil {
		if err := s.Store.RecordMove(inter.GuildID, startMsg.ChannelID, dest.TargetID(), interactionUserID(inter), len(selected)); err != nil {
			s.Log.WithError(err).Warn("failed to record move in audit log")
		}
	}

	// The destination only needs protecting through relay confirmation; the
	// multi-hour correction window must not serialize other moves.
	destLock.Release()

	deleteFailed := false
	for _, msg := range selected {
		if err := s.Discord.DeleteMessage(startMsg.ChannelID, msg.ID); err != nil {
			s.Log.WithError(err).WithField("message", msg.ID).Warn("failed to delete original message")
			deleteFailed = true
		}
	}

	listener := &CorrectionListener{
		Discord: s.Discord,
		Router:  s.Router,
		Store:   s.Store,
		Log:     s.Log,
		Timeout: s.ListenTimeout,
	}
	go listener.Listen(dest.TargetID(), webhook, dest.ThreadID, relayed)

	if deleteFailed {
		s.reply(inter, fmt.Sprintf("Moved the conversation to <#%s>, but some original messages could not be deleted.", dest.TargetID()))
	} else {
		s.reply(inter, fmt.Sprintf("Moved the conversation from here to <#%s>.", dest.TargetID()))
	}

	return nil
}

// runDialog renders the options dialog as the interaction response and
// drives it with component and modal events until submission or timeout.
func (s *Service) runDialog(ctx context.Context, inter *discordgo.Interaction, dialog *Dialog) (MoveOptions, error) {
	if err := s.Discord.RespondComponents(inter, dialog.Render()); err != nil {
		return MoveOptions{}, fmt.Errorf("sending options dialog: %w", err)
	}

	dialogMsg, err := s.Discord.InteractionMessage(inter)
	if err != nil {
		return MoveOptions{}, fmt.Errorf("fetching dialog message: %w", err)
	}

	events := s.Router.SubscribeDialog(dialogMsg.ID)
	defer s.Router.UnsubscribeDialog(dialogMsg.ID)

	timeout := s.DialogTimeout
	if timeout == 0 {
		timeout = dialogTimeout
	}
	deadline := time.After(timeout)

	for {
		var ic *discordgo.InteractionCreate
		select {
		case <-ctx.Done():
			s.deleteDialog(inter)
			return MoveOptions{}, ErrAbandoned
		case <-deadline:
			s.deleteDialog(inter)
			return MoveOptions{}, ErrAbandoned
		case ev, ok := <-events:
			if !ok {
				s.deleteDialog(inter)
				return MoveOptions{}, ErrAbandoned
			}
			ic = ev
		}

		event, ok := dialogEvent(ic)
		if !ok {
			s.Log.Warn("unknown dialog component event")
			s.ackQuietly(ic)
			continue
		}

		switch dialog.HandleEvent(event) {
		case TransitionRerender:
			if err := s.Discord.UpdateComponents(ic.Interaction, dialog.Render()); err != nil {
				s.Log.WithError(err).Warn("failed to re-render dialog")
			}

		case TransitionOpenNameModal:
			if err := s.Discord.OpenModal(ic.Interaction, dialog.NameModal(dialogMsg.ID)); err != nil {
				s.Log.WithError(err).Warn("failed to open name modal")
			}

		case TransitionOpenStopModal:
			if err := s.Discord.OpenModal(ic.Interaction, dialog.StopModal(dialogMsg.ID)); err != nil {
				s.Log.WithError(err).Warn("failed to open stop-message modal")
			}

		case TransitionRejected:
			// The dialog stays open; re-rendering doubles as the ack.
			if err := s.Discord.UpdateComponents(ic.Interaction, dialog.Render()); err != nil {
				s.Log.WithError(err).Warn("failed to re-render dialog")
			}

		case TransitionSubmit:
			s.ackQuietly(ic)
			s.deleteDialog(inter)
			return dialog.Options()

		default:
			s.ackQuietly(ic)
		}
	}
}

func (s *Service) ackQuietly(ic *discordgo.InteractionCreate) {
	if err := s.Discord.DeferUpdate(ic.Interaction); err != nil {
		s.Log.WithError(err).Warn("failed to acknowledge dialog interaction")
	}
}

func (s *Service) deleteDialog(inter *discordgo.Interaction) {
	if err := s.Discord.DeleteResponse(inter); err != nil {
		s.Log.WithError(err).Warn("failed to delete options dialog")
	}
}

func (s *Service) reply(inter *discordgo.Interaction, content string) {
	if err := s.Discord.FollowUp(inter, content); err != nil {
		s.Log.WithError(err).Warn("failed to reply to move invoker")
	}
}

// singleGuildForum returns the guild's forum channel ID when there is
// exactly one, so the dialog can pre-select it.
func (s *Service) singleGuildForum(guildID string) string {
	if guildID == "" {
		return ""
	}

	forums, err := s.Discord.GuildForumChannels(guildID)
	if err != nil {
		s.Log.WithError(err).Warn("failed to list forum channels")
		return ""
	}
	if len(forums) == 1 {
		return forums[0].ID
	}
	return ""
}

// participantsByMessageCount returns the distinct authors of the window
// ordered by ascending message count, so low-traffic participants come
// first in the default selection.
func participantsByMessageCount(window []*discordgo.Message) []string {
	counts := make(map[string]int)
	var order []string
	for _, m := range window {
		if m.Author == nil {
			continue
		}
		if _, seen := counts[m.Author.ID]; !seen {
			order = append(order, m.Author.ID)
		}
		counts[m.Author.ID]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] < counts[order[j]]
		}
		return order[i] < order[j]
	})

	return order
}

// dialogEvent converts a routed interaction into a transport-independent
// dialog event.
func dialogEvent(ic *discordgo.InteractionCreate) (DialogEvent, bool) {
	switch ic.Type {
	case discordgo.InteractionMessageComponent:
		data := ic.MessageComponentData()
		return DialogEvent{Component: data.CustomID, Values: data.Values}, true

	case discordgo.InteractionModalSubmit:
		data := ic.ModalSubmitData()
		base, _ := splitModalID(data.CustomID)
		return DialogEvent{Component: base, Text: firstTextInput(data.Components)}, true
	}

	return DialogEvent{}, false
}

func firstTextInput(components []discordgo.MessageComponent) string {
	for _, component := range components {
		switch c := component.(type) {
		case *discordgo.ActionsRow:
			if v := firstTextInput(c.Components); v != "" {
				return v
			}
		case discordgo.ActionsRow:
			if v := firstTextInput(c.Components); v != "" {
				return v
			}
		case *discordgo.TextInput:
			return c.Value
		case discordgo.TextInput:
			return c.Value
		}
	}
	return ""
}

func interactionUserID(inter *discordgo.Interaction) string {
	if inter.Member != nil && inter.Member.User != nil {
		return inter.Member.User.ID
	}
	if inter.User != nil {
		return inter.User.ID
	}
	return ""
}
