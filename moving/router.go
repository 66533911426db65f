package moving

import (
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Router fans gateway events out to the move operation that is waiting for
// them. Dialog interactions are keyed by the dialog message ID, reaction
// streams by destination channel ID and DM streams by the DM channel ID.
//
// Dispatch never blocks the gateway goroutine: events for a full or missing
// subscriber are dropped.
type Router struct {
	mu        sync.RWMutex
	dialogs   map[string]chan *discordgo.InteractionCreate
	reactions map[string]chan *discordgo.MessageReactionAdd
	dms       map[string]chan *discordgo.Message
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		dialogs:   make(map[string]chan *discordgo.InteractionCreate),
		reactions: make(map[string]chan *discordgo.MessageReactionAdd),
		dms:       make(map[string]chan *discordgo.Message),
	}
}

// SubscribeDialog registers interest in component and modal interactions on
// the given dialog message.
func (r *Router) SubscribeDialog(messageID string) <-chan *discordgo.InteractionCreate {
	ch := make(chan *discordgo.InteractionCreate, 8)
	r.mu.Lock()
	r.dialogs[messageID] = ch
	r.mu.Unlock()
	return ch
}

// UnsubscribeDialog drops the dialog subscription.
func (r *Router) UnsubscribeDialog(messageID string) {
	r.mu.Lock()
	delete(r.dialogs, messageID)
	r.mu.Unlock()
}

// SubscribeReactions registers interest in reaction-add events on a channel.
func (r *Router) SubscribeReactions(channelID string) <-chan *discordgo.MessageReactionAdd {
	ch := make(chan *discordgo.MessageReactionAdd, 16)
	r.mu.Lock()
	r.reactions[channelID] = ch
	r.mu.Unlock()
	return ch
}

// UnsubscribeReactions drops the reaction subscription.
func (r *Router) UnsubscribeReactions(channelID string) {
	r.mu.Lock()
	delete(r.reactions, channelID)
	r.mu.Unlock()
}

// SubscribeDM registers interest in messages posted to a DM channel.
func (r *Router) SubscribeDM(channelID string) <-chan *discordgo.Message {
	ch := make(chan *discordgo.Message, 4)
	r.mu.Lock()
	r.dms[channelID] = ch
	r.mu.Unlock()
	return ch
}

// UnsubscribeDM drops the DM subscription.
func (r *Router) UnsubscribeDM(channelID string) {
	r.mu.Lock()
	delete(r.dms, channelID)
	r.mu.Unlock()
}

// DispatchInteraction routes a component or modal-submit interaction to the
// dialog waiting on it. Returns false if no dialog claimed the event.
func (r *Router) DispatchInteraction(ic *discordgo.InteractionCreate) bool {
	var key string
	switch ic.Type {
	case discordgo.InteractionMessageComponent:
		if ic.Message == nil {
			return false
		}
		key = ic.Message.ID
	case discordgo.InteractionModalSubmit:
		// Modal custom IDs carry the dialog message ID after a colon.
		_, key = splitModalID(ic.ModalSubmitData().CustomID)
	default:
		return false
	}

	r.mu.RLock()
	ch, ok := r.dialogs[key]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	select {
	case ch <- ic:
		return true
	default:
		return false
	}
}

// DispatchReaction routes a reaction-add event to the listener watching the
// channel, if any.
func (r *Router) DispatchReaction(ra *discordgo.MessageReactionAdd) {
	r.mu.RLock()
	ch, ok := r.reactions[ra.ChannelID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	select {
	case ch <- ra:
	default:
	}
}

// DispatchDM routes a direct message to the edit prompt waiting on it, if any.
func (r *Router) DispatchDM(m *discordgo.Message) {
	r.mu.RLock()
	ch, ok := r.dms[m.ChannelID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	select {
	case ch <- m:
	default:
	}
}

// splitModalID splits a "customID:dialogMessageID" modal identifier.
func splitModalID(customID string) (base, key string) {
	if idx := strings.LastIndexByte(customID, ':'); idx >= 0 {
		return customID[:idx], customID[idx+1:]
	}
	return customID, ""
}
