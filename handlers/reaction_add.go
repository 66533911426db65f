package handlers

import (
	"rustbot/bot"

	"github.com/bwmarrin/discordgo"
)

// ReactionAdd forwards reaction events to whichever correction listener is
// watching the channel, if any.
func ReactionAdd(b *bot.Bot) func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	return func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if r.UserID == s.State.User.ID {
			return
		}
		b.Router.DispatchReaction(r)
	}
}
