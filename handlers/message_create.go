package handlers

import (
	"rustbot/bot"

	"github.com/bwmarrin/discordgo"
)

// MessageCreate forwards direct messages to any edit prompt waiting for a
// reply in that DM channel.
func MessageCreate(b *bot.Bot) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		// Ignore all messages created by the bot itself.
		if m.Author.ID == s.State.User.ID {
			return
		}

		// Edit prompts live in DM channels, which have no guild ID.
		if m.GuildID != "" {
			return
		}

		b.Router.DispatchDM(m.Message)
	}
}
