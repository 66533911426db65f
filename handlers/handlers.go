package handlers

import (
	"rustbot/bot"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// Register all handlers to the bot.
func Register(b *bot.Bot) {
	b.Session.AddHandler(InteractionCreate(b))
	b.Session.AddHandler(ReactionAdd(b))
	b.Session.AddHandler(MessageCreate(b))

	// Add a ready handler to log when the bot is connected.
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logrus.Infof("Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator)
	})
}
