package handlers

import (
	"rustbot/bot"

	"github.com/bwmarrin/discordgo"
)

// InteractionCreate handles application command, component and modal
// interactions. Component and modal events belonging to an active move
// dialog are forwarded to the operation driving it.
func InteractionCreate(b *bot.Bot) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			CommandDispatcher(b, s, i)
		case discordgo.InteractionMessageComponent, discordgo.InteractionModalSubmit:
			b.Router.DispatchInteraction(i)
		}
	}
}
