package handlers

import (
	"context"
	"fmt"
	"strings"

	"rustbot/bot"
	"rustbot/command"
	"rustbot/models"
	"rustbot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// CommandDispatcher is the central handler for all application command
// interactions. It performs permission checks and then dispatches the
// interaction to the appropriate handler.
func CommandDispatcher(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	commandPermissions := map[string]string{
		command.MoveMessagesName: "manage_messages",
		"moves":                  "manage_messages",
		"ping":                   "guest",
	}

	auth, err := utils.NewAuth()
	if err != nil {
		logrus.WithError(err).Error("failed to create auth instance")
		return
	}

	commandName := i.ApplicationCommandData().Name
	if requiredLevel, ok := commandPermissions[commandName]; ok {
		if !auth.CheckPermission(s, i, requiredLevel) {
			respondEphemeral(s, i, "🚫 You do not have permission to use this command.")
			return
		}
	}

	switch commandName {
	case command.MoveMessagesName:
		HandleMoveMessages(b, s, i)
	case "moves":
		HandleMoves(b, s, i)
	case "ping":
		HandlePing(s, i)
	default:
		respondEphemeral(s, i, "🚫 Unknown command.")
	}
}

// HandleMoveMessages starts a relocation for the message the context menu
// was invoked on.
func HandleMoveMessages(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		respondEphemeral(s, i, "This command can only be used in a server.")
		return
	}

	startMsg := resolvedTargetMessage(i)
	if startMsg == nil {
		respondEphemeral(s, i, "Could not resolve the target message.")
		return
	}

	go func() {
		if err := b.Move.Move(context.Background(), i.Interaction, startMsg); err != nil {
			logrus.WithError(err).WithField("channel", startMsg.ChannelID).
				Warn("move operation failed")
		}
	}()
}

// resolvedTargetMessage extracts the message a context-menu command was
// invoked on, tolerating malformed payloads without a resolved set.
func resolvedTargetMessage(i *discordgo.InteractionCreate) *discordgo.Message {
	data := i.ApplicationCommandData()
	if data.Resolved == nil {
		return nil
	}

	msg := data.Resolved.Messages[data.TargetID]
	if msg == nil {
		return nil
	}
	// Resolved messages carry no channel ID, fill it in from the interaction.
	if msg.ChannelID == "" {
		msg.ChannelID = i.ChannelID
	}
	return msg
}

// HandleMoves replies with the latest entries from the move audit log.
func HandleMoves(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	records, err := b.Store.RecentMoves(10)
	if err != nil {
		logrus.WithError(err).Error("failed to read move audit log")
		respondEphemeral(s, i, "Could not read the move log.")
		return
	}
	respondEphemeral(s, i, formatMoveRecords(records))
}

// formatMoveRecords renders audit entries one line per move, newest first.
func formatMoveRecords(records []models.MoveRecord) string {
	if len(records) == 0 {
		return "No moves recorded yet."
	}

	var sb strings.Builder
	sb.WriteString("Recent moves:\n")
	for _, r := range records {
		fmt.Fprintf(&sb, "<t:%d:R> <@%s> moved %d messages from <#%s> to <#%s>\n",
			r.Timestamp, r.InitiatorID, r.MessageCount, r.SourceChannelID, r.DestinationID)
	}
	return sb.String()
}

// HandlePing handles the logic for the /ping command.
func HandlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Pong!",
		},
	})
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
