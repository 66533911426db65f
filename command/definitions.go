package command

import "github.com/bwmarrin/discordgo"

// MoveMessagesName is the label of the context-menu entry that starts a
// relocation.
const MoveMessagesName = "Move Messages"

// MoveMessagesCommand defines the "Move Messages" message context-menu
// command. It has no options: the target message is the starting point of
// the conversation to relocate.
type MoveMessagesCommand struct{}

// Definition returns the application command definition.
func (c *MoveMessagesCommand) Definition() *discordgo.ApplicationCommand {
	manageMessages := int64(discordgo.PermissionManageMessages)
	dmPermission := false

	return &discordgo.ApplicationCommand{
		Name:                     MoveMessagesName,
		Type:                     discordgo.MessageApplicationCommand,
		DefaultMemberPermissions: &manageMessages,
		DMPermission:             &dmPermission,
	}
}

// MovesCommand defines the /moves command listing recent relocations from
// the audit log.
type MovesCommand struct{}

// Definition returns the application command definition.
func (c *MovesCommand) Definition() *discordgo.ApplicationCommand {
	manageMessages := int64(discordgo.PermissionManageMessages)

	return &discordgo.ApplicationCommand{
		Name:                     "moves",
		Description:              "List the most recent message relocations",
		DefaultMemberPermissions: &manageMessages,
	}
}

// PingCommand defines the structure for the /ping command.
type PingCommand struct{}

// Definition returns the application command definition.
func (c *PingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Responds with Pong!",
	}
}
