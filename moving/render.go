package moving

import (
	"github.com/bwmarrin/discordgo"
)

// Render maps the dialog state to the component rows of the dialog message.
// Only controls applicable to the current destination kind are shown.
func (d *Dialog) Render() []discordgo.MessageComponent {
	rows := []discordgo.MessageComponent{
		d.userSelectRow(),
		d.destinationSelectRow(),
	}

	switch d.Kind {
	case DestinationChannel, DestinationNewThread:
		rows = append(rows, d.channelSelectRow())
	case DestinationExistingThread:
		rows = append(rows, d.threadSelectRow())
	case DestinationNewForumPost:
		rows = append(rows, d.forumSelectRow())
	}

	return append(rows, d.buttonRow())
}

func (d *Dialog) userSelectRow() discordgo.MessageComponent {
	defaults := make([]discordgo.SelectMenuDefaultValue, len(d.InvolvedUsers))
	for i, id := range d.InvolvedUsers {
		defaults[i] = discordgo.SelectMenuDefaultValue{
			ID:   id,
			Type: discordgo.SelectMenuDefaultValueUser,
		}
	}

	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			MenuType:      discordgo.UserSelectMenu,
			CustomID:      ComponentSelectUsers,
			Placeholder:   "Which users should have their messages moved?",
			MaxValues:     len(d.InvolvedUsers),
			DefaultValues: defaults,
		},
	}}
}

func (d *Dialog) destinationSelectRow() discordgo.MessageComponent {
	kinds := DestinationKinds()
	options := make([]discordgo.SelectMenuOption, len(kinds))
	for i, kind := range kinds {
		options[i] = discordgo.SelectMenuOption{
			Label:   kind.String(),
			Value:   kind.String(),
			Default: kind == d.Kind,
		}
	}

	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			MenuType:    discordgo.StringSelectMenu,
			CustomID:    ComponentDestination,
			Placeholder: "Where should messages be moved to?",
			MinValues:   intPtr(1),
			MaxValues:   1,
			Options:     options,
		},
	}}
}

func (d *Dialog) forumSelectRow() discordgo.MessageComponent {
	return d.channelPickerRow(
		ComponentForum,
		"Which forum should the post be created in?",
		discordgo.ChannelTypeGuildForum,
		d.SelectedForum,
	)
}

func (d *Dialog) threadSelectRow() discordgo.MessageComponent {
	return d.channelPickerRow(
		ComponentThread,
		"Which thread should messages be moved to?",
		discordgo.ChannelTypeGuildPublicThread,
		d.SelectedThread,
	)
}

func (d *Dialog) channelSelectRow() discordgo.MessageComponent {
	return d.channelPickerRow(
		ComponentChannel,
		"Which channel should messages be moved to?",
		discordgo.ChannelTypeGuildText,
		d.SelectedChannel,
	)
}

func (d *Dialog) channelPickerRow(customID, placeholder string, channelType discordgo.ChannelType, selected string) discordgo.MessageComponent {
	var defaults []discordgo.SelectMenuDefaultValue
	if selected != "" {
		defaults = []discordgo.SelectMenuDefaultValue{{
			ID:   selected,
			Type: discordgo.SelectMenuDefaultValueChannel,
		}}
	}

	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			MenuType:      discordgo.ChannelSelectMenu,
			CustomID:      customID,
			Placeholder:   placeholder,
			MinValues:     intPtr(1),
			MaxValues:     1,
			ChannelTypes:  []discordgo.ChannelType{channelType},
			DefaultValues: defaults,
		},
	}}
}

func (d *Dialog) buttonRow() discordgo.MessageComponent {
	buttons := []discordgo.MessageComponent{
		discordgo.Button{
			CustomID: ComponentExecute,
			Style:    discordgo.DangerButton,
			Label:    "Move",
		},
		discordgo.Button{
			CustomID: ComponentSetLastMessage,
			Style:    discordgo.SecondaryButton,
			Label:    "Set last message",
		},
	}

	switch d.Kind {
	case DestinationNewThread:
		buttons = append(buttons, discordgo.Button{
			CustomID: ComponentChangeName,
			Style:    discordgo.SecondaryButton,
			Label:    "Change thread name",
		})
	case DestinationNewForumPost:
		buttons = append(buttons, discordgo.Button{
			CustomID: ComponentChangeName,
			Style:    discordgo.SecondaryButton,
			Label:    "Change forum post name",
		})
	}

	return discordgo.ActionsRow{Components: buttons}
}

// NameModal builds the title modal, pre-filled with the current title. The
// dialog message ID rides along in the custom ID so modal submissions can be
// routed back to this dialog.
func (d *Dialog) NameModal(dialogMessageID string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: ModalThreadName + ":" + dialogMessageID,
		Title:    "Thread settings",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    ModalThreadName,
					Label:       "Name",
					Style:       discordgo.TextInputShort,
					Placeholder: "Input thread name here",
					Value:       d.Title,
					Required:    true,
					MinLength:   1,
					MaxLength:   100,
				},
			}},
		},
	}
}

// StopModal builds the stop-message modal, pre-filled with the current stop
// message ID if one is set.
func (d *Dialog) StopModal(dialogMessageID string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: ModalLastMessage + ":" + dialogMessageID,
		Title:    "Set last message",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    ModalLastMessage,
					Label:       "Last message ID",
					Style:       discordgo.TextInputShort,
					Placeholder: "Input ID here",
					Value:       d.StopMessageID,
					MinLength:   18,
					MaxLength:   20,
				},
			}},
		},
	}
}

func intPtr(v int) *int { return &v }
