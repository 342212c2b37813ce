package utils

import (
	"github.com/bwmarrin/discordgo"
)

// Custom IDs for the duel's button components.
const (
	HitButtonID   = "duel_hit"
	StandButtonID = "duel_stand"
)

// CreateActionRow wraps buttons in an action row.
func CreateActionRow(buttons ...discordgo.MessageComponent) discordgo.MessageComponent {
	return discordgo.ActionsRow{Components: buttons}
}

// CreateButton creates a button component.
func CreateButton(customID, label string, style discordgo.ButtonStyle, disabled bool) discordgo.MessageComponent {
	return discordgo.Button{
		CustomID: customID,
		Label:    label,
		Style:    style,
		Disabled: disabled,
	}
}

// HitStandRow returns the Hit/Stand row shown while a hand is live.
func HitStandRow(disabled bool) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		CreateActionRow(
			CreateButton(HitButtonID, "Hit 🃏", discordgo.PrimaryButton, disabled),
			CreateButton(StandButtonID, "Stand ✋", discordgo.SecondaryButton, disabled),
		),
	}
}

// SendInteractionResponse sends the initial response to an interaction.
func SendInteractionResponse(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
	if components != nil {
		data.Components = components
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

// UpdateComponentInteraction edits the message a button lives on.
func UpdateComponentInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
	if components != nil {
		data.Components = components
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	})
}
