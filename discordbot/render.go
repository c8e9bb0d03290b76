package discordbot

import (
	"encoding/json"
	"fmt"
	"time"

	"coinmod/common"
	"coinmod/modules/moderation"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/utils/json/option"
)

// Component and modal ids. The modal input is always "card".
const (
	buttonPanelBail    = "panel_bail"
	buttonPanelInfo    = "panel_info"
	buttonPanelInvoice = "panel_payinvoice"
	buttonUnban        = "unban_button"

	modalBail    = "bail_pay"
	modalInvoice = "invoice_pay"
	modalUnban   = "unban_pay"

	inputCard = "card"
)

// Embed field values are capped by the platform.
const maxFieldValue = 1024

func noticeEmbed(n moderation.Notice) discord.Embed {
	embed := discord.Embed{
		Title:       n.Title,
		Description: n.Description,
		Color:       discord.Color(n.Color),
	}
	if !n.Timestamp.IsZero() {
		embed.Timestamp = discord.NewTimestamp(n.Timestamp)
	}
	for _, f := range n.Fields {
		value := f.Value
		if value == "" {
			value = "-"
		}
		if r := []rune(value); len(r) > maxFieldValue {
			value = string(r[:maxFieldValue-3]) + "..."
		}
		embed.Fields = append(embed.Fields, discord.EmbedField{Name: f.Name, Value: value, Inline: f.Inline})
	}
	return embed
}

func noticeComponents(a moderation.Action) discord.ContainerComponents {
	switch a {
	case moderation.ActionPayUnban:
		return discord.ContainerComponents{
			&discord.ActionRowComponent{
				&discord.ButtonComponent{
					Label:    "Pay Unban Fine",
					CustomID: buttonUnban,
					Style:    discord.SuccessButtonStyle(),
				},
			},
		}
	}
	return nil
}

func panelMessage() api.SendMessageData {
	return api.SendMessageData{
		Embeds: []discord.Embed{{
			Title:       "🛡️ Moderation Panel",
			Description: "Use the buttons below to interact with your account and fines.",
			Color:       discord.Color(moderation.ColorBlurple),
		}},
		Components: discord.ContainerComponents{
			&discord.ActionRowComponent{
				&discord.ButtonComponent{Label: "Pay Bail (1 ADV)", CustomID: buttonPanelBail, Style: discord.SuccessButtonStyle()},
				&discord.ButtonComponent{Label: "User Info", CustomID: buttonPanelInfo, Style: discord.PrimaryButtonStyle()},
				&discord.ButtonComponent{Label: "Pay Invoices (Fines)", CustomID: buttonPanelInvoice, Style: discord.DangerButtonStyle()},
			},
		},
	}
}

func cardModal(id discord.ComponentID, title string) *api.InteractionResponse {
	return &api.InteractionResponse{
		Type: api.ModalResponse,
		Data: &api.InteractionResponseData{
			CustomID: option.NewNullableString(string(id)),
			Title:    option.NewNullableString(title),
			Components: &discord.ContainerComponents{
				&discord.ActionRowComponent{
					&discord.TextInputComponent{
						CustomID: inputCard,
						Label:    "Your Coin Card ID",
						Style:    discord.TextInputShortStyle,
						Required: true,
					},
				},
			},
		},
	}
}

// modalValue returns the submitted value of the text input with the given id.
func modalValue(components discord.ContainerComponents, id discord.ComponentID) string {
	for _, c := range components {
		row, ok := c.(*discord.ActionRowComponent)
		if !ok {
			continue
		}
		for _, inner := range *row {
			input, ok := inner.(*discord.TextInputComponent)
			if !ok || input.CustomID != id {
				continue
			}
			raw, err := json.Marshal(input)
			if err != nil {
				return ""
			}
			var v struct {
				Value string `json:"value"`
			}
			_ = json.Unmarshal(raw, &v)
			return v.Value
		}
	}
	return ""
}

func standingEmbed(title string, s *moderation.Standing, now time.Time) discord.Embed {
	color := moderation.ColorGreen
	if s.Advertences > 0 {
		color = moderation.ColorRed
	}

	embed := discord.Embed{
		Title: title,
		Color: discord.Color(color),
		Fields: []discord.EmbedField{
			{Name: "Time in Guild", Value: common.FormatDuration(now.Sub(time.UnixMilli(s.JoinedAt))), Inline: true},
			{Name: "Total Messages Logged", Value: fmt.Sprint(s.Messages), Inline: true},
			{Name: "Reputation Score", Value: fmt.Sprint(s.Reputation), Inline: true},
			{Name: "Current Advertences", Value: fmt.Sprintf("%d (%s)", s.Advertences, s.Tier), Inline: true},
			{Name: "Pending Fine (COIN)", Value: s.Pending, Inline: true},
		},
		Footer:    &discord.EmbedFooter{Text: "User ID: " + s.UserID},
		Timestamp: discord.NewTimestamp(now),
	}
	if s.Ban != nil {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:  "Permanent Ban",
			Value: fmt.Sprintf("%s COIN to unban (%s)", s.Ban.UnbanWorth, s.Ban.Reason),
		})
	}
	return embed
}

func contentResponse(content string) *api.InteractionResponseData {
	return &api.InteractionResponseData{
		Content: option.NewNullableString(content),
		Flags:   discord.EphemeralMessage,
	}
}

func errorResponse(err error) *api.InteractionResponseData {
	return contentResponse("❌ " + moderation.Message(err))
}
