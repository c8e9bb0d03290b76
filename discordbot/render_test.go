package discordbot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"coinmod/modules/moderation"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasStaffRole(t *testing.T) {
	assert := assert.New(t)

	held := []discord.RoleID{10, 20}
	assert.True(hasStaffRole(held, []string{"20"}))
	assert.False(hasStaffRole(held, []string{"30"}))
	assert.False(hasStaffRole(nil, []string{"10"}))
	assert.False(hasStaffRole(held, nil))
}

func TestModalValue(t *testing.T) {
	var components discord.ContainerComponents
	err := json.Unmarshal([]byte(`[
		{"type": 1, "components": [{"type": 4, "custom_id": "other", "value": "nope"}]},
		{"type": 1, "components": [{"type": 4, "custom_id": "card", "value": "card-123"}]}
	]`), &components)
	require.NoError(t, err)

	assert.Equal(t, "card-123", modalValue(components, inputCard))
	assert.Equal(t, "", modalValue(components, "missing"))
	assert.Equal(t, "", modalValue(nil, inputCard))
}

func TestNoticeEmbed(t *testing.T) {
	assert := assert.New(t)

	long := strings.Repeat("é", maxFieldValue+10)
	embed := noticeEmbed(moderation.Notice{
		Title: "Deleted",
		Color: moderation.ColorRed,
		Fields: []moderation.Field{
			{Name: "Content", Value: long},
			{Name: "Attachments", Value: ""},
		},
	})

	require.Len(t, embed.Fields, 2)
	assert.Equal("Deleted", embed.Title)
	assert.Equal(discord.Color(moderation.ColorRed), embed.Color)
	assert.Len([]rune(embed.Fields[0].Value), maxFieldValue)
	assert.True(strings.HasSuffix(embed.Fields[0].Value, "..."))
	assert.Equal("-", embed.Fields[1].Value)
	assert.False(embed.Timestamp.IsValid())
}

func TestNoticeComponents(t *testing.T) {
	assert.Nil(t, noticeComponents(moderation.ActionNone))

	components := noticeComponents(moderation.ActionPayUnban)
	require.Len(t, components, 1)
	row, ok := components[0].(*discord.ActionRowComponent)
	require.True(t, ok)
	require.Len(t, *row, 1)
	button, ok := (*row)[0].(*discord.ButtonComponent)
	require.True(t, ok)
	assert.Equal(t, discord.ComponentID(buttonUnban), button.CustomID)
}

func TestCardModal(t *testing.T) {
	assert := assert.New(t)

	resp := cardModal(modalBail, "Pay Bail")
	assert.Equal(api.ModalResponse, resp.Type)
	require.NotNil(t, resp.Data)
	assert.Equal(modalBail, resp.Data.CustomID.Val)
	assert.Equal("Pay Bail", resp.Data.Title.Val)

	require.NotNil(t, resp.Data.Components)
	row := (*resp.Data.Components)[0].(*discord.ActionRowComponent)
	input := (*row)[0].(*discord.TextInputComponent)
	assert.Equal(discord.ComponentID(inputCard), input.CustomID)
	assert.True(input.Required)
}

func TestStandingEmbed(t *testing.T) {
	assert := assert.New(t)
	now := time.UnixMilli(1_700_000_000_000)

	embed := standingEmbed("Info", &moderation.Standing{
		UserID:      "42",
		Reputation:  -15,
		JoinedAt:    now.Add(-90 * time.Minute).UnixMilli(),
		Advertences: 1,
		Tier:        "tier1",
		Messages:    7,
		Pending:     "1.5",
	}, now)

	assert.Equal(discord.Color(moderation.ColorRed), embed.Color)
	require.Len(t, embed.Fields, 5)
	assert.Equal("7", embed.Fields[1].Value)
	assert.Equal("-15", embed.Fields[2].Value)
	assert.Equal("1 (tier1)", embed.Fields[3].Value)
	assert.Equal("1.5", embed.Fields[4].Value)
	assert.Equal("User ID: 42", embed.Footer.Text)
}

func TestErrorResponse(t *testing.T) {
	assert := assert.New(t)

	data := errorResponse(fmt.Errorf("%w: bad amount", moderation.ErrValidation))
	assert.Equal("❌ bad amount", data.Content.Val)
	assert.Equal(discord.EphemeralMessage, data.Flags)

	data = errorResponse(errors.New("db down"))
	assert.Equal("❌ An internal error occurred.", data.Content.Val)
}
