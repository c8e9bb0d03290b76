package discordbot

import (
	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
)

// staffCommands require Administrator or one of the guild's staff roles.
var staffCommands = map[string]bool{
	"adv": true, "adv-remove": true, "advrole": true, "advworth": true,
	"card": true, "bailworth": true, "invoice": true, "denyword-add": true,
	"denyword-remove": true, "panel": true, "staffrole-add": true,
	"staffrole-remove": true, "log": true, "revoke": true, "invite": true,
	"timeout": true, "timeout-worth": true, "unbanworth": true,
	"permban": true, "unban": true, "view": true, "viewlog": true,
}

// adminCommands additionally require the Administrator permission.
var adminCommands = map[string]bool{
	"staffrole-add":    true,
	"staffrole-remove": true,
}

func userOption(description string, required bool) *discord.UserOption {
	return &discord.UserOption{OptionName: "user", Description: description, Required: required}
}

func reasonOption() *discord.StringOption {
	return &discord.StringOption{OptionName: "reason", Description: "Reason", Required: false}
}

func valueOption() *discord.NumberOption {
	return &discord.NumberOption{OptionName: "value", Description: "Coin value", Required: true}
}

func channelOption(description string) *discord.ChannelOption {
	return &discord.ChannelOption{
		OptionName:   "channel",
		Description:  description,
		Required:     true,
		ChannelTypes: []discord.ChannelType{discord.GuildText},
	}
}

var commands = []api.CreateCommandData{
	{
		Name:        "adv",
		Description: "Give an advertence to a user",
		Options:     []discord.CommandOption{userOption("Target user", true), reasonOption()},
	},
	{
		Name:        "adv-remove",
		Description: "Remove one advertence from a user",
		Options:     []discord.CommandOption{userOption("Target user", true)},
	},
	{
		Name:        "advworth",
		Description: "Set the fine amount per ADV",
		Options:     []discord.CommandOption{valueOption()},
	},
	{
		Name:        "advrole",
		Description: "Configure advertence roles",
		Options: []discord.CommandOption{
			&discord.StringOption{
				OptionName:  "level",
				Description: "Advertence level",
				Required:    true,
				Choices: []discord.StringChoice{
					{Name: "ADV 1", Value: "adv1"},
					{Name: "ADV 2", Value: "adv2"},
					{Name: "ADV 3", Value: "adv3"},
					{Name: "BAN", Value: "ban"},
				},
			},
			&discord.RoleOption{OptionName: "role", Description: "Role to apply", Required: true},
		},
	},
	{
		Name:        "card",
		Description: "Set Coin Card ID for this server",
		Options: []discord.CommandOption{
			&discord.StringOption{OptionName: "card", Description: "Coin Card ID", Required: true},
		},
	},
	{
		Name:        "bail",
		Description: "Pay bail to remove one advertence",
	},
	{
		Name:        "bailworth",
		Description: "Set bail price to remove one advertence",
		Options:     []discord.CommandOption{valueOption()},
	},
	{
		Name:        "invoice",
		Description: "Create an invoice (fine)",
		Options: []discord.CommandOption{
			userOption("Target user", true),
			&discord.NumberOption{OptionName: "amount", Description: "Coin amount", Required: true},
			reasonOption(),
		},
	},
	{
		Name:        "payinvoice",
		Description: "Pay your pending invoices",
	},
	{
		Name:        "denyword-add",
		Description: "Add a forbidden word",
		Options: []discord.CommandOption{
			&discord.StringOption{OptionName: "word", Description: "Word", Required: true},
		},
	},
	{
		Name:        "denyword-remove",
		Description: "Remove a forbidden word",
		Options: []discord.CommandOption{
			&discord.StringOption{OptionName: "word", Description: "Word", Required: true},
		},
	},
	{
		Name:        "timeout",
		Description: "Apply a timeout to a user (and fine)",
		Options: []discord.CommandOption{
			userOption("Target user", true),
			&discord.StringOption{OptionName: "duration", Description: "Duration (e.g., 1h, 30m, 7d)", Required: true},
			reasonOption(),
		},
	},
	{
		Name:        "timeout-worth",
		Description: "Set the fine amount for any timeout",
		Options:     []discord.CommandOption{valueOption()},
	},
	{
		Name:        "permban",
		Description: "Ban a user permanently with a fine for unban",
		Options: []discord.CommandOption{
			userOption("Target user", true),
			&discord.NumberOption{OptionName: "unban_worth", Description: "Coin value for unban, defaults to the server's unban worth"},
			reasonOption(),
		},
	},
	{
		Name:        "unbanworth",
		Description: "Set the default fine amount for permban",
		Options:     []discord.CommandOption{valueOption()},
	},
	{
		Name:        "unban",
		Description: "Remove permban from a user",
		Options:     []discord.CommandOption{userOption("Target user", true)},
	},
	{
		Name:        "view",
		Description: "View detailed information about a user",
		Options:     []discord.CommandOption{userOption("Target user", true)},
	},
	{
		Name:        "viewlog",
		Description: "Generate a message transcript for a user",
		Options: []discord.CommandOption{
			userOption("Target user", true),
			&discord.StringOption{OptionName: "time_from", Description: "Start time (e.g., 9h, 1/1/2023)"},
			&discord.StringOption{OptionName: "time_to", Description: "End time (e.g., now, 2/1/2023)"},
			&discord.ChannelOption{
				OptionName:   "channel",
				Description:  "Filter by a specific channel",
				ChannelTypes: []discord.ChannelType{discord.GuildText},
			},
		},
	},
	{
		Name:        "rep",
		Description: "View a user's reputation or your own",
		Options:     []discord.CommandOption{userOption("Target user", false)},
	},
	{
		Name:        "positive",
		Description: "Give a positive reputation point (+5)",
		Options:     []discord.CommandOption{userOption("Target user", true)},
	},
	{
		Name:        "negative",
		Description: "Give a negative reputation point (-5)",
		Options:     []discord.CommandOption{userOption("Target user", true)},
	},
	{
		Name:        "panel",
		Description: "Send moderation panel",
		Options:     []discord.CommandOption{channelOption("Panel channel")},
	},
	{
		Name:        "staffrole-add",
		Description: "Add staff role",
		Options: []discord.CommandOption{
			&discord.RoleOption{OptionName: "role", Description: "Role", Required: true},
		},
	},
	{
		Name:        "staffrole-remove",
		Description: "Remove staff role",
		Options: []discord.CommandOption{
			&discord.RoleOption{OptionName: "role", Description: "Role", Required: true},
		},
	},
	{
		Name:        "log",
		Description: "Set moderation log channel",
		Options:     []discord.CommandOption{channelOption("Log channel")},
	},
	{
		Name:        "revoke",
		Description: "Set deleted message log channel",
		Options:     []discord.CommandOption{channelOption("Revoke channel")},
	},
	{
		Name:        "invite",
		Description: "Set guild invite link",
		Options: []discord.CommandOption{
			&discord.StringOption{OptionName: "link", Description: "Invite link", Required: true},
		},
	},
}
