package handler

import (
	"github.com/bwmarrin/discordgo"
)

var channelOption = &discordgo.ApplicationCommandOption{
	Name:        "channel",
	Type:        discordgo.ApplicationCommandOptionChannel,
	Description: "The channel the message is posted to.",
	Required:    true,
}

var messageOption = &discordgo.ApplicationCommandOption{
	Name:        "message",
	Type:        discordgo.ApplicationCommandOptionString,
	Description: "The message to post.",
	Required:    true,
}

var timeOption = &discordgo.ApplicationCommandOption{
	Name:        "time",
	Type:        discordgo.ApplicationCommandOptionString,
	Description: "Time of day as HH:MM.",
	Required:    true,
}

var timezoneOption = &discordgo.ApplicationCommandOption{
	Name:        "timezone",
	Type:        discordgo.ApplicationCommandOptionString,
	Description: "IANA timezone name, e.g. Europe/Berlin. Defaults to UTC.",
	Required:    false,
}

var weekdayOption = &discordgo.ApplicationCommandOption{
	Name:        "weekday",
	Type:        discordgo.ApplicationCommandOptionInteger,
	Description: "Day of the week.",
	Required:    true,
	Choices: []*discordgo.ApplicationCommandOptionChoice{
		{Name: "Monday", Value: 0},
		{Name: "Tuesday", Value: 1},
		{Name: "Wednesday", Value: 2},
		{Name: "Thursday", Value: 3},
		{Name: "Friday", Value: 4},
		{Name: "Saturday", Value: 5},
		{Name: "Sunday", Value: 6},
	},
}

var addSubcommands = []*discordgo.ApplicationCommandOption{
	{
		Name:        "every",
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Description: "Post the message on a fixed interval.",
		Options: []*discordgo.ApplicationCommandOption{
			channelOption, messageOption,
			{
				Name:        "minutes",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Description: "Interval length in minutes.",
				Required:    true,
			},
		},
	},
	{
		Name:        "daily",
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Description: "Post the message every day at a time of day.",
		Options:     []*discordgo.ApplicationCommandOption{channelOption, messageOption, timeOption, timezoneOption},
	},
	{
		Name:        "weekly",
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Description: "Post the message every week on a weekday.",
		Options:     []*discordgo.ApplicationCommandOption{channelOption, messageOption, weekdayOption, timeOption, timezoneOption},
	},
	{
		Name:        "monthly",
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Description: "Post the message every month on a day of the month.",
		Options: []*discordgo.ApplicationCommandOption{
			channelOption, messageOption,
			{
				Name:        "day",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Description: "Day of the month (1-28).",
				Required:    true,
			},
			timeOption, timezoneOption,
		},
	},
	{
		Name:        "cron",
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Description: "Post the message on a cron expression.",
		Options: []*discordgo.ApplicationCommandOption{
			channelOption, messageOption,
			{
				Name:        "expression",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "A standard cron expression, e.g. 0 9 * * 1.",
				Required:    true,
			},
			timezoneOption,
		},
	},
	{
		Name:        "once",
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Description: "Post the message a single time.",
		Options: []*discordgo.ApplicationCommandOption{
			channelOption, messageOption,
			{
				Name:        "when",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "When to post, as an RFC 3339 timestamp.",
				Required:    true,
			},
		},
	},
}

var alertsSubcommands = []*discordgo.ApplicationCommandOption{
	{
		Name:        "pause",
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Description: "Pause failure alerts for a while.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "minutes",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Description: "How long to pause alerts, in minutes.",
				Required:    true,
			},
		},
	},
	{
		Name:        "resume",
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Description: "Resume failure alerts immediately.",
	},
	{
		Name:        "status",
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Description: "Show which delivery failures are being deduplicated.",
	},
}

// Commands is a list of all the commands the bot can handle.
// This is used to register the commands with Discord.
var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "ping",
		Description: "Check that the bot is alive",
	},
	{
		Name:        "chime",
		Description: "Manage scheduled messages for this server",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "add",
				Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
				Description: "Schedule a new message",
				Options:     addSubcommands,
			},
			{
				Name:        "list",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "List scheduled messages",
			},
			{
				Name:        "remove",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Remove a scheduled message",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "id",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "The id of the scheduled message.",
						Required:    true,
					},
				},
			},
			{
				Name:        "alerts",
				Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
				Description: "Control failure alerting",
				Options:     alertsSubcommands,
			},
		},
	},
}
