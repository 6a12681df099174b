package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/chimecord/chime/internal/manager"
	"github.com/chimecord/chime/internal/presenters"
	"github.com/chimecord/chime/internal/repository"
	"github.com/chimecord/chime/internal/schedule"
	"github.com/chimecord/chime/internal/throttle"
)

type ReadyHandler = func(*discordgo.Session, *discordgo.Ready)
type InteractionCreateHandler = func(*discordgo.Session, *discordgo.InteractionCreate)

// DiscordSession is the slice of discordgo.Session the interaction handler
// needs, abstracted so tests can observe responses without a live session.
type DiscordSession interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, opts ...discordgo.RequestOption) error
}

var ReadyLog = func(s *discordgo.Session, r *discordgo.Ready) {
	username := r.User.Username
	userID := r.User.ID
	slog.Info("Bot is ready", "username", username, "userID", userID)
}

// ChimeAddRequest is the parsed form of a /chime add subcommand.
type ChimeAddRequest struct {
	ChannelID string
	Message   string
	Schedule  schedule.Schedule
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, option := range options {
		m[option.Name] = option
	}
	return m
}

func requiredString(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (string, error) {
	opt, ok := opts[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionString {
		return "", &UserError{Message: fmt.Sprintf("the %s option is required", name)}
	}
	return opt.StringValue(), nil
}

func requiredInt(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (int64, error) {
	opt, ok := opts[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionInteger {
		return 0, &UserError{Message: fmt.Sprintf("the %s option is required", name)}
	}
	return opt.IntValue(), nil
}

// CommandToAddRequest parses one of the /chime add subcommands into a
// destination, message, and schedule variant.
func CommandToAddRequest(sub *discordgo.ApplicationCommandInteractionDataOption) (*ChimeAddRequest, error) {
	opts := optionMap(sub.Options)

	channelOpt, ok := opts["channel"]
	if !ok || channelOpt.Type != discordgo.ApplicationCommandOptionChannel {
		return nil, &UserError{Message: "the channel option is required"}
	}
	channelID := channelOpt.ChannelValue(nil).ID

	message, err := requiredString(opts, "message")
	if err != nil {
		return nil, err
	}

	var tz string
	if tzOpt, ok := opts["timezone"]; ok {
		tz = tzOpt.StringValue()
	}

	var sched schedule.Schedule
	switch sub.Name {
	case "every":
		minutes, err := requiredInt(opts, "minutes")
		if err != nil {
			return nil, err
		}
		sched = schedule.Interval{Every: time.Duration(minutes) * time.Minute}
	case "daily":
		raw, err := requiredString(opts, "time")
		if err != nil {
			return nil, err
		}
		at, err := schedule.ParseTimeOfDay(raw)
		if err != nil {
			return nil, &UserError{Message: err.Error()}
		}
		sched = schedule.Daily{At: at, TZ: tz}
	case "weekly":
		weekday, err := requiredInt(opts, "weekday")
		if err != nil {
			return nil, err
		}
		raw, err := requiredString(opts, "time")
		if err != nil {
			return nil, err
		}
		at, err := schedule.ParseTimeOfDay(raw)
		if err != nil {
			return nil, &UserError{Message: err.Error()}
		}
		sched = schedule.Weekly{At: at, Weekday: int(weekday), TZ: tz}
	case "monthly":
		day, err := requiredInt(opts, "day")
		if err != nil {
			return nil, err
		}
		raw, err := requiredString(opts, "time")
		if err != nil {
			return nil, err
		}
		at, err := schedule.ParseTimeOfDay(raw)
		if err != nil {
			return nil, &UserError{Message: err.Error()}
		}
		sched = schedule.Monthly{At: at, Day: int(day), TZ: tz}
	case "cron":
		expr, err := requiredString(opts, "expression")
		if err != nil {
			return nil, err
		}
		sched = schedule.Cron{Expr: expr, TZ: tz}
	case "once":
		raw, err := requiredString(opts, "when")
		if err != nil {
			return nil, err
		}
		when, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, &UserError{Message: fmt.Sprintf("invalid timestamp %q, expected RFC 3339 like 2026-01-02T15:04:05Z", raw)}
		}
		sched = schedule.Once{At: when}
	default:
		return nil, &UserError{Message: fmt.Sprintf("unknown schedule type %q", sub.Name)}
	}

	return &ChimeAddRequest{
		ChannelID: channelID,
		Message:   message,
		Schedule:  sched,
	}, nil
}

func respondText(s DiscordSession, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
	if err != nil {
		slog.Error("Failed to respond to interaction", "error", err)
	}
}

// userFacingMessage maps an error to the text shown to the invoking user.
// Validation problems are explained; everything else stays generic.
func userFacingMessage(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.Message
	}
	var invalid *schedule.InvalidScheduleError
	if errors.As(err, &invalid) {
		return invalid.Error()
	}
	if errors.Is(err, repository.ErrChimeNotFound) {
		return "No scheduled message with that id exists in this server."
	}
	return "Something went wrong, please try again."
}

// NewInteractionHandler builds the slash-command handler over the session
// abstraction. MakeInteractionCreateHandler adapts it for discordgo's
// AddHandler.
func NewInteractionHandler(chimes *manager.Service, alerts *throttle.Throttle) func(DiscordSession, *discordgo.InteractionCreate) {
	return func(s DiscordSession, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		command := i.ApplicationCommandData()
		switch command.Name {
		case "ping":
			respondText(s, i, "Pong!")
		case "chime":
			if len(command.Options) == 0 {
				slog.Warn("No options provided for chime command")
				return
			}
			ctx := context.Background()
			subCommand := command.Options[0]
			switch subCommand.Name {
			case "add":
				if len(subCommand.Options) == 0 {
					slog.Warn("No subcommand provided for chime add command")
					return
				}
				request, err := CommandToAddRequest(subCommand.Options[0])
				if err != nil {
					respondText(s, i, userFacingMessage(err))
					return
				}

				created, err := chimes.Create(ctx, i.GuildID, request.ChannelID, request.Message, request.Schedule)
				if err != nil {
					slog.Warn("Failed to create chime", "error", err)
					respondText(s, i, userFacingMessage(err))
					return
				}
				respondText(s, i, presenters.ChimeCreated(created))
			case "list":
				listed, err := chimes.List(ctx, i.GuildID)
				if err != nil {
					slog.Warn("Failed to list chimes", "error", err)
					respondText(s, i, userFacingMessage(err))
					return
				}
				respondText(s, i, presenters.ChimeList(listed))
			case "remove":
				opts := optionMap(subCommand.Options)
				id, err := requiredString(opts, "id")
				if err != nil {
					respondText(s, i, userFacingMessage(err))
					return
				}
				if err := chimes.Delete(ctx, id, i.GuildID); err != nil {
					slog.Warn("Failed to delete chime", "error", err)
					respondText(s, i, userFacingMessage(err))
					return
				}
				respondText(s, i, "Scheduled message removed.")
			case "alerts":
				if len(subCommand.Options) == 0 {
					slog.Warn("No subcommand provided for chime alerts command")
					return
				}
				handleAlerts(s, i, alerts, subCommand.Options[0])
			}
		}
	}
}

// handleAlerts drives the failure-alert throttle from the alerts
// subcommands: pause mutes alerts for a while, resume lifts the pause, and
// status shows which failures are currently deduplicated.
func handleAlerts(s DiscordSession, i *discordgo.InteractionCreate, alerts *throttle.Throttle, op *discordgo.ApplicationCommandInteractionDataOption) {
	switch op.Name {
	case "pause":
		minutes, err := requiredInt(optionMap(op.Options), "minutes")
		if err != nil {
			respondText(s, i, userFacingMessage(err))
			return
		}
		if minutes <= 0 {
			respondText(s, i, "The pause length must be at least one minute.")
			return
		}
		d := time.Duration(minutes) * time.Minute
		alerts.Suppress(d)
		respondText(s, i, fmt.Sprintf("Failure alerts paused for %s.", d))
	case "resume":
		alerts.Resume()
		respondText(s, i, "Failure alerts resumed.")
	case "status":
		respondText(s, i, presenters.AlertStatus(alerts.Status()))
	}
}

func MakeInteractionCreateHandler(chimes *manager.Service, alerts *throttle.Throttle) InteractionCreateHandler {
	h := NewInteractionHandler(chimes, alerts)
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		h(s, i)
	}
}

// EstablishCommands registers the bot's slash commands. An empty guildID
// registers them globally.
func EstablishCommands(s *discordgo.Session, guildID string) error {
	_, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, guildID, Commands)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	return nil
}

type Handlers struct {
	Ready             ReadyHandler
	InteractionCreate InteractionCreateHandler
}

func NewSession(token string, handlers Handlers) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	s.AddHandler(handlers.Ready)
	s.AddHandler(handlers.InteractionCreate)

	return s, nil
}
