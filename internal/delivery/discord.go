package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// DiscordDeliverer posts chime messages through a Discord session.
type DiscordDeliverer struct {
	session *discordgo.Session
}

func NewDiscordDeliverer(session *discordgo.Session) *DiscordDeliverer {
	return &DiscordDeliverer{session: session}
}

func (d *DiscordDeliverer) Deliver(ctx context.Context, channelID, message string) error {
	_, err := d.session.ChannelMessageSend(channelID, message, discordgo.WithContext(ctx))
	if err == nil {
		return nil
	}
	if isChannelGone(err) {
		return fmt.Errorf("channel %s: %w", channelID, ErrDestinationGone)
	}
	return fmt.Errorf("failed to send message to channel %s: %w", channelID, err)
}

// isChannelGone reports whether a Discord REST error means the channel can
// never receive this message again: the channel or guild was deleted, or
// the bot was removed from the guild.
func isChannelGone(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Message == nil {
		return false
	}
	switch restErr.Message.Code {
	case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownGuild, discordgo.ErrCodeMissingAccess:
		return true
	}
	return false
}

var _ Deliverer = (*DiscordDeliverer)(nil)

// DiscordNotifier posts operator-facing failure reports to a dedicated
// channel.
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	return &DiscordNotifier{session: session, channelID: channelID}
}

func (n *DiscordNotifier) Notify(ctx context.Context, subject string, err error) {
	content := fmt.Sprintf("chime failure: %s: %v", subject, err)
	if _, sendErr := n.session.ChannelMessageSend(n.channelID, content, discordgo.WithContext(ctx)); sendErr != nil {
		slog.Error("failed to send operator notification",
			slog.String("channelID", n.channelID),
			slog.Any("error", sendErr),
		)
	}
}
