package keepalive

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/samosabot/samosa-bot/logging"
)

type channelSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts notices to one channel, optionally mentioning a user.
type DiscordNotifier struct {
	session   *discordgo.Session
	sender    channelSender
	channelID string
	mentionID string
	logger    *logging.Logger
}

// NewDiscordNotifier opens a REST-only discord session for channelID.
func NewDiscordNotifier(token, channelID, mentionID string, logger *logging.Logger) (*DiscordNotifier, error) {
	if channelID == "" {
		return nil, fmt.Errorf("keepalive needs a discord channel id")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &DiscordNotifier{
		session:   session,
		sender:    session,
		channelID: channelID,
		mentionID: mentionID,
		logger:    logger,
	}, nil
}

// Notify sends message to the channel.
func (n *DiscordNotifier) Notify(ctx context.Context, target, message string) error {
	content := "**Keepalive:** " + message
	if n.mentionID != "" {
		content = fmt.Sprintf("<@%s> %s", n.mentionID, content)
	}
	if _, err := n.sender.ChannelMessageSend(n.channelID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send discord notice for %s: %w", target, err)
	}
	n.logger.Info("keepalive notice sent", "target", target, "channelID", n.channelID)
	return nil
}

// Close releases the session.
func (n *DiscordNotifier) Close() error {
	if n.session == nil {
		return nil
	}
	return n.session.Close()
}
