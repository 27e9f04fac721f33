package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// messageSender is the slice of *discordgo.Session the notifier needs
type messageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

const (
	colorError = 0xE74C3C
	colorWarn  = 0xF1C40F
)

// DiscordNotifier posts notifications to a channel: rolls as plain messages,
// problems as embeds.
type DiscordNotifier struct {
	session   messageSender
	channelID string
	logger    *zap.Logger
}

// DiscordNotifierConfig holds configuration for the Discord notifier
type DiscordNotifierConfig struct {
	Session   messageSender
	ChannelID string
	Logger    *zap.Logger
}

// NewDiscordNotifier creates a notifier posting to one channel
func NewDiscordNotifier(cfg *DiscordNotifierConfig) *DiscordNotifier {
	if cfg == nil {
		panic("DiscordNotifierConfig cannot be nil")
	}
	if cfg.Session == nil {
		panic("discord session cannot be nil")
	}
	if cfg.ChannelID == "" {
		panic("channel ID is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DiscordNotifier{
		session:   cfg.Session,
		channelID: cfg.ChannelID,
		logger:    logger.Named("discord"),
	}
}

// NewDiscordSession opens a bot session for the notifier
func NewDiscordSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return session, nil
}

// Notify implements Notifier
func (d *DiscordNotifier) Notify(_ context.Context, n Notification) {
	if _, err := d.session.ChannelMessageSendComplex(d.channelID, d.message(n)); err != nil {
		d.logger.Warn("failed to post notification",
			zap.String("channel_id", d.channelID),
			zap.String("category", string(n.Category)),
			zap.Error(err))
	}
}

func (d *DiscordNotifier) message(n Notification) *discordgo.MessageSend {
	if n.Level == LevelInfo || n.Level == "" {
		return &discordgo.MessageSend{Content: n.Message}
	}

	color := colorWarn
	if n.Level == LevelError {
		color = colorError
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Could not %s character", n.Category),
		Description: n.Message,
		Color:       color,
	}
	if n.SlotID != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Tab", Value: n.SlotID, Inline: true})
	}
	if n.Err != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Cause", Value: n.Err.Error()})
	}
	return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
}
