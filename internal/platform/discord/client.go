package discord

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/open-builders/giveaway-bot/internal/common/logger"
	dg "github.com/open-builders/giveaway-bot/internal/domain/giveaway"
	svc "github.com/open-builders/giveaway-bot/internal/service/giveaway"
	"github.com/open-builders/giveaway-bot/internal/utils/retry"
)

// session is the subset of *discordgo.Session used by Messenger.
type session interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
}

var _ session = (*discordgo.Session)(nil)

// Messenger implements the giveaway Messenger over the Discord REST API.
type Messenger struct {
	s     session
	emoji string
	color int
	log   zerolog.Logger
}

var _ svc.Messenger = (*Messenger)(nil)

func NewMessenger(s session, emoji string, color int) *Messenger {
	return &Messenger{s: s, emoji: emoji, color: color, log: logger.Component("discord")}
}

func (m *Messenger) ResolveChannel(ctx context.Context, scope dg.Scope) (*svc.Destination, error) {
	ch, err := m.s.Channel(scope.ChannelID, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknown(err) {
			return nil, nil
		}
		return nil, classify(err)
	}
	if ch.GuildID != "" && scope.GuildID != "" && ch.GuildID != scope.GuildID {
		return nil, nil
	}
	return &svc.Destination{GuildID: ch.GuildID, ChannelID: ch.ID}, nil
}

func (m *Messenger) ResolveAnnouncement(ctx context.Context, dest *svc.Destination, messageID string) (*svc.Announcement, error) {
	msg, err := m.s.ChannelMessage(dest.ChannelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknown(err) {
			return nil, nil
		}
		return nil, classify(err)
	}
	return &svc.Announcement{ChannelID: msg.ChannelID, MessageID: msg.ID}, nil
}

func (m *Messenger) SendMessage(ctx context.Context, dest *svc.Destination, text string) (string, error) {
	msg, err := m.s.ChannelMessageSend(dest.ChannelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return "", classify(err)
	}
	return msg.ID, nil
}

func (m *Messenger) EditMessage(ctx context.Context, a *svc.Announcement, card svc.Card) error {
	_, err := m.s.ChannelMessageEditEmbed(a.ChannelID, a.MessageID, m.embed(card), discordgo.WithContext(ctx))
	return classify(err)
}

// PostAnnouncement sends the giveaway embed and seeds it with the entry
// reaction. A failed reaction is not fatal: users can still add it.
func (m *Messenger) PostAnnouncement(ctx context.Context, dest *svc.Destination, card svc.Card) (string, error) {
	msg, err := m.s.ChannelMessageSendEmbed(dest.ChannelID, m.embed(card), discordgo.WithContext(ctx))
	if err != nil {
		return "", classify(err)
	}
	if err := m.s.MessageReactionAdd(dest.ChannelID, msg.ID, m.emoji, discordgo.WithContext(ctx)); err != nil {
		m.log.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to add entry reaction")
	}
	return msg.ID, nil
}

func (m *Messenger) embed(card svc.Card) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       card.Title,
		Description: card.Description,
		Color:       m.color,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// isUnknown reports a REST error meaning the channel or message is gone.
func isUnknown(err error) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return false
	}
	if rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownMessage:
			return true
		}
	}
	return rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound
}

// classify marks connection timeouts as transient and passes other errors on.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if retry.IsTransient(err) {
		return retry.Transient(err)
	}
	return err
}
