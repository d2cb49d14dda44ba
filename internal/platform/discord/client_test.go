package discord

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dg "github.com/open-builders/giveaway-bot/internal/domain/giveaway"
	svc "github.com/open-builders/giveaway-bot/internal/service/giveaway"
	"github.com/open-builders/giveaway-bot/internal/utils/retry"
)

type fakeSession struct {
	channelErr error
	messageErr error
	reactErr   error
	channel    *discordgo.Channel

	sent      []string
	reactions []string
}

func (f *fakeSession) Channel(id string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.channelErr != nil {
		return nil, f.channelErr
	}
	if f.channel != nil {
		return f.channel, nil
	}
	return &discordgo.Channel{ID: id, GuildID: "g1"}, nil
}

func (f *fakeSession) ChannelMessage(ch, id string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.messageErr != nil {
		return nil, f.messageErr
	}
	return &discordgo.Message{ID: id, ChannelID: ch}, nil
}

func (f *fakeSession) ChannelMessageSend(ch, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = append(f.sent, content)
	return &discordgo.Message{ID: "m-sent", ChannelID: ch}, nil
}

func (f *fakeSession) ChannelMessageSendEmbed(ch string, e *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = append(f.sent, e.Description)
	return &discordgo.Message{ID: "m-embed", ChannelID: ch}, nil
}

func (f *fakeSession) ChannelMessageEditEmbed(ch, id string, _ *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return &discordgo.Message{ID: id, ChannelID: ch}, nil
}

func (f *fakeSession) MessageReactionAdd(_, _, emoji string, _ ...discordgo.RequestOption) error {
	f.reactions = append(f.reactions, emoji)
	return f.reactErr
}

func restError(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: "x"},
	}
}

func TestMessenger_ResolveChannel(t *testing.T) {
	scope := dg.Scope{GuildID: "g1", ChannelID: "c1"}
	ctx := context.Background()

	tests := []struct {
		name      string
		session   *fakeSession
		wantNil   bool
		wantErr   bool
		transient bool
	}{
		{name: "found", session: &fakeSession{}},
		{name: "unknown channel code", session: &fakeSession{channelErr: restError(http.StatusNotFound, discordgo.ErrCodeUnknownChannel)}, wantNil: true},
		{name: "plain 404", session: &fakeSession{channelErr: restError(http.StatusNotFound, 0)}, wantNil: true},
		{name: "other guild", session: &fakeSession{channel: &discordgo.Channel{ID: "c1", GuildID: "g2"}}, wantNil: true},
		{name: "forbidden", session: &fakeSession{channelErr: restError(http.StatusForbidden, discordgo.ErrCodeMissingAccess)}, wantErr: true},
		{name: "timeout", session: &fakeSession{channelErr: os.ErrDeadlineExceeded}, wantErr: true, transient: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest, err := NewMessenger(tt.session, "🎉", 0).ResolveChannel(ctx, scope)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.transient, retry.IsTransient(err))
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, dest)
				return
			}
			assert.Equal(t, &svc.Destination{GuildID: "g1", ChannelID: "c1"}, dest)
		})
	}
}

func TestMessenger_ResolveAnnouncement(t *testing.T) {
	dest := &svc.Destination{GuildID: "g1", ChannelID: "c1"}

	m := NewMessenger(&fakeSession{messageErr: restError(http.StatusNotFound, discordgo.ErrCodeUnknownMessage)}, "🎉", 0)
	ann, err := m.ResolveAnnouncement(context.Background(), dest, "m1")
	require.NoError(t, err)
	assert.Nil(t, ann)

	m = NewMessenger(&fakeSession{}, "🎉", 0)
	ann, err = m.ResolveAnnouncement(context.Background(), dest, "m1")
	require.NoError(t, err)
	assert.Equal(t, &svc.Announcement{ChannelID: "c1", MessageID: "m1"}, ann)
}

func TestMessenger_PostAnnouncement(t *testing.T) {
	fs := &fakeSession{reactErr: errors.New("missing permissions")}
	m := NewMessenger(fs, "🎉", 0xf44242)

	id, err := m.PostAnnouncement(context.Background(), &svc.Destination{ChannelID: "c1"}, svc.Card{Title: "t", Description: "d"})
	require.NoError(t, err, "reaction failure is not fatal")
	assert.Equal(t, "m-embed", id)
	assert.Equal(t, []string{"🎉"}, fs.reactions)
	assert.Equal(t, []string{"d"}, fs.sent)
}

type recordingPublisher struct {
	calls [][3]string
}

func (p *recordingPublisher) Publish(_ context.Context, messageID, userID, action string) error {
	p.calls = append(p.calls, [3]string{messageID, userID, action})
	return nil
}

func TestBot_OnReaction(t *testing.T) {
	pub := &recordingPublisher{}
	b := &Bot{emoji: "🎉", publisher: pub}

	human := &discordgo.Member{User: &discordgo.User{ID: "u1"}}
	otherBot := &discordgo.Member{User: &discordgo.User{ID: "b2", Bot: true}}

	b.onReaction("bot", &discordgo.MessageReaction{UserID: "u1", MessageID: "m1", Emoji: discordgo.Emoji{Name: "🎉"}}, human, ActionAdded)
	b.onReaction("bot", &discordgo.MessageReaction{UserID: "bot", MessageID: "m1", Emoji: discordgo.Emoji{Name: "🎉"}}, nil, ActionAdded)
	b.onReaction("bot", &discordgo.MessageReaction{UserID: "b2", MessageID: "m1", Emoji: discordgo.Emoji{Name: "🎉"}}, otherBot, ActionAdded)
	b.onReaction("bot", &discordgo.MessageReaction{UserID: "b2", MessageID: "m1", Emoji: discordgo.Emoji{Name: "🎉"}}, otherBot, ActionRemoved)
	b.onReaction("bot", &discordgo.MessageReaction{UserID: "u2", MessageID: "m1", Emoji: discordgo.Emoji{Name: "👍"}}, nil, ActionAdded)
	b.onReaction("bot", &discordgo.MessageReaction{UserID: "u1", MessageID: "m1", Emoji: discordgo.Emoji{Name: "🎉"}}, nil, ActionRemoved)

	assert.Equal(t, [][3]string{{"m1", "u1", ActionAdded}, {"m1", "u1", ActionRemoved}}, pub.calls)
}
