package giveaway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGiveaway_Build(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	g := NewGiveaway{
		Scope:           Scope{GuildID: "g1", ChannelID: "c1"},
		MessageID:       "m1",
		Prize:           "Nitro",
		DurationMinutes: 10,
		WinnerCount:     2,
	}.Build(now)

	assert.Equal(t, DefaultConditions, g.Conditions)
	assert.Equal(t, now.Add(10*time.Minute), g.EndsAt)
	assert.Empty(t, g.Participants)
	assert.NotNil(t, g.Participants)
	assert.Equal(t, Scope{GuildID: "g1", ChannelID: "c1"}, g.Scope())
	assert.False(t, g.Overdue(now))
	assert.True(t, g.Overdue(now.Add(10*time.Minute)))
}

func TestNewGiveaway_Validate(t *testing.T) {
	valid := NewGiveaway{Scope: Scope{GuildID: "g", ChannelID: "c"}, Prize: "p", DurationMinutes: 1, WinnerCount: 1}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(n *NewGiveaway)
		want   error
	}{
		{"zero duration", func(n *NewGiveaway) { n.DurationMinutes = 0 }, ErrInvalidDuration},
		{"duration past one year", func(n *NewGiveaway) { n.DurationMinutes = MaxDurationMinutes + 1 }, ErrInvalidDuration},
		{"duration overflowing time.Duration", func(n *NewGiveaway) { n.DurationMinutes = 200_000_000 }, ErrInvalidDuration},
		{"negative winners", func(n *NewGiveaway) { n.WinnerCount = -1 }, ErrInvalidWinners},
		{"no prize", func(n *NewGiveaway) { n.Prize = "" }, ErrMissingPrize},
		{"no channel", func(n *NewGiveaway) { n.Scope.ChannelID = "" }, ErrMissingScope},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := valid
			tt.mutate(&n)
			assert.ErrorIs(t, n.Validate(), tt.want)
		})
	}
}

func TestNewGiveaway_MaxDurationEndsInFuture(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	n := NewGiveaway{Scope: Scope{GuildID: "g", ChannelID: "c"}, Prize: "p", DurationMinutes: MaxDurationMinutes, WinnerCount: 1}
	require.NoError(t, n.Validate())

	g := n.Build(now)
	assert.Equal(t, now.AddDate(1, 0, 0), g.EndsAt)
	assert.False(t, g.Overdue(now))
}

func TestDrawSize(t *testing.T) {
	assert.Equal(t, 2, drawSize(5, 2))
	assert.Equal(t, 3, drawSize(3, 10))
	assert.Equal(t, 0, drawSize(1, 0))
	assert.Equal(t, 0, drawSize(-1, 4))
}

func TestParticipants(t *testing.T) {
	p := NewParticipants([]string{"a", "", "b", "a"})
	assert.Equal(t, Participants{"a", "b"}, p)

	p, added := p.Add("c")
	assert.True(t, added)
	p, added = p.Add("c")
	assert.False(t, added)
	assert.Len(t, p, 3)

	p, removed := p.Remove("a")
	assert.True(t, removed)
	assert.Equal(t, Participants{"b", "c"}, p)

	_, removed = p.Remove("zzz")
	assert.False(t, removed)
}

func TestParticipants_AddDoesNotAlias(t *testing.T) {
	base := make(Participants, 1, 4)
	base[0] = "a"
	x, _ := base.Add("x")
	y, _ := base.Add("y")
	assert.Equal(t, Participants{"a", "x"}, x)
	assert.Equal(t, Participants{"a", "y"}, y)
}
