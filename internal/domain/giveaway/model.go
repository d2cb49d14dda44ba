package giveaway

import (
	"errors"
	"time"
)

// DefaultConditions is stored when a giveaway is started without conditions.
const DefaultConditions = "No conditions"

// MaxDurationMinutes caps a giveaway at one year.
const MaxDurationMinutes = 365 * 24 * 60

// Scope identifies where a giveaway lives: a guild and one of its channels.
type Scope struct {
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id"`
}

// Giveaway is an open, time-bounded event waiting for its deadline.
// DurationMinutes, WinnerCount and EndsAt never change after creation.
type Giveaway struct {
	ID              string       `json:"id"`
	GuildID         string       `json:"guild_id"`
	ChannelID       string       `json:"channel_id"`
	MessageID       string       `json:"message_id"`
	Prize           string       `json:"prize"`
	DurationMinutes int          `json:"duration_minutes"`
	WinnerCount     int          `json:"winner_count"`
	Conditions      string       `json:"conditions"`
	EndsAt          time.Time    `json:"ends_at"`
	Participants    Participants `json:"participants"`
	CreatedAt       time.Time    `json:"created_at"`
}

// Scope returns the guild/channel pair of the giveaway.
func (g *Giveaway) Scope() Scope {
	return Scope{GuildID: g.GuildID, ChannelID: g.ChannelID}
}

// Overdue reports whether the deadline is at or before now.
func (g *Giveaway) Overdue(now time.Time) bool {
	return !g.EndsAt.After(now)
}

// DrawSize is the number of winners a draw produces: min(WinnerCount, |participants|).
func (g *Giveaway) DrawSize() int {
	return drawSize(g.WinnerCount, len(g.Participants))
}

func drawSize(winnerCount, participants int) int {
	if winnerCount < 0 {
		return 0
	}
	if winnerCount > participants {
		return participants
	}
	return winnerCount
}

// NewGiveaway input, before the store assigns an id.
type NewGiveaway struct {
	Scope           Scope
	MessageID       string
	Prize           string
	DurationMinutes int
	WinnerCount     int
	Conditions      string
}

var (
	ErrInvalidDuration = errors.New("duration must be between 1 minute and one year")
	ErrInvalidWinners  = errors.New("winners count must be > 0")
	ErrMissingPrize    = errors.New("prize is required")
	ErrMissingScope    = errors.New("guild and channel are required")
)

// Validate checks the business rules for a new giveaway.
func (n NewGiveaway) Validate() error {
	switch {
	case n.Scope.GuildID == "" || n.Scope.ChannelID == "":
		return ErrMissingScope
	case n.Prize == "":
		return ErrMissingPrize
	case n.DurationMinutes <= 0 || n.DurationMinutes > MaxDurationMinutes:
		return ErrInvalidDuration
	case n.WinnerCount <= 0:
		return ErrInvalidWinners
	}
	return nil
}

// Build creates the record for n as of now. EndsAt is computed once here.
func (n NewGiveaway) Build(now time.Time) *Giveaway {
	conditions := n.Conditions
	if conditions == "" {
		conditions = DefaultConditions
	}
	return &Giveaway{
		GuildID:         n.Scope.GuildID,
		ChannelID:       n.Scope.ChannelID,
		MessageID:       n.MessageID,
		Prize:           n.Prize,
		DurationMinutes: n.DurationMinutes,
		WinnerCount:     n.WinnerCount,
		Conditions:      conditions,
		EndsAt:          now.Add(time.Duration(n.DurationMinutes) * time.Minute),
		Participants:    Participants{},
		CreatedAt:       now,
	}
}

// Resolved is a giveaway kept after resolution so its winners can be redrawn.
type Resolved struct {
	Giveaway
	Winners    []string  `json:"winners"`
	ResolvedAt time.Time `json:"resolved_at"`
}
