package giveaway

import "errors"

var (
	ErrChannelNotFound      = errors.New("giveaway channel not found")
	ErrAnnouncementNotFound = errors.New("giveaway announcement not found")
	ErrNoHistory            = errors.New("no resolved giveaway in this guild")
	ErrStopped              = errors.New("scheduler stopped")
)
