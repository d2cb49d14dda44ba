package giveaway

import "time"

const (
	DefaultSweepInterval            = 5 * time.Minute
	DefaultHistoryRetention         = 7 * 24 * time.Hour
	DefaultMaxConcurrentResolutions = 10
	DefaultResolutionTimeout        = 2 * time.Minute

	// lock key prefixes, suffixed by giveaway id or message id
	resolveLockPrefix     = "resolve:"
	participantLockPrefix = "participants:"
)
