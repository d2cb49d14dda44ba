package giveaway

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/open-builders/giveaway-bot/internal/common/logger"
	dg "github.com/open-builders/giveaway-bot/internal/domain/giveaway"
	"github.com/open-builders/giveaway-bot/internal/metrics"
	"github.com/open-builders/giveaway-bot/internal/utils/retry"
)

// Options tunes the service. Zero values fall back to the package defaults.
type Options struct {
	Retry                    retry.Policy
	SweepInterval            time.Duration
	HistoryRetention         time.Duration
	MaxConcurrentResolutions int
	ResolutionTimeout        time.Duration
	Emoji                    string

	Metrics *metrics.Metrics
	Now     func() time.Time
	Random  io.Reader
}

func (o *Options) applyDefaults() {
	if o.Retry.Attempts <= 0 {
		o.Retry.Attempts = 1
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = DefaultSweepInterval
	}
	if o.HistoryRetention <= 0 {
		o.HistoryRetention = DefaultHistoryRetention
	}
	if o.MaxConcurrentResolutions <= 0 {
		o.MaxConcurrentResolutions = DefaultMaxConcurrentResolutions
	}
	if o.ResolutionTimeout <= 0 {
		o.ResolutionTimeout = DefaultResolutionTimeout
	}
	if o.Emoji == "" {
		o.Emoji = "🎉"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Random == nil {
		o.Random = rand.Reader
	}
}

type armedTimer struct {
	t   *time.Timer
	gen uint64
}

// Service owns the giveaway lifecycle: creation, participant updates,
// scheduling and resolution. It holds no copy of open records; every step
// re-reads the Store.
type Service struct {
	store     dg.Store
	messenger Messenger
	locker    Locker
	metrics   *metrics.Metrics
	opts      Options
	log       zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	sem    chan struct{}

	mu       sync.Mutex
	timers   map[string]armedTimer
	gen      uint64
	started  bool
	stopped  bool
	inflight sync.Map
}

// New wires the service. A nil locker selects the in-process KeyedLocker.
func New(store dg.Store, messenger Messenger, locker Locker, opts Options) *Service {
	opts.applyDefaults()
	if locker == nil {
		locker = NewKeyedLocker()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		store:     store,
		messenger: messenger,
		locker:    locker,
		metrics:   opts.Metrics,
		opts:      opts,
		log:       logger.Component("giveaway"),
		ctx:       ctx,
		cancel:    cancel,
		sem:       make(chan struct{}, opts.MaxConcurrentResolutions),
		timers:    make(map[string]armedTimer),
	}
}

func (s *Service) now() time.Time { return s.opts.Now() }

// StartGiveaway posts the announcement into the scope's channel, stores the
// record and arms its timer. n.MessageID is ignored.
func (s *Service) StartGiveaway(ctx context.Context, n dg.NewGiveaway) (*dg.Giveaway, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	dest, err := retry.DoValue(ctx, s.opts.Retry, func(ctx context.Context) (*Destination, error) {
		return s.messenger.ResolveChannel(ctx, n.Scope)
	})
	if err != nil {
		return nil, fmt.Errorf("resolve channel: %w", err)
	}
	if dest == nil {
		return nil, ErrChannelNotFound
	}

	g := n.Build(s.now())
	msgID, err := retry.DoValue(ctx, s.opts.Retry, func(ctx context.Context) (string, error) {
		return s.messenger.PostAnnouncement(ctx, dest, RenderCard(g, s.opts.Emoji))
	})
	if err != nil {
		return nil, fmt.Errorf("post announcement: %w", err)
	}
	g.MessageID = msgID

	if _, err := s.store.CreateGiveaway(ctx, g); err != nil {
		s.log.Error().Err(err).Str("message_id", msgID).Msg("Failed to store giveaway")
		return nil, fmt.Errorf("create giveaway: %w", err)
	}

	s.log.Info().
		Str("giveaway_id", g.ID).
		Str("guild_id", g.GuildID).
		Str("message_id", g.MessageID).
		Time("ends_at", g.EndsAt).
		Msg("Giveaway started")
	s.Arm(g)
	return g, nil
}

// List returns every open giveaway.
func (s *Service) List(ctx context.Context) ([]*dg.Giveaway, error) {
	return s.store.ListOpenGiveaways(ctx)
}

// Get returns an open giveaway by id.
func (s *Service) Get(ctx context.Context, id string) (*dg.Giveaway, error) {
	return s.store.GetGiveaway(ctx, id)
}

// Ping checks the backing store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func isNotFound(err error) bool { return errors.Is(err, dg.ErrNotFound) }
