package giveaway

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	dg "github.com/open-builders/giveaway-bot/internal/domain/giveaway"
	"github.com/open-builders/giveaway-bot/internal/utils/retry"
)

type memStore struct {
	mu      sync.Mutex
	open    map[string]dg.Giveaway
	history []dg.Resolved
	listErr error
}

func newMemStore() *memStore {
	return &memStore{open: make(map[string]dg.Giveaway)}
}

func clone(g dg.Giveaway) *dg.Giveaway {
	g.Participants = append(dg.Participants{}, g.Participants...)
	return &g
}

func (m *memStore) CreateGiveaway(_ context.Context, g *dg.Giveaway) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g.ID = uuid.NewString()
	m.open[g.ID] = *clone(*g)
	return g.ID, nil
}

func (m *memStore) put(g *dg.Giveaway) *dg.Giveaway {
	_, _ = m.CreateGiveaway(context.Background(), g)
	return g
}

func (m *memStore) GetGiveaway(_ context.Context, id string) (*dg.Giveaway, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.open[id]
	if !ok {
		return nil, dg.ErrNotFound
	}
	return clone(g), nil
}

func (m *memStore) GetGiveawayByMessage(_ context.Context, messageID string) (*dg.Giveaway, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.open {
		if g.MessageID == messageID {
			return clone(g), nil
		}
	}
	return nil, dg.ErrNotFound
}

func (m *memStore) ListOpenGiveaways(context.Context) ([]*dg.Giveaway, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*dg.Giveaway, 0, len(m.open))
	for _, g := range m.open {
		out = append(out, clone(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndsAt.Before(out[j].EndsAt) })
	return out, nil
}

func (m *memStore) UpdateParticipants(_ context.Context, messageID string, p dg.Participants) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, g := range m.open {
		if g.MessageID == messageID {
			g.Participants = append(dg.Participants{}, p...)
			m.open[id] = g
			return nil
		}
	}
	return dg.ErrNotFound
}

func (m *memStore) DeleteGiveaway(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.open, id)
	return nil
}

func (m *memStore) RetireGiveaway(_ context.Context, r *dg.Resolved) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, *r)
	delete(m.open, r.ID)
	return nil
}

func (m *memStore) LatestResolved(_ context.Context, guildID string) (*dg.Resolved, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *dg.Resolved
	for i := range m.history {
		h := m.history[i]
		if h.GuildID == guildID && (best == nil || h.EndsAt.After(best.EndsAt)) {
			best = &h
		}
	}
	if best == nil {
		return nil, dg.ErrNotFound
	}
	return best, nil
}

func (m *memStore) PurgeResolvedBefore(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.history[:0]
	var n int64
	for _, h := range m.history {
		if h.ResolvedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, h)
	}
	m.history = kept
	return n, nil
}

func (m *memStore) Ping(context.Context) error { return nil }

func (m *memStore) openCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

func (m *memStore) historyLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

type sent struct {
	ChannelID string
	Text      string
}

type fakeMessenger struct {
	mu sync.Mutex

	missingChannels      map[string]bool
	missingAnnouncements map[string]bool
	channelTimeouts      int
	sendErr              error
	// sendGate, when set, blocks SendMessage until closed; sendEntered is
	// signalled first.
	sendGate    chan struct{}
	sendEntered chan struct{}

	sent   []sent
	edits  []Card
	posted []Card
	nextID int
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{missingChannels: map[string]bool{}, missingAnnouncements: map[string]bool{}}
}

var errTimeout = retry.Transient(errors.New("dial tcp: i/o timeout"))

func (f *fakeMessenger) ResolveChannel(_ context.Context, scope dg.Scope) (*Destination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.channelTimeouts > 0 {
		f.channelTimeouts--
		return nil, errTimeout
	}
	if f.missingChannels[scope.ChannelID] {
		return nil, nil
	}
	return &Destination{GuildID: scope.GuildID, ChannelID: scope.ChannelID}, nil
}

func (f *fakeMessenger) ResolveAnnouncement(_ context.Context, dest *Destination, messageID string) (*Announcement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missingAnnouncements[messageID] {
		return nil, nil
	}
	return &Announcement{ChannelID: dest.ChannelID, MessageID: messageID}, nil
}

func (f *fakeMessenger) SendMessage(_ context.Context, dest *Destination, text string) (string, error) {
	if f.sendGate != nil {
		if f.sendEntered != nil {
			f.sendEntered <- struct{}{}
		}
		<-f.sendGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, sent{ChannelID: dest.ChannelID, Text: text})
	return "reply", nil
}

func (f *fakeMessenger) EditMessage(_ context.Context, _ *Announcement, card Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, card)
	return nil
}

func (f *fakeMessenger) PostAnnouncement(_ context.Context, _ *Destination, card Card) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.posted = append(f.posted, card)
	return "msg-" + strconv.Itoa(f.nextID), nil
}

func (f *fakeMessenger) messages() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...)
}
