package giveaway

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dg "github.com/open-builders/giveaway-bot/internal/domain/giveaway"
	"github.com/open-builders/giveaway-bot/internal/utils/retry"
)

var testNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, store *memStore, msg *fakeMessenger) *Service {
	t.Helper()
	s := New(store, msg, nil, Options{
		Retry:         retry.Policy{Attempts: 3, BaseDelay: time.Millisecond},
		SweepInterval: time.Hour,
		Now:           func() time.Time { return testNow },
	})
	t.Cleanup(s.Stop)
	return s
}

func record(participants []string, winners int, endsAt time.Time) *dg.Giveaway {
	return &dg.Giveaway{
		GuildID:         "guild",
		ChannelID:       "chan",
		MessageID:       "msg-" + endsAt.Format("150405.000"),
		Prize:           "Nitro",
		DurationMinutes: 10,
		WinnerCount:     winners,
		Conditions:      dg.DefaultConditions,
		EndsAt:          endsAt,
		Participants:    dg.NewParticipants(participants),
		CreatedAt:       endsAt.Add(-10 * time.Minute),
	}
}

func TestStartGiveaway_Defaults(t *testing.T) {
	store, msg := newMemStore(), newFakeMessenger()
	s := newTestService(t, store, msg)

	g, err := s.StartGiveaway(context.Background(), dg.NewGiveaway{
		Scope:           dg.Scope{GuildID: "guild", ChannelID: "chan"},
		Prize:           "Nitro",
		DurationMinutes: 10,
		WinnerCount:     2,
	})
	require.NoError(t, err)

	stored, err := store.GetGiveaway(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, dg.DefaultConditions, stored.Conditions)
	assert.Equal(t, testNow.Add(10*time.Minute), stored.EndsAt)
	assert.Empty(t, stored.Participants)
	assert.Equal(t, "msg-1", stored.MessageID)
	assert.Equal(t, 1, s.Armed())

	require.Len(t, msg.posted, 1)
	assert.Contains(t, msg.posted[0].Description, "**Participants:** 0")
	assert.Contains(t, msg.posted[0].Description, "**Conditions:** No conditions")
}

func TestStartGiveaway_Rejects(t *testing.T) {
	store, msg := newMemStore(), newFakeMessenger()
	s := newTestService(t, store, msg)
	scope := dg.Scope{GuildID: "guild", ChannelID: "chan"}

	_, err := s.StartGiveaway(context.Background(), dg.NewGiveaway{Scope: scope, Prize: "x", DurationMinutes: 0, WinnerCount: 1})
	assert.ErrorIs(t, err, dg.ErrInvalidDuration)

	_, err = s.StartGiveaway(context.Background(), dg.NewGiveaway{Scope: scope, Prize: "x", DurationMinutes: 1, WinnerCount: -1})
	assert.ErrorIs(t, err, dg.ErrInvalidWinners)

	msg.missingChannels["chan"] = true
	_, err = s.StartGiveaway(context.Background(), dg.NewGiveaway{Scope: scope, Prize: "x", DurationMinutes: 1, WinnerCount: 1})
	assert.ErrorIs(t, err, ErrChannelNotFound)
	assert.Zero(t, store.openCount())
}

func TestResolve_IsIdempotent(t *testing.T) {
	store, msg := newMemStore(), newFakeMessenger()
	s := newTestService(t, store, msg)
	g := store.put(record([]string{"a", "b", "c"}, 1, testNow.Add(-time.Minute)))

	require.NoError(t, s.Resolve(context.Background(), g.ID))
	require.NoError(t, s.Resolve(context.Background(), g.ID))

	assert.Len(t, msg.messages(), 1, "second resolve must not announce again")
	assert.Equal(t, 1, store.historyLen())
	assert.Zero(t, store.openCount())
}

func TestResolve_DrawSize(t *testing.T) {
	tests := []struct {
		name         string
		participants []string
		winners      int
		want         int
	}{
		{"fewer winners than participants", []string{"a", "b", "c", "d"}, 2, 2},
		{"more winners than participants", []string{"a", "b"}, 5, 2},
		{"exact", []string{"a", "b", "c"}, 3, 3},
		{"no participants", nil, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, msg := newMemStore(), newFakeMessenger()
			s := newTestService(t, store, msg)
			g := store.put(record(tt.participants, tt.winners, testNow))

			require.NoError(t, s.Resolve(context.Background(), g.ID))

			res, err := store.LatestResolved(context.Background(), "guild")
			require.NoError(t, err)
			require.Len(t, res.Winners, tt.want)
			seen := map[string]bool{}
			for _, w := range res.Winners {
				assert.Contains(t, tt.participants, w)
				assert.False(t, seen[w], "winners are distinct")
				seen[w] = true
			}

			out := msg.messages()
			require.Len(t, out, 1)
			if tt.want == 0 {
				assert.Contains(t, out[0].Text, "no participants")
			} else {
				assert.Equal(t, tt.want, strings.Count(out[0].Text, "<@"))
			}
		})
	}
}

func TestResolve_FiveWinnersTwoParticipants(t *testing.T) {
	store, msg := newMemStore(), newFakeMessenger()
	s := newTestService(t, store, msg)
	g := store.put(record([]string{"u1", "u2"}, 5, testNow))

	require.NoError(t, s.Resolve(context.Background(), g.ID))

	res, err := store.LatestResolved(context.Background(), "guild")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, res.Winners)
	text := msg.messages()[0].Text
	assert.Contains(t, text, "<@u1>")
	assert.Contains(t, text, "<@u2>")
	assert.Equal(t, 2, strings.Count(text, "<@"))
}

func TestResolve_MissingTargetsCleanUp(t *testing.T) {
	t.Run("channel", func(t *testing.T) {
		store, msg := newMemStore(), newFakeMessenger()
		msg.missingChannels["chan"] = true
		s := newTestService(t, store, msg)
		g := store.put(record([]string{"a"}, 1, testNow))

		assert.NoError(t, s.Resolve(context.Background(), g.ID))
		assert.Zero(t, store.openCount())
		assert.Zero(t, store.historyLen())
		assert.Empty(t, msg.messages())
	})

	t.Run("announcement", func(t *testing.T) {
		store, msg := newMemStore(), newFakeMessenger()
		s := newTestService(t, store, msg)
		g := store.put(record([]string{"a"}, 1, testNow))
		msg.missingAnnouncements[g.MessageID] = true

		assert.NoError(t, s.Resolve(context.Background(), g.ID))
		assert.Zero(t, store.openCount())
		assert.Empty(t, msg.messages())
	})
}

func TestResolve_RetriesTransientLookups(t *testing.T) {
	store, msg := newMemStore(), newFakeMessenger()
	msg.channelTimeouts = 2
	s := newTestService(t, store, msg)
	g := store.put(record([]string{"a"}, 1, testNow))

	require.NoError(t, s.Resolve(context.Background(), g.ID))
	assert.Len(t, msg.messages(), 1)
	assert.Zero(t, store.openCount())
}

func TestResolve_ExhaustedLookupKeepsRecord(t *testing.T) {
	store, msg := newMemStore(), newFakeMessenger()
	msg.channelTimeouts = 10
	s := newTestService(t, store, msg)
	g := store.put(record([]string{"a"}, 1, testNow))

	err := s.Resolve(context.Background(), g.ID)
	assert.Error(t, err)
	assert.True(t, retry.IsTransient(err))
	assert.Equal(t, 1, store.openCount(), "the next sweep retries")
}

func TestResolve_SendFailureStillRetires(t *testing.T) {
	store, msg := newMemStore(), newFakeMessenger()
	msg.sendErr = errors.New("missing permissions")
	s := newTestService(t, store, msg)
	g := store.put(record([]string{"a"}, 1, testNow))

	require.NoError(t, s.Resolve(context.Background(), g.ID))
	assert.Zero(t, store.openCount())
	assert.Equal(t, 1, store.historyLen())
}

func TestReconcileAll(t *testing.T) {
	store, msg := newMemStore(), newFakeMessenger()
	s := newTestService(t, store, msg)
	past := store.put(record([]string{"a"}, 1, testNow.Add(-time.Hour)))
	future := store.put(record([]string{"b"}, 1, testNow.Add(time.Hour)))

	require.NoError(t, s.ReconcileAll(context.Background()))

	_, err := store.GetGiveaway(context.Background(), past.ID)
	assert.ErrorIs(t, err, dg.ErrNotFound, "overdue record resolved without a timer")
	_, err = store.GetGiveaway(context.Background(), future.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, s.Armed())

	// a second sweep re-arms instead of stacking timers
	require.NoError(t, s.ReconcileAll(context.Background()))
	assert.Equal(t, 1, s.Armed())
}

func TestReconcileAll_StoreError(t *testing.T) {
	store, msg := newMemStore(), newFakeMessenger()
	store.listErr = errors.New("connection refused")
	s := newTestService(t, store, msg)

	assert.Error(t, s.ReconcileAll(context.Background()))
}

func TestArm_FiresAtDeadline(t *testing.T) {
	store, msg := newMemStore(), newFakeMessenger()
	s := New(store, msg, nil, Options{Retry: retry.Policy{Attempts: 1}})
	t.Cleanup(s.Stop)

	g := store.put(record([]string{"a"}, 1, time.Now().Add(20*time.Millisecond)))
	s.Arm(g)

	assert.Eventually(t, func() bool { return store.openCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Len(t, msg.messages(), 1)
	assert.Zero(t, s.Armed())
}

func TestStop_CancelsTimers(t *testing.T) {
	store, msg := newMemStore(), newFakeMessenger()
	s := New(store, msg, nil, Options{})

	g := store.put(record([]string{"a"}, 1, time.Now().Add(30*time.Millisecond)))
	s.Arm(g)
	s.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, store.openCount())
	assert.ErrorIs(t, s.Start(context.Background()), ErrStopped)
}

func TestStart_ReconcilesOnBoot(t *testing.T) {
	store, msg := newMemStore(), newFakeMessenger()
	s := newTestService(t, store, msg)
	store.put(record([]string{"a"}, 1, testNow.Add(-time.Minute)))

	require.NoError(t, s.Start(context.Background()))
	assert.Zero(t, store.openCount())
}

func TestSweep_PurgesHistory(t *testing.T) {
	store, msg := newMemStore(), newFakeMessenger()
	s := newTestService(t, store, msg)
	store.history = []dg.Resolved{
		{Giveaway: *record(nil, 1, testNow), ResolvedAt: testNow.Add(-8 * 24 * time.Hour)},
		{Giveaway: *record(nil, 1, testNow), ResolvedAt: testNow.Add(-time.Hour)},
	}

	s.sweep()
	assert.Equal(t, 1, store.historyLen())
}

func TestJoinLeave(t *testing.T) {
	store, msg := newMemStore(), newFakeMessenger()
	s := newTestService(t, store, msg)
	g := store.put(record(nil, 1, testNow.Add(time.Hour)))
	ctx := context.Background()

	for _, u := range []string{"a", "b", "c"} {
		changed, err := s.Join(ctx, g.MessageID, u)
		require.NoError(t, err)
		assert.True(t, changed)
	}
	changed, err := s.Join(ctx, g.MessageID, "a")
	require.NoError(t, err)
	assert.False(t, changed, "joining twice is a no-op")

	changed, err = s.Leave(ctx, g.MessageID, "b")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.Leave(ctx, g.MessageID, "zzz")
	require.NoError(t, err)
	assert.False(t, changed, "leaving as a non-member is a no-op")

	got, err := store.GetGiveaway(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, dg.Participants{"a", "c"}, got.Participants)

	require.Len(t, msg.edits, 4)
	assert.Contains(t, msg.edits[3].Description, "**Participants:** 2")
}

func TestJoin_UnknownMessage(t *testing.T) {
	s := newTestService(t, newMemStore(), newFakeMessenger())
	changed, err := s.Join(context.Background(), "nope", "a")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestJoin_ConcurrentSignalsAreNotLost(t *testing.T) {
	store, msg := newMemStore(), newFakeMessenger()
	s := newTestService(t, store, msg)
	g := store.put(record(nil, 1, testNow.Add(time.Hour)))

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Join(context.Background(), g.MessageID, "user-"+strconv.Itoa(i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := store.GetGiveaway(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Len(t, got.Participants, n)
}

func TestReroll(t *testing.T) {
	store, msg := newMemStore(), newFakeMessenger()
	s := newTestService(t, store, msg)
	ctx := context.Background()

	_, err := s.Reroll(ctx, "guild")
	assert.ErrorIs(t, err, ErrNoHistory)

	older := record([]string{"x"}, 1, testNow.Add(-2*time.Hour))
	newer := record([]string{"a", "b", "c"}, 2, testNow.Add(-time.Hour))
	store.history = []dg.Resolved{{Giveaway: *newer, ResolvedAt: testNow}, {Giveaway: *older, ResolvedAt: testNow}}

	for i := 0; i < 2; i++ {
		res, err := s.Reroll(ctx, "guild")
		require.NoError(t, err)
		assert.Len(t, res.Winners, 2)
		assert.Subset(t, []string{"a", "b", "c"}, res.Winners)
		assert.True(t, strings.HasPrefix(res.Text, "🎉 New winners:"))
	}
	assert.Equal(t, 2, store.historyLen(), "reroll never deletes")
	assert.Len(t, msg.messages(), 2)

	msg.missingChannels["chan"] = true
	_, err = s.Reroll(ctx, "guild")
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestReroll_NoParticipants(t *testing.T) {
	store, msg := newMemStore(), newFakeMessenger()
	s := newTestService(t, store, msg)
	store.history = []dg.Resolved{{Giveaway: *record(nil, 3, testNow), ResolvedAt: testNow}}

	res, err := s.Reroll(context.Background(), "guild")
	require.NoError(t, err)
	assert.Empty(t, res.Winners)
	assert.Contains(t, res.Text, "No participants left")
}
