package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dg "github.com/open-builders/giveaway-bot/internal/domain/giveaway"
)

const (
	keyPrefixGiveaway = "giveaway:"
	keyPrefixMessage  = "giveaway:msg:"
	keyPrefixHistory  = "giveaway:history:"
	keyOpenGiveaways  = "giveaways:open"
	keyGuildHistory   = "giveaways:history:guild:"
	keyResolvedIndex  = "giveaways:history:resolved"
)

func giveawayKey(id string) string       { return keyPrefixGiveaway + id }
func messageKey(messageID string) string { return keyPrefixMessage + messageID }
func historyKey(id string) string        { return keyPrefixHistory + id }
func guildHistoryKey(guild string) string {
	return keyGuildHistory + guild
}

// resolvedMember ties an entry of the resolved index back to its guild so
// purging can clean the per-guild set without reading the payload.
func resolvedMember(guildID, id string) string { return guildID + ":" + id }

// GiveawayRepository is the Redis-backed giveaway store. Open giveaways are
// JSON values indexed by message id; history entries are kept per guild in a
// sorted set scored by deadline.
type GiveawayRepository struct {
	client *redis.Client
}

var _ dg.Store = (*GiveawayRepository)(nil)

func NewGiveawayRepository(client *redis.Client) *GiveawayRepository {
	return &GiveawayRepository{client: client}
}

func (r *GiveawayRepository) CreateGiveaway(ctx context.Context, g *dg.Giveaway) (string, error) {
	id := uuid.NewString()
	rec := *g
	rec.ID = id
	if rec.Participants == nil {
		rec.Participants = dg.Participants{}
	}
	data, err := json.Marshal(&rec)
	if err != nil {
		return "", fmt.Errorf("marshal giveaway: %w", err)
	}

	ok, err := r.client.SetNX(ctx, messageKey(g.MessageID), id, 0).Result()
	if err != nil {
		return "", fmt.Errorf("reserve message ref: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("giveaway for message %s already exists", g.MessageID)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, giveawayKey(id), data, 0)
	pipe.SAdd(ctx, keyOpenGiveaways, id)
	if _, err := pipe.Exec(ctx); err != nil {
		r.client.Del(ctx, messageKey(g.MessageID))
		return "", fmt.Errorf("store giveaway: %w", err)
	}

	g.ID = id
	g.Participants = rec.Participants
	return id, nil
}

func (r *GiveawayRepository) GetGiveaway(ctx context.Context, id string) (*dg.Giveaway, error) {
	return r.load(ctx, r.client, id)
}

func (r *GiveawayRepository) GetGiveawayByMessage(ctx context.Context, messageID string) (*dg.Giveaway, error) {
	id, err := r.client.Get(ctx, messageKey(messageID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, dg.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.load(ctx, r.client, id)
}

func (r *GiveawayRepository) load(ctx context.Context, c redis.Cmdable, id string) (*dg.Giveaway, error) {
	data, err := c.Get(ctx, giveawayKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, dg.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var g dg.Giveaway
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode giveaway %s: %w", id, err)
	}
	return &g, nil
}

func (r *GiveawayRepository) ListOpenGiveaways(ctx context.Context) ([]*dg.Giveaway, error) {
	ids, err := r.client.SMembers(ctx, keyOpenGiveaways).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = giveawayKey(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*dg.Giveaway, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			// index entry without payload
			r.client.SRem(ctx, keyOpenGiveaways, ids[i])
			continue
		}
		var g dg.Giveaway
		if err := json.Unmarshal([]byte(s), &g); err != nil {
			return nil, fmt.Errorf("decode giveaway %s: %w", ids[i], err)
		}
		out = append(out, &g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndsAt.Before(out[j].EndsAt) })
	return out, nil
}

// UpdateParticipants replaces the participant list under WATCH so a concurrent
// retire of the same record aborts the write instead of resurrecting it.
func (r *GiveawayRepository) UpdateParticipants(ctx context.Context, messageID string, participants dg.Participants) error {
	id, err := r.client.Get(ctx, messageKey(messageID)).Result()
	if errors.Is(err, redis.Nil) {
		return dg.ErrNotFound
	}
	if err != nil {
		return err
	}

	key := giveawayKey(id)
	return r.client.Watch(ctx, func(tx *redis.Tx) error {
		g, err := r.load(ctx, tx, id)
		if err != nil {
			return err
		}
		g.Participants = participants
		data, err := json.Marshal(g)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}, key)
}

func (r *GiveawayRepository) DeleteGiveaway(ctx context.Context, id string) error {
	g, err := r.load(ctx, r.client, id)
	if errors.Is(err, dg.ErrNotFound) {
		return r.client.SRem(ctx, keyOpenGiveaways, id).Err()
	}
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, giveawayKey(id), messageKey(g.MessageID))
	pipe.SRem(ctx, keyOpenGiveaways, id)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *GiveawayRepository) RetireGiveaway(ctx context.Context, res *dg.Resolved) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	g := res.Giveaway

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, historyKey(g.ID), data, 0)
	pipe.ZAdd(ctx, guildHistoryKey(g.GuildID), redis.Z{Score: float64(g.EndsAt.UnixMilli()), Member: g.ID})
	pipe.ZAdd(ctx, keyResolvedIndex, redis.Z{Score: float64(res.ResolvedAt.UnixMilli()), Member: resolvedMember(g.GuildID, g.ID)})
	pipe.Del(ctx, giveawayKey(g.ID), messageKey(g.MessageID))
	pipe.SRem(ctx, keyOpenGiveaways, g.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("retire giveaway: %w", err)
	}
	return nil
}

func (r *GiveawayRepository) LatestResolved(ctx context.Context, guildID string) (*dg.Resolved, error) {
	ids, err := r.client.ZRevRange(ctx, guildHistoryKey(guildID), 0, 0).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, dg.ErrNotFound
	}
	data, err := r.client.Get(ctx, historyKey(ids[0])).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, dg.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var res dg.Resolved
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", ids[0], err)
	}
	return &res, nil
}

func (r *GiveawayRepository) PurgeResolvedBefore(ctx context.Context, before time.Time) (int64, error) {
	max := fmt.Sprintf("(%d", before.UnixMilli())
	members, err := r.client.ZRangeByScore(ctx, keyResolvedIndex, &redis.ZRangeBy{Min: "-inf", Max: max}).Result()
	if err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}

	pipe := r.client.TxPipeline()
	for _, m := range members {
		guildID, id, ok := strings.Cut(m, ":")
		if !ok {
			pipe.ZRem(ctx, keyResolvedIndex, m)
			continue
		}
		pipe.Del(ctx, historyKey(id))
		pipe.ZRem(ctx, guildHistoryKey(guildID), id)
		pipe.ZRem(ctx, keyResolvedIndex, m)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("purge history: %w", err)
	}
	return int64(len(members)), nil
}

func (r *GiveawayRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
