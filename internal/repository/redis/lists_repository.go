package redis

import (
	"context"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	dg "github.com/open-builders/giveaway-bot/internal/domain/giveaway"
)

const (
	keyAllowlist    = "giveaway:allowlist"
	keyBlockedWords = "giveaway:blocked_words"
)

type ListsRepository struct {
	client *redis.Client
}

var _ dg.Lists = (*ListsRepository)(nil)

func NewListsRepository(client *redis.Client) *ListsRepository {
	return &ListsRepository{client: client}
}

func (r *ListsRepository) AddAllowed(ctx context.Context, userID string) error {
	return r.client.SAdd(ctx, keyAllowlist, userID).Err()
}

func (r *ListsRepository) RemoveAllowed(ctx context.Context, userID string) error {
	return r.client.SRem(ctx, keyAllowlist, userID).Err()
}

func (r *ListsRepository) IsAllowed(ctx context.Context, userID string) (bool, error) {
	return r.client.SIsMember(ctx, keyAllowlist, userID).Result()
}

func (r *ListsRepository) ListAllowed(ctx context.Context) ([]string, error) {
	return r.sorted(ctx, keyAllowlist)
}

func (r *ListsRepository) AddBlockedWord(ctx context.Context, word string) error {
	return r.client.SAdd(ctx, keyBlockedWords, strings.ToLower(word)).Err()
}

func (r *ListsRepository) RemoveBlockedWord(ctx context.Context, word string) error {
	return r.client.SRem(ctx, keyBlockedWords, strings.ToLower(word)).Err()
}

func (r *ListsRepository) ListBlockedWords(ctx context.Context) ([]string, error) {
	return r.sorted(ctx, keyBlockedWords)
}

func (r *ListsRepository) sorted(ctx context.Context, key string) ([]string, error) {
	out, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
