package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	dg "github.com/open-builders/giveaway-bot/internal/domain/giveaway"
)

// ListsRepository stores the allowlist and the blocked-word list.
type ListsRepository struct {
	db *sql.DB
}

var _ dg.Lists = (*ListsRepository)(nil)

func NewListsRepository(db *sql.DB) *ListsRepository { return &ListsRepository{db: db} }

func (r *ListsRepository) AddAllowed(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO allowlist (user_id) VALUES ($1) ON CONFLICT DO NOTHING`, userID)
	return err
}

func (r *ListsRepository) RemoveAllowed(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM allowlist WHERE user_id=$1`, userID)
	return err
}

func (r *ListsRepository) IsAllowed(ctx context.Context, userID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM allowlist WHERE user_id=$1`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *ListsRepository) ListAllowed(ctx context.Context) ([]string, error) {
	return r.column(ctx, `SELECT user_id FROM allowlist ORDER BY user_id`)
}

// AddBlockedWord stores the word lower-cased; matching is case-insensitive.
func (r *ListsRepository) AddBlockedWord(ctx context.Context, word string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO blocked_words (word) VALUES ($1) ON CONFLICT DO NOTHING`, strings.ToLower(word))
	return err
}

func (r *ListsRepository) RemoveBlockedWord(ctx context.Context, word string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM blocked_words WHERE word=$1`, strings.ToLower(word))
	return err
}

func (r *ListsRepository) ListBlockedWords(ctx context.Context) ([]string, error) {
	return r.column(ctx, `SELECT word FROM blocked_words ORDER BY word`)
}

func (r *ListsRepository) column(ctx context.Context, q string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
