package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	dg "github.com/open-builders/giveaway-bot/internal/domain/giveaway"
)

// GiveawayRepository persists open giveaways and their resolved history.
type GiveawayRepository struct {
	db *sql.DB
}

var _ dg.Store = (*GiveawayRepository)(nil)

func NewGiveawayRepository(db *sql.DB) *GiveawayRepository { return &GiveawayRepository{db: db} }

const giveawayColumns = `id, guild_id, channel_id, message_id, prize, duration_minutes, winner_count, conditions, ends_at, participants, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGiveaway(row rowScanner, extra ...any) (*dg.Giveaway, error) {
	var (
		g     dg.Giveaway
		parts []string
	)
	dest := []any{&g.ID, &g.GuildID, &g.ChannelID, &g.MessageID, &g.Prize, &g.DurationMinutes, &g.WinnerCount, &g.Conditions, &g.EndsAt, pq.Array(&parts), &g.CreatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dg.ErrNotFound
		}
		return nil, err
	}
	g.Participants = dg.NewParticipants(parts)
	return &g, nil
}

// CreateGiveaway inserts g with a fresh UUID and returns it.
func (r *GiveawayRepository) CreateGiveaway(ctx context.Context, g *dg.Giveaway) (string, error) {
	id := uuid.NewString()
	const q = `
	INSERT INTO giveaways (` + giveawayColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	participants := g.Participants
	if participants == nil {
		participants = dg.Participants{}
	}
	_, err := r.db.ExecContext(ctx, q,
		id, g.GuildID, g.ChannelID, g.MessageID, g.Prize, g.DurationMinutes, g.WinnerCount, g.Conditions, g.EndsAt, pq.Array([]string(participants)), g.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert giveaway: %w", err)
	}
	g.ID = id
	g.Participants = participants
	return id, nil
}

// GetGiveaway returns the open giveaway by id or dg.ErrNotFound.
func (r *GiveawayRepository) GetGiveaway(ctx context.Context, id string) (*dg.Giveaway, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, dg.ErrNotFound
	}
	const q = `SELECT ` + giveawayColumns + ` FROM giveaways WHERE id=$1`
	return scanGiveaway(r.db.QueryRowContext(ctx, q, id))
}

// GetGiveawayByMessage looks a giveaway up by its announcement message id.
func (r *GiveawayRepository) GetGiveawayByMessage(ctx context.Context, messageID string) (*dg.Giveaway, error) {
	const q = `SELECT ` + giveawayColumns + ` FROM giveaways WHERE message_id=$1`
	return scanGiveaway(r.db.QueryRowContext(ctx, q, messageID))
}

// ListOpenGiveaways returns every open giveaway, soonest deadline first.
func (r *GiveawayRepository) ListOpenGiveaways(ctx context.Context) ([]*dg.Giveaway, error) {
	const q = `SELECT ` + giveawayColumns + ` FROM giveaways ORDER BY ends_at ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*dg.Giveaway
	for rows.Next() {
		g, err := scanGiveaway(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// UpdateParticipants replaces the participant list of the giveaway announced by messageID.
func (r *GiveawayRepository) UpdateParticipants(ctx context.Context, messageID string, participants dg.Participants) error {
	const q = `UPDATE giveaways SET participants=$2 WHERE message_id=$1`
	res, err := r.db.ExecContext(ctx, q, messageID, pq.Array([]string(participants)))
	if err != nil {
		return fmt.Errorf("update participants: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return dg.ErrNotFound
	}
	return nil
}

// DeleteGiveaway removes an open giveaway; deleting a missing id is not an error.
func (r *GiveawayRepository) DeleteGiveaway(ctx context.Context, id string) error {
	const q = `DELETE FROM giveaways WHERE id=$1`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("delete giveaway: %w", err)
	}
	return nil
}

// RetireGiveaway copies the resolved giveaway into history and deletes it in one transaction.
func (r *GiveawayRepository) RetireGiveaway(ctx context.Context, res *dg.Resolved) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const qHistory = `
	INSERT INTO giveaway_history (` + giveawayColumns + `, winners, resolved_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	ON CONFLICT (id) DO NOTHING`
	g := res.Giveaway
	if _, err = tx.ExecContext(ctx, qHistory,
		g.ID, g.GuildID, g.ChannelID, g.MessageID, g.Prize, g.DurationMinutes, g.WinnerCount, g.Conditions, g.EndsAt,
		pq.Array([]string(g.Participants)), g.CreatedAt, pq.Array(res.Winners), res.ResolvedAt,
	); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM giveaways WHERE id=$1`, g.ID); err != nil {
		return fmt.Errorf("delete giveaway: %w", err)
	}
	return tx.Commit()
}

// LatestResolved returns the most recently ended resolved giveaway of a guild.
func (r *GiveawayRepository) LatestResolved(ctx context.Context, guildID string) (*dg.Resolved, error) {
	const q = `
	SELECT ` + giveawayColumns + `, winners, resolved_at
	FROM giveaway_history WHERE guild_id=$1
	ORDER BY ends_at DESC LIMIT 1`
	var (
		winners    []string
		resolvedAt time.Time
	)
	g, err := scanGiveaway(r.db.QueryRowContext(ctx, q, guildID), pq.Array(&winners), &resolvedAt)
	if err != nil {
		return nil, err
	}
	return &dg.Resolved{Giveaway: *g, Winners: winners, ResolvedAt: resolvedAt}, nil
}

// PurgeResolvedBefore drops history entries resolved before the cutoff.
func (r *GiveawayRepository) PurgeResolvedBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM giveaway_history WHERE resolved_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge history: %w", err)
	}
	return res.RowsAffected()
}

func (r *GiveawayRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
