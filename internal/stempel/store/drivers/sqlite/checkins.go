package sqlite

import (
	"context"
	"database/sql"

	"github.com/vibestempel/stempeld/internal/stempel/domain"
)

type checkinsRepo struct {
	db dbtx
}

// InsertIfAbsent is the whole double-collection defense: one atomic statement
// keyed on UNIQUE(user_id, event_id). Losing the race is not an error, it just
// reports inserted=false. A missing event surfaces as the foreign key failure.
func (r *checkinsRepo) InsertIfAbsent(ctx context.Context, c domain.Checkin) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO checkins (id, user_id, event_id, event_name, collected_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, event_id) DO NOTHING`,
		c.ID, c.UserID, c.EventID, c.EventName, toMillis(c.CollectedAt),
	)
	if err != nil {
		return false, mapConstraint(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *checkinsRepo) ListByUser(ctx context.Context, userID string) ([]domain.Checkin, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, event_id, event_name, collected_at
		FROM checkins
		WHERE user_id = ?
		ORDER BY collected_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	checkins := []domain.Checkin{}
	for rows.Next() {
		var c domain.Checkin
		var collected int64
		if err := rows.Scan(&c.ID, &c.UserID, &c.EventID, &c.EventName, &collected); err != nil {
			return nil, err
		}
		c.CollectedAt = fromMillis(collected)
		checkins = append(checkins, c)
	}
	return checkins, rows.Err()
}

// AggregateByUser derives the leaderboard view. Users without check-ins appear
// with a zero count (a user can exist from a dashboard touch alone).
func (r *checkinsRepo) AggregateByUser(ctx context.Context) ([]domain.UserAggregate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.device_id, u.display_name,
		       COUNT(c.id), MAX(c.collected_at)
		FROM users u
		LEFT JOIN checkins c ON c.user_id = u.id
		GROUP BY u.id, u.device_id, u.display_name
		ORDER BY COUNT(c.id) DESC, u.id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aggregates := []domain.UserAggregate{}
	for rows.Next() {
		var a domain.UserAggregate
		var last sql.NullInt64
		if err := rows.Scan(&a.UserID, &a.DeviceID, &a.DisplayName, &a.CheckinCount, &last); err != nil {
			return nil, err
		}
		if last.Valid {
			t := fromMillis(last.Int64)
			a.LastCheckinAt = &t
		}
		aggregates = append(aggregates, a)
	}
	return aggregates, rows.Err()
}
