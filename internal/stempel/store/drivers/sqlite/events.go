package sqlite

import (
	"context"

	"github.com/vibestempel/stempeld/internal/stempel/domain"
	"github.com/vibestempel/stempeld/internal/stempel/store"
)

type eventsRepo struct {
	db dbtx
}

const eventColumns = `id, name, description, created_by, is_active, created_at`

func (r *eventsRepo) Create(ctx context.Context, e domain.Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (id, name, description, created_by, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Description, e.CreatedBy, e.IsActive, toMillis(e.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *eventsRepo) GetByID(ctx context.Context, id string) (domain.Event, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	return scanEvent(row)
}

func (r *eventsRepo) ListActive(ctx context.Context) ([]domain.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events WHERE is_active = 1 ORDER BY created_at DESC, id`)
}

func (r *eventsRepo) ListAll(ctx context.Context) ([]domain.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at DESC, id`)
}

func (r *eventsRepo) list(ctx context.Context, query string) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventsRepo) SetActive(ctx context.Context, eventID string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET is_active = ? WHERE id = ?`, active, eventID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanEvent(row rowScanner) (domain.Event, error) {
	var e domain.Event
	var created int64
	if err := row.Scan(&e.ID, &e.Name, &e.Description, &e.CreatedBy, &e.IsActive, &created); err != nil {
		return domain.Event{}, mapNotFound(err)
	}
	e.CreatedAt = fromMillis(created)
	return e, nil
}
