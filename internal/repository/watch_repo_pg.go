package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/railwatch/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WatchRepository interface {
	Save(ctx context.Context, w *domain.Watch) error
	Delete(ctx context.Context, chatID, id int64) error
	ListActive(ctx context.Context) ([]*domain.Watch, error)
}

type PGWatchRepository struct {
	db *pgxpool.Pool
}

func NewWatchRepository(db *pgxpool.Pool) WatchRepository {
	return &PGWatchRepository{db: db}
}

func (r *PGWatchRepository) Save(ctx context.Context, w *domain.Watch) error {
	var onlyBottom, onlyTop, excludeSide, sameCompartment bool
	if w.Query.Seats != nil {
		onlyBottom = w.Query.Seats.OnlyBottom
		onlyTop = w.Query.Seats.OnlyTop
		excludeSide = w.Query.Seats.ExcludeSide
		sameCompartment = w.Query.Seats.SameCompartment
	}
	_, err := r.db.Exec(ctx, `INSERT INTO watches
		(id, chat_id, from_city, to_city, from_name, to_name, range_start, range_end,
		 max_price, min_tickets, only_bottom, only_top, exclude_side, same_compartment,
		 created_at, deadline)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (id) DO NOTHING`,
		w.ID, w.ChatID, w.Query.From, w.Query.To, w.FromName, w.ToName,
		w.Query.Range.Start, w.Query.Range.End, w.Query.MaxPrice, w.Query.MinTickets,
		onlyBottom, onlyTop, excludeSide, sameCompartment, w.CreatedAt, w.Deadline)
	return err
}

func (r *PGWatchRepository) Delete(ctx context.Context, chatID, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM watches WHERE id=$1 AND chat_id=$2`, id, chatID)
	return err
}

func (r *PGWatchRepository) ListActive(ctx context.Context) ([]*domain.Watch, error) {
	rows, err := r.db.Query(ctx, `SELECT id, chat_id, from_city, to_city, from_name, to_name,
		range_start, range_end, max_price, min_tickets,
		only_bottom, only_top, exclude_side, same_compartment, created_at, deadline
		FROM watches WHERE deadline > $1 ORDER BY id`, time.Now())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	watches := make([]*domain.Watch, 0)
	for rows.Next() {
		var w domain.Watch
		var seats domain.SeatFilter
		if err := rows.Scan(&w.ID, &w.ChatID, &w.Query.From, &w.Query.To, &w.FromName, &w.ToName,
			&w.Query.Range.Start, &w.Query.Range.End, &w.Query.MaxPrice, &w.Query.MinTickets,
			&seats.OnlyBottom, &seats.OnlyTop, &seats.ExcludeSide, &seats.SameCompartment,
			&w.CreatedAt, &w.Deadline); err != nil {
			return nil, err
		}
		if !seats.Empty() {
			w.Query.Seats = &seats
		}
		watches = append(watches, &w)
	}
	return watches, rows.Err()
}

var _ WatchRepository = (*PGWatchRepository)(nil)
