package repository

import (
	"context"
	"database/sql"

	"github.com/galerija/exhibition-booking/internal/model"
)

// ExhibitionRepo provides read and admin write access to the exhibitions
// table.  The catalog itself is simple CRUD; the only subtlety is that
// remaining-seat reads here are advisory; the admission decision reads
// capacity again under the booking repository's row lock.
type ExhibitionRepo struct{ DB *sql.DB }

func NewExhibitionRepo(db *sql.DB) *ExhibitionRepo { return &ExhibitionRepo{DB: db} }

const exhibitionCols = "id,slug,title,description,location,starts_on,ends_on,capacity,active,published,created_at,updated_at"

func scanExhibition(row *sql.Row) (*model.Exhibition, error) {
	var e model.Exhibition
	var desc sql.NullString
	err := row.Scan(&e.ID, &e.Slug, &e.Title, &desc, &e.Location,
		&e.StartsOn, &e.EndsOn, &e.Capacity, &e.Active, &e.Published,
		&e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrExhibitionNotFound
	}
	if err != nil {
		return nil, err
	}
	e.Description = desc.String
	return &e, nil
}

// GetByID returns one exhibition or ErrExhibitionNotFound.
func (r *ExhibitionRepo) GetByID(ctx context.Context, id uint64) (*model.Exhibition, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+exhibitionCols+" FROM exhibitions WHERE id=?", id)
	return scanExhibition(row)
}

// ListPublished returns exhibitions visible to the public: published,
// active, newest first.
func (r *ExhibitionRepo) ListPublished(ctx context.Context) ([]model.Exhibition, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+exhibitionCols+" FROM exhibitions WHERE published=1 AND active=1 ORDER BY starts_on DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Exhibition, 0)
	for rows.Next() {
		var e model.Exhibition
		var desc sql.NullString
		if err := rows.Scan(&e.ID, &e.Slug, &e.Title, &desc, &e.Location,
			&e.StartsOn, &e.EndsOn, &e.Capacity, &e.Active, &e.Published,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Description = desc.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// Create inserts a new exhibition and returns its ID.  Admin only;
// authorization happens in the HTTP layer.
func (r *ExhibitionRepo) Create(ctx context.Context, e *model.Exhibition) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO exhibitions (slug, title, description, location, starts_on, ends_on, capacity, active, published)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		e.Slug, e.Title, e.Description, e.Location, e.StartsOn, e.EndsOn, e.Capacity, e.Active, e.Published)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// SetPublished flips the editorial gate.  Returns ErrExhibitionNotFound
// when the row does not exist.
func (r *ExhibitionRepo) SetPublished(ctx context.Context, id uint64, published bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE exhibitions SET published=? WHERE id=?", published, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish missing row from an unchanged flag.
		var one int
		if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM exhibitions WHERE id=?", id).Scan(&one); err == sql.ErrNoRows {
			return ErrExhibitionNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// RemainingSeats computes max(0, capacity - sum of booked seats) outside
// any transaction.  This value is for display only and must never feed
// the admission decision; BookingRepo.Register recomputes it under the
// exhibition row lock.
func (r *ExhibitionRepo) RemainingSeats(ctx context.Context, id uint64) (uint32, error) {
	var capacity, booked uint32
	err := r.DB.QueryRowContext(ctx,
		`SELECT e.capacity, COALESCE(SUM(b.seat_count),0)
		 FROM exhibitions e LEFT JOIN bookings b ON b.exhibition_id = e.id
		 WHERE e.id=? GROUP BY e.capacity`, id).Scan(&capacity, &booked)
	if err == sql.ErrNoRows {
		return 0, ErrExhibitionNotFound
	}
	if err != nil {
		return 0, err
	}
	if booked >= capacity {
		return 0, nil
	}
	return capacity - booked, nil
}
