package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/openstudent/platform/internal/model"
)

// TourRepo persists the tour catalog.
type TourRepo struct{ DB *sql.DB }

func NewTourRepo(db *sql.DB) *TourRepo { return &TourRepo{DB: db} }

const tourColumns = `id,title,description,location,state,date,price_ngn,price_usd,
max_participants,current_participants,is_active,created_at,updated_at`

// ListActive returns browsable tours, newest first.
func (r *TourRepo) ListActive(ctx context.Context) ([]model.Tour, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+tourColumns+" FROM tours WHERE is_active=? ORDER BY created_at DESC, id DESC", true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Tour
	for rows.Next() {
		var t model.Tour
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Location, &t.State, &t.Date,
			&t.PriceNGN, &t.PriceUSD, &t.MaxParticipants, &t.CurrentParticipants,
			&t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByID fetches one tour.
func (r *TourRepo) GetByID(ctx context.Context, id uint64) (model.Tour, error) {
	var t model.Tour
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+tourColumns+" FROM tours WHERE id=? LIMIT 1", id).
		Scan(&t.ID, &t.Title, &t.Description, &t.Location, &t.State, &t.Date,
			&t.PriceNGN, &t.PriceUSD, &t.MaxParticipants, &t.CurrentParticipants,
			&t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Tour{}, ErrNotFound
	}
	return t, err
}

// Create inserts a new tour and returns its ID.
func (r *TourRepo) Create(ctx context.Context, t model.Tour) (uint64, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO tours (title, description, location, state, date, price_ngn, price_usd,
		 max_participants, current_participants, is_active, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.Title, t.Description, t.Location, t.State, t.Date, t.PriceNGN, t.PriceUSD,
		t.MaxParticipants, 0, true, now, now)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites the mutable fields of a tour.
func (r *TourRepo) Update(ctx context.Context, t model.Tour) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE tours SET title=?, description=?, location=?, state=?, date=?, price_ngn=?,
		 price_usd=?, max_participants=?, is_active=?, updated_at=? WHERE id=?`,
		t.Title, t.Description, t.Location, t.State, t.Date, t.PriceNGN, t.PriceUSD,
		t.MaxParticipants, t.IsActive, time.Now().UTC(), t.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, t.ID); err != nil {
			return err
		}
	}
	return nil
}
