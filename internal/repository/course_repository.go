package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/openstudent/platform/internal/model"
)

// CourseRepo persists the course catalog.
type CourseRepo struct{ DB *sql.DB }

func NewCourseRepo(db *sql.DB) *CourseRepo { return &CourseRepo{DB: db} }

const courseColumns = `id,title,description,category,price_ngn,price_usd,duration_weeks,
classroom_link,is_active,created_at,updated_at`

// ListActive returns the browsable catalog, newest first.
func (r *CourseRepo) ListActive(ctx context.Context) ([]model.Course, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+courseColumns+" FROM courses WHERE is_active=? ORDER BY created_at DESC, id DESC", true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID fetches one course.
func (r *CourseRepo) GetByID(ctx context.Context, id uint64) (model.Course, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+courseColumns+" FROM courses WHERE id=? LIMIT 1", id)
	var c model.Course
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.PriceNGN, &c.PriceUSD,
		&c.DurationWeeks, &c.ClassroomLink, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Course{}, ErrNotFound
	}
	return c, err
}

// Create inserts a new course and returns its ID.
func (r *CourseRepo) Create(ctx context.Context, c model.Course) (uint64, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO courses (title, description, category, price_ngn, price_usd, duration_weeks,
		 classroom_link, is_active, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		c.Title, c.Description, c.Category, c.PriceNGN, c.PriceUSD, c.DurationWeeks,
		c.ClassroomLink, true, now, now)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites the mutable fields of a course. Returns ErrNotFound when
// the id does not exist.
func (r *CourseRepo) Update(ctx context.Context, c model.Course) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE courses SET title=?, description=?, category=?, price_ngn=?, price_usd=?,
		 duration_weeks=?, classroom_link=?, is_active=?, updated_at=? WHERE id=?`,
		c.Title, c.Description, c.Category, c.PriceNGN, c.PriceUSD,
		c.DurationWeeks, c.ClassroomLink, c.IsActive, time.Now().UTC(), c.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is also 0 for a no-op update; confirm existence.
		if _, err := r.GetByID(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}

func scanCourse(rows *sql.Rows) (model.Course, error) {
	var c model.Course
	err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.PriceNGN, &c.PriceUSD,
		&c.DurationWeeks, &c.ClassroomLink, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
