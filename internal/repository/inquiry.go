package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/inquiry-intake/internal/model"
	"github.com/deppfellow/inquiry-intake/internal/sqlerr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool the repository needs; pgx.Tx satisfies
// it too.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// InquiryRepository stores inquiries in a single table keyed by id.
type InquiryRepository struct {
	db    DBTX
	table string

	insertSQL string
	selectSQL string
}

// NewInquiryRepository binds the repository to table. The name is quoted,
// so any identifier accepted by config is safe to interpolate.
func NewInquiryRepository(db DBTX, table string) *InquiryRepository {
	quoted := pgx.Identifier{table}.Sanitize()

	return &InquiryRepository{
		db:    db,
		table: table,
		insertSQL: fmt.Sprintf(
			`INSERT INTO %s (id, inquiry_type, inquiry_items) VALUES ($1, $2, $3)`, quoted),
		selectSQL: fmt.Sprintf(
			`SELECT id, inquiry_type, inquiry_items FROM %s WHERE id = $1`, quoted),
	}
}

// Create inserts a new inquiry. A duplicate id surfaces as the driver's
// unique violation; the row is never overwritten.
func (r *InquiryRepository) Create(ctx context.Context, inquiry *model.Inquiry) error {
	items := inquiry.InquiryItems
	if items == nil {
		items = []string{}
	}

	if _, err := r.db.Exec(ctx, r.insertSQL, inquiry.ID, inquiry.InquiryType, items); err != nil {
		return fmt.Errorf("insert inquiry %s: %w", inquiry.ID, err)
	}
	return nil
}

// GetByID loads an inquiry. A missing row is reported as *sqlerr.NotFound
// wrapping pgx.ErrNoRows.
func (r *InquiryRepository) GetByID(ctx context.Context, id string) (*model.Inquiry, error) {
	var inquiry model.Inquiry

	err := r.db.QueryRow(ctx, r.selectSQL, id).
		Scan(&inquiry.ID, &inquiry.InquiryType, &inquiry.InquiryItems)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &sqlerr.NotFound{Table: r.table, Err: err}
		}
		return nil, fmt.Errorf("select inquiry %s: %w", id, err)
	}

	if inquiry.InquiryItems == nil {
		inquiry.InquiryItems = []string{}
	}
	return &inquiry, nil
}
