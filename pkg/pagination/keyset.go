// Package pagination implements keyset ("seek") pagination over squirrel
// select builders. Rows are ordered by a sort key plus a unique tiebreaker,
// and a page resumes strictly after the (key, id) pair of the last row seen,
// so results are stable without server-side cursors.
package pagination

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/zlagoda/zlagoda-backend/pkg/errors"
)

// Cursor identifies the last row of a page.
type Cursor struct {
	Key string `json:"last_seen"`
	ID  string `json:"last_seen_id"`
}

// Request asks for one page. After is nil for the first page.
type Request struct {
	Size  int
	After *Cursor
}

// Page is one slice of a keyset listing.
type Page[T any] struct {
	Content       []T     `json:"content"`
	TotalElements int64   `json:"total_elements"`
	HasNext       bool    `json:"has_next"`
	PageSize      int     `json:"page_size"`
	Next          *Cursor `json:"next,omitempty"`
}

// Limits bounds the page size callers may request.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits matches the service defaults.
var DefaultLimits = Limits{Default: 20, Max: 100}

// Size validates a requested page size. Zero means "not given" and yields the
// default; negative sizes are rejected; anything above Max is capped.
func (l Limits) Size(requested int) (int, error) {
	switch {
	case requested == 0:
		return l.Default, nil
	case requested < 0:
		return 0, errors.InvalidParameter("size", "must be positive")
	case requested > l.Max:
		return l.Max, nil
	default:
		return requested, nil
	}
}

// Kind is the column type of a keyset column. Cursor values arrive as text
// and are checked against it before they reach the database.
type Kind int

const (
	KindText Kind = iota
	KindInteger
)

// Keyset names the ordering columns. Key is the sort column, ID the unique
// tiebreaker. Both may be qualified ("p.product_name"). ID is left empty when
// Key is unique on its own; the cursor ID is then ignored.
type Keyset struct {
	Key     string
	ID      string
	KeyKind Kind
	IDKind  Kind
}

// args validates c against the column kinds and returns the values to bind.
func (ks Keyset) args(c *Cursor) ([]interface{}, error) {
	key, err := bind("last_seen", c.Key, ks.KeyKind)
	if err != nil {
		return nil, err
	}
	if ks.ID == "" {
		return []interface{}{key}, nil
	}
	id, err := bind("last_seen_id", c.ID, ks.IDKind)
	if err != nil {
		return nil, err
	}
	return []interface{}{key, id}, nil
}

func bind(field, value string, kind Kind) (interface{}, error) {
	if kind != KindInteger {
		return value, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, errors.InvalidParameter(field, "must be an integer")
	}
	return n, nil
}

// Fetch runs a keyset page query for base and a COUNT over the same filter.
// The cursor and limit never reach the count. cursorOf extracts the cursor of
// a row and is used to build Page.Next.
//
// HasNext comes from reading one row past the page rather than from the
// total, so the last page never advertises a next page.
func Fetch[T any](
	ctx context.Context,
	q sqlx.QueryerContext,
	builder squirrel.StatementBuilderType,
	base squirrel.SelectBuilder,
	ks Keyset,
	req Request,
	cursorOf func(T) Cursor,
) (Page[T], error) {
	if req.Size <= 0 {
		return Page[T]{}, errors.InvalidParameter("size", "must be positive")
	}

	rowsQ := base.Limit(uint64(req.Size) + 1)
	if ks.ID == "" {
		rowsQ = rowsQ.OrderBy(ks.Key + " ASC")
	} else {
		rowsQ = rowsQ.OrderBy(ks.Key+" ASC", ks.ID+" ASC")
	}

	if req.After != nil {
		args, err := ks.args(req.After)
		if err != nil {
			return Page[T]{}, err
		}
		if ks.ID == "" {
			rowsQ = rowsQ.Where(squirrel.Expr(ks.Key+" > ?", args...))
		} else {
			rowsQ = rowsQ.Where(squirrel.Expr(
				fmt.Sprintf("(%s, %s) > (?, ?)", ks.Key, ks.ID), args...,
			))
		}
	}

	query, args, err := rowsQ.ToSql()
	if err != nil {
		return Page[T]{}, fmt.Errorf("build page query: %w", err)
	}

	content := make([]T, 0, req.Size+1)
	if err := sqlx.SelectContext(ctx, q, &content, query, args...); err != nil {
		return Page[T]{}, fmt.Errorf("select page: %w", err)
	}

	countQuery, countArgs, err := builder.Select("COUNT(*)").FromSelect(base, "sub").ToSql()
	if err != nil {
		return Page[T]{}, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	if err := sqlx.GetContext(ctx, q, &total, countQuery, countArgs...); err != nil {
		return Page[T]{}, fmt.Errorf("count page: %w", err)
	}

	page := Page[T]{
		TotalElements: total,
		PageSize:      req.Size,
	}
	if len(content) > req.Size {
		content = content[:req.Size]
		page.HasNext = true
		next := cursorOf(content[len(content)-1])
		page.Next = &next
	}
	page.Content = content

	return page, nil
}
