package repos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
)

const MaxPerPage = 100

// Query is a FROM/JOIN fragment plus WHERE conditions. The page query and
// its count query are both rendered from the same value.
type Query struct {
	From  string
	conds []string
	args  []any
}

func From(from string) *Query { return &Query{From: from} }

// Where adds one AND-ed condition.
func (q *Query) Where(cond string, args ...any) *Query {
	q.conds = append(q.conds, cond)
	q.args = append(q.args, args...)
	return q
}

func (q *Query) where() string {
	if len(q.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.conds, " AND ")
}

// Select renders the data query with ordering and no limit.
func (q *Query) Select(cols, orderBy string) (string, []any) {
	s := "SELECT " + cols + " FROM " + q.From + q.where()
	if orderBy != "" {
		s += " ORDER BY " + orderBy
	}
	return s, q.args
}

// Count renders the matching COUNT(*) query.
func (q *Query) Count() (string, []any) {
	return "SELECT COUNT(*) FROM " + q.From + q.where(), q.args
}

type Page struct {
	Number  int
	PerPage int
}

// NewPage clamps page to >= 1 and perPage to [1, MaxPerPage].
func NewPage(page, perPage int) Page {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Page{Number: page, PerPage: perPage}
}

func (p Page) Offset() int { return (p.Number - 1) * p.PerPage }

type Pagination struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

func NewPagination(p Page, total int) Pagination {
	pages := 0
	if total > 0 {
		pages = (total + p.PerPage - 1) / p.PerPage
	}
	return Pagination{
		Page:       p.Number,
		PerPage:    p.PerPage,
		Total:      total,
		TotalPages: pages,
		HasMore:    p.Number*p.PerPage < total,
	}
}

// paginate loads one page of q into dest and counts all matching rows.
func paginate[T any](ctx context.Context, db sqlx.QueryerContext, q *Query, cols, orderBy string, p Page, dest *[]T) (Pagination, error) {
	var total int
	cs, cargs := q.Count()
	if err := sqlx.GetContext(ctx, db, &total, cs, cargs...); err != nil {
		return Pagination{}, err
	}
	s, args := q.Select(cols, orderBy)
	s += " LIMIT ? OFFSET ?"
	args = append(append([]any{}, args...), p.PerPage, p.Offset())
	if err := sqlx.SelectContext(ctx, db, dest, s, args...); err != nil {
		return Pagination{}, err
	}
	if *dest == nil {
		*dest = []T{}
	}
	return NewPagination(p, total), nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// Contains returns a LIKE pattern matching term literally anywhere; pair it
// with ESCAPE '!'.
func Contains(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
