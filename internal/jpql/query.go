package jpql

import (
	"fmt"
	"strings"

	"github.com/roach88/jpqlc/internal/expr"
)

// RenderSelection renders a SELECT-list entry. A single expression renders
// as itself; a CompoundSelection renders each item independently and joins
// them with ", ". An empty CompoundSelection renders as "".
func RenderSelection(sel expr.Selection) (string, error) {
	switch s := sel.(type) {
	case *expr.CompoundSelection:
		items := s.Items()
		parts := make([]string, 0, len(items))
		for i, item := range items {
			text, err := render(item)
			if err != nil {
				return "", fmt.Errorf("selection item %d: %w", i, err)
			}
			parts = append(parts, text)
		}
		return strings.Join(parts, ", "), nil
	case expr.Expression:
		return render(s)
	case nil:
		return "", malformed("selection", "missing selection")
	default:
		return "", unsupportedNode(fmt.Sprintf("%T", sel))
	}
}

// Root is an entity in the FROM clause, e.g. {Entity: "Person", Alias: "p"}.
type Root struct {
	Entity string
	Alias  string
}

// Order is one ORDER BY item.
type Order struct {
	Expr       expr.Expression
	Descending bool
}

// Query is a complete SELECT statement assembled from independently
// rendered expressions.
//
// Semantics:
//
//	SELECT [DISTINCT] <select> FROM <from> [WHERE <where>]
//	[GROUP BY <group by>] [HAVING <having>] [ORDER BY <order by>]
type Query struct {
	Distinct bool
	Select   expr.Selection
	From     []Root
	Where    expr.Expression // nil = no WHERE clause
	GroupBy  []expr.Expression
	Having   expr.Expression // nil = no HAVING clause
	OrderBy  []Order
}

// RenderQuery assembles a full statement. The renderer stays
// clause-agnostic; this function only concatenates clause keywords around
// per-expression renders.
func RenderQuery(q *Query) (string, error) {
	if q == nil {
		return "", malformed("query", "missing query")
	}

	selectList, err := RenderSelection(q.Select)
	if err != nil {
		return "", fmt.Errorf("select: %w", err)
	}
	if selectList == "" {
		return "", malformed("query", "select list is empty")
	}
	if len(q.From) == 0 {
		return "", malformed("query", "FROM clause requires at least one root")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if q.Distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(selectList)

	roots := make([]string, 0, len(q.From))
	for _, r := range q.From {
		if r.Entity == "" {
			return "", malformed("query", "FROM root has no entity name")
		}
		if r.Alias == "" {
			roots = append(roots, r.Entity)
		} else {
			roots = append(roots, r.Entity+" "+r.Alias)
		}
	}
	b.WriteString(" FROM ")
	b.WriteString(strings.Join(roots, ", "))

	if !expr.IsNil(q.Where) {
		where, err := render(q.Where)
		if err != nil {
			return "", fmt.Errorf("where: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}

	if len(q.GroupBy) > 0 {
		groups, err := renderList(q.GroupBy)
		if err != nil {
			return "", fmt.Errorf("group by: %w", err)
		}
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(groups, ", "))
	}

	if !expr.IsNil(q.Having) {
		having, err := render(q.Having)
		if err != nil {
			return "", fmt.Errorf("having: %w", err)
		}
		b.WriteString(" HAVING ")
		b.WriteString(having)
	}

	if len(q.OrderBy) > 0 {
		orders := make([]string, 0, len(q.OrderBy))
		for _, o := range q.OrderBy {
			text, err := render(o.Expr)
			if err != nil {
				return "", fmt.Errorf("order by: %w", err)
			}
			if o.Descending {
				orders = append(orders, text+" DESC")
			} else {
				orders = append(orders, text+" ASC")
			}
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(orders, ", "))
	}

	return b.String(), nil
}

func renderList(exprs []expr.Expression) ([]string, error) {
	out := make([]string, 0, len(exprs))
	for _, e := range exprs {
		text, err := render(e)
		if err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	return out, nil
}
