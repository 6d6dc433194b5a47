package jpql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jpqlc/internal/expr"
)

func invoke(target expr.Expression, op string, args ...expr.Expression) *expr.Invoke {
	return &expr.Invoke{Target: target, Operation: op, Arguments: args}
}

func TestCatalog(t *testing.T) {
	name := id("name")

	tests := []struct {
		name string
		tree *expr.Invoke
		want string
	}{
		{"current date", invoke(nil, "CURRENT_DATE"), "CURRENT_DATE"},
		{"current time ignores args", invoke(name, "CURRENT_TIME", lit(1)), "CURRENT_TIME"},
		{"current timestamp", invoke(nil, "current_timestamp"), "CURRENT_TIMESTAMP"},

		{"length", invoke(name, "length"), "LENGTH(name)"},
		{"length one arg", invoke(name, "length", lit(1)), "LENGTH(name,1)"},
		{"length two args", invoke(name, "LENGTH", lit(1), lit(2)), "LENGTH(name,1,2)"},
		{"length extra args ignored", invoke(name, "length", lit(1), lit(2), lit(3)), "LENGTH(name,1,2)"},

		{"lower", invoke(name, "toLowerCase"), "LOWER(name)"},
		{"lower any case", invoke(name, "TOLOWERCASE"), "LOWER(name)"},
		{"upper", invoke(name, "toUpperCase"), "UPPER(name)"},
		{"is empty", invoke(&expr.Primary{Path: id("p"), Identifier: "orders"}, "isEmpty"), "p.orders IS EMPTY"},

		{"index of", invoke(name, "indexOf", lit("x")), "LOCATE(name,'x')"},
		{"index of from", invoke(name, "indexOf", lit("x"), lit(3)), "LOCATE(name,'x',3)"},
		{"substring", invoke(name, "substring", lit(2)), "SUBSTRING(name,2)"},
		{"substring length", invoke(name, "substring", lit(2), lit(4)), "SUBSTRING(name,2,4)"},

		{"trim", invoke(name, "trim"), "TRIM(BOTH name FROM name)"},
		{"trim char", invoke(name, "trim", lit(expr.Char('x'))), "TRIM(BOTH name'x' FROM name)"},
		{"trim left", invoke(name, "trimLeft"), "TRIM(LEADING name FROM name)"},
		{"trim right", invoke(name, "trimRight"), "TRIM(TRAILING name FROM name)"},
		{"trim end", invoke(name, "trimEnd", lit(expr.Char(' '))), "TRIM(TRAILING name' ' FROM name)"},

		{"matches", invoke(name, "matches", lit("A%")), "name LIKE 'A%'"},
		{"matches escape", invoke(name, "matches", lit("A\\%%"), lit(expr.Char('\\'))), "name LIKE 'A\\%%' ESCAPE '\\'"},
		{"contains", invoke(&expr.Primary{Path: id("p"), Identifier: "tags"}, "contains", expr.Named("tag")), ":tag MEMBER OF p.tags"},

		{"count", invoke(nil, "COUNT", id("p")), "COUNT(p)"},
		{"count distinct", invoke(nil, "count", &expr.Dyadic{Left: id("id"), Op: expr.OpDistinct}), "COUNT(DISTINCT id)"},
		{"coalesce", invoke(nil, "COALESCE", id("a"), id("b"), lit(0)), "COALESCE(a,b,0)"},
		{"coalesce empty", invoke(nil, "coalesce"), "COALESCE()"},
		{"nullif", invoke(nil, "NULLIF", id("a"), lit("")), "NULLIF(a,'')"},

		{"abs", invoke(nil, "ABS", id("delta")), "ABS(delta)"},
		{"avg", invoke(nil, "avg", id("salary")), "AVG(salary)"},
		{"max", invoke(nil, "Max", id("salary")), "MAX(salary)"},
		{"min", invoke(nil, "MIN", id("salary")), "MIN(salary)"},
		{"sqrt", invoke(nil, "SQRT", id("area")), "SQRT(area)"},
		{"sum", invoke(nil, "SUM", id("total")), "SUM(total)"},

		{"sql function", invoke(nil, "SQL_function", lit("soundex"), name), "FUNCTION('soundex',name)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tree)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog_MissingOperands(t *testing.T) {
	tests := []struct {
		name string
		tree *expr.Invoke
	}{
		{"lower without target", invoke(nil, "toLowerCase")},
		{"index of without search", invoke(id("s"), "indexOf")},
		{"substring without start", invoke(id("s"), "substring")},
		{"matches without pattern", invoke(id("s"), "matches")},
		{"contains without member", invoke(id("s"), "contains")},
		{"is empty without target", invoke(nil, "isEmpty")},
		{"trim without target", invoke(nil, "trim")},
		{"count without argument", invoke(nil, "COUNT")},
		{"sum without argument", invoke(nil, "SUM")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.tree)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedNode)
		})
	}
}

func TestCatalog_ArgumentErrorsPropagate(t *testing.T) {
	_, err := Render(invoke(nil, "COALESCE", id("a"), invoke(nil, "levenshtein")))
	assert.ErrorIs(t, err, ErrUnsupportedFunction)

	_, err = Render(invoke(nil, "COUNT", &expr.Dyadic{Left: &expr.Primary{}, Op: expr.OpDistinct}))
	assert.ErrorIs(t, err, ErrMalformedNode)
}

func TestIsSupportedFunction(t *testing.T) {
	for _, op := range []string{"trim", "TRIM", "toLowerCase", "tolowercase", "sql_function", "CURRENT_DATE"} {
		assert.True(t, IsSupportedFunction(op), op)
	}
	for _, op := range []string{"", "soundex", "lower", "trim "} {
		assert.False(t, IsSupportedFunction(op), op)
	}
}
