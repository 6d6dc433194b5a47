package jpql

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jpqlc/internal/expr"
)

func id(name string) *expr.Primary {
	return &expr.Primary{Identifier: name}
}

func lit(v any) *expr.Literal {
	return &expr.Literal{Value: v}
}

func TestRender_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		tree expr.Expression
		want string
	}{
		{
			name: "greater than",
			tree: &expr.Dyadic{Left: id("age"), Op: expr.OpGt, Right: lit(18)},
			want: "(age > 18)",
		},
		{
			name: "equals null",
			tree: &expr.Dyadic{Left: id("status"), Op: expr.OpEq, Right: lit(nil)},
			want: "(status IS NULL)",
		},
		{
			name: "to lower case",
			tree: &expr.Invoke{Target: id("name"), Operation: "toLowerCase"},
			want: "LOWER(name)",
		},
		{
			name: "count distinct",
			tree: &expr.Invoke{
				Operation: "COUNT",
				Arguments: []expr.Expression{&expr.Dyadic{Left: id("id"), Op: expr.OpDistinct}},
			},
			want: "COUNT(DISTINCT id)",
		},
		{
			name: "positional parameter",
			tree: &expr.Parameter{Position: 1},
			want: "?1",
		},
		{
			name: "named parameter",
			tree: &expr.Parameter{Name: "who", Position: expr.NoPosition},
			want: ":who",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tree)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_Operators(t *testing.T) {
	tests := []struct {
		op   expr.Operator
		want string
	}{
		{expr.OpAnd, "(a AND b)"},
		{expr.OpOr, "(a OR b)"},
		{expr.OpAdd, "(a + b)"},
		{expr.OpSub, "(a - b)"},
		{expr.OpMul, "(a * b)"},
		{expr.OpDiv, "(a / b)"},
		{expr.OpEq, "(a = b)"},
		{expr.OpGt, "(a > b)"},
		{expr.OpLt, "(a < b)"},
		{expr.OpGtEq, "(a >= b)"},
		{expr.OpLtEq, "(a <= b)"},
		{expr.OpNotEq, "(a <> b)"},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			got, err := Render(&expr.Dyadic{Left: id("a"), Op: tt.op, Right: id("b")})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_DyadicMissingRight(t *testing.T) {
	got, err := Render(&expr.Dyadic{Left: id("a"), Op: expr.OpAnd})
	require.NoError(t, err)
	assert.Equal(t, "(a)", got)
}

func TestRender_NullRewriteIgnoresLeftShape(t *testing.T) {
	lefts := []expr.Expression{
		id("x"),
		&expr.Primary{Path: id("p"), Identifier: "manager"},
		&expr.Invoke{Target: id("name"), Operation: "toUpperCase"},
		&expr.Dyadic{Left: id("a"), Op: expr.OpAdd, Right: lit(1)},
		&expr.Parameter{Position: 3},
		lit("text"),
	}

	for _, left := range lefts {
		l, err := Render(left)
		require.NoError(t, err)

		eq, err := Render(&expr.Dyadic{Left: left, Op: expr.OpEq, Right: lit(nil)})
		require.NoError(t, err)
		assert.Equal(t, "("+l+" IS NULL)", eq)

		ne, err := Render(&expr.Dyadic{Left: left, Op: expr.OpNotEq, Right: lit(nil)})
		require.NoError(t, err)
		assert.Equal(t, "("+l+" IS NOT NULL)", ne)
	}
}

func TestRender_NullWithOtherOperators(t *testing.T) {
	got, err := Render(&expr.Dyadic{Left: id("a"), Op: expr.OpGt, Right: lit(nil)})
	require.NoError(t, err)
	assert.Equal(t, "(a > NULL)", got)
}

func TestRender_Cast(t *testing.T) {
	got, err := Render(&expr.Dyadic{
		Left:  &expr.Primary{Path: id("p"), Identifier: "vehicle"},
		Op:    expr.OpCast,
		Right: lit("Car"),
	})
	require.NoError(t, err)
	assert.Equal(t, "TREAT(p.vehicle AS Car)", got)
}

func TestRender_CastWithoutTypeName(t *testing.T) {
	for _, right := range []expr.Expression{nil, lit(""), lit(7), id("Car")} {
		_, err := Render(&expr.Dyadic{Left: id("v"), Op: expr.OpCast, Right: right})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedNode)
	}
}

func TestRender_DistinctOutsideCount(t *testing.T) {
	got, err := Render(&expr.Dyadic{Left: id("name"), Op: expr.OpDistinct})
	require.NoError(t, err)
	assert.Equal(t, "DISTINCT name", got)
}

func TestRender_Primary(t *testing.T) {
	nested := &expr.Primary{
		Path:       &expr.Primary{Path: id("p"), Identifier: "address"},
		Identifier: "city",
	}
	got, err := Render(nested)
	require.NoError(t, err)
	assert.Equal(t, "p.address.city", got)

	path, err := Render(nested.Path)
	require.NoError(t, err)
	assert.Equal(t, path+".city", got)

	got, err = Render(id("f"))
	require.NoError(t, err)
	assert.Equal(t, "f", got)
}

func TestRender_Literals(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "abc", "'abc'"},
		{"embedded quote", "O'Brien", "'O''Brien'"},
		{"char", expr.Char('x'), "'x'"},
		{"true", true, "TRUE"},
		{"false", false, "FALSE"},
		{"int", 42, "42"},
		{"negative int64", int64(-7), "-7"},
		{"float", 2.5, "2.5"},
		{"integral float", 2.0, "2.0"},
		{"negative integral float", -3.0, "-3.0"},
		{"float32", float32(0.1), "0.1"},
		{"exponent float", 1e21, "1e+21"},
		{"null", nil, "NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(lit(tt.value))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_DecimalDivisionKeepsFloat(t *testing.T) {
	got, err := Render(&expr.Dyadic{Left: id("x"), Op: expr.OpDiv, Right: lit(2.0)})
	require.NoError(t, err)
	assert.Equal(t, "(x / 2.0)", got)
}

func TestRender_NonFiniteFloat(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Render(lit(v))
		require.Error(t, err, "value %v", v)
		assert.ErrorIs(t, err, ErrMalformedNode)
		assert.Equal(t, KindMalformedNode, ErrorKind(err))
	}
}

func TestRender_ParameterProperty(t *testing.T) {
	for pos := 0; pos < 50; pos++ {
		got, err := Render(&expr.Parameter{Name: "ignored", Position: pos})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("?%d", pos), got)
	}

	for _, name := range []string{"a", "who", "min_age"} {
		got, err := Render(expr.Named(name))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(got, ":"))
		assert.Equal(t, ":"+name, got)
	}
}

func TestRender_NamedParameterWithoutName(t *testing.T) {
	_, err := Render(&expr.Parameter{Position: expr.NoPosition})
	assert.ErrorIs(t, err, ErrMalformedNode)
}

func TestRender_VariableAndSubquery(t *testing.T) {
	got, err := Render(&expr.Variable{Identifier: "e"})
	require.NoError(t, err)
	assert.Equal(t, "e", got)

	got, err = Render(&expr.Subquery{Keyword: "EXISTS", Inner: &expr.Variable{Identifier: "sub"}})
	require.NoError(t, err)
	assert.Equal(t, "EXISTS sub", got)

	_, err = Render(&expr.Subquery{Inner: id("x")})
	assert.ErrorIs(t, err, ErrMalformedNode)

	_, err = Render(&expr.Variable{})
	assert.ErrorIs(t, err, ErrMalformedNode)
}

type strayNode struct {
	*expr.Variable
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name     string
		tree     expr.Expression
		sentinel error
		kind     string
		subject  string
	}{
		{
			name:     "unknown node type",
			tree:     strayNode{&expr.Variable{Identifier: "x"}},
			sentinel: ErrUnsupportedNodeKind,
			kind:     KindUnsupportedNodeKind,
			subject:  "jpql.strayNode",
		},
		{
			name:     "unknown operator",
			tree:     &expr.Dyadic{Left: id("a"), Op: expr.Operator(99), Right: id("b")},
			sentinel: ErrUnsupportedOperator,
			kind:     KindUnsupportedOperator,
			subject:  "Operator(99)",
		},
		{
			name:     "zero operator",
			tree:     &expr.Dyadic{Left: id("a"), Right: id("b")},
			sentinel: ErrUnsupportedOperator,
			kind:     KindUnsupportedOperator,
			subject:  "Operator(0)",
		},
		{
			name:     "unknown function",
			tree:     &expr.Invoke{Target: id("a"), Operation: "soundex"},
			sentinel: ErrUnsupportedFunction,
			kind:     KindUnsupportedFunction,
			subject:  "soundex",
		},
		{
			name:     "nil expression",
			tree:     nil,
			sentinel: ErrMalformedNode,
			kind:     KindMalformedNode,
			subject:  "expression",
		},
		{
			name:     "empty identifier",
			tree:     &expr.Primary{},
			sentinel: ErrMalformedNode,
			kind:     KindMalformedNode,
			subject:  "path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tree)
			require.Error(t, err)
			assert.Empty(t, got)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.kind, ErrorKind(err))

			var rerr *RenderError
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, tt.subject, rerr.Subject)
		})
	}
}

func TestRender_ErrorInSubtreeAbortsWhole(t *testing.T) {
	tree := &expr.Dyadic{
		Left:  &expr.Dyadic{Left: id("a"), Op: expr.OpGt, Right: lit(1)},
		Op:    expr.OpAnd,
		Right: &expr.Invoke{Target: id("b"), Operation: "nope"},
	}
	got, err := Render(tree)
	assert.Empty(t, got)
	assert.ErrorIs(t, err, ErrUnsupportedFunction)
}

func TestRender_TypedNilChild(t *testing.T) {
	var missing *expr.Primary
	_, err := Render(&expr.Dyadic{Left: missing, Op: expr.OpEq, Right: lit(1)})
	assert.ErrorIs(t, err, ErrMalformedNode)
}

func TestRender_Idempotent(t *testing.T) {
	tree := &expr.Dyadic{
		Left: &expr.Dyadic{
			Left:  &expr.Invoke{Target: &expr.Primary{Path: id("p"), Identifier: "name"}, Operation: "trim"},
			Op:    expr.OpEq,
			Right: expr.Named("name"),
		},
		Op:    expr.OpOr,
		Right: &expr.Dyadic{Left: id("deleted"), Op: expr.OpNotEq, Right: lit(nil)},
	}

	first, err := Render(tree)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Render(tree)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "((TRIM(BOTH p.name FROM p.name) = :name) OR (deleted IS NOT NULL))", first)
}

func TestRender_Concurrent(t *testing.T) {
	tree := &expr.Dyadic{
		Left:  &expr.Invoke{Operation: "coalesce", Arguments: []expr.Expression{id("nick"), lit("anon")}},
		Op:    expr.OpEq,
		Right: &expr.Parameter{Position: 1},
	}
	const want = "(COALESCE(nick,'anon') = ?1)"

	const workers = 16
	results := make(chan string, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			out, err := Render(tree)
			if err != nil {
				errs <- err
				return
			}
			results <- out
		}()
	}

	for i := 0; i < workers; i++ {
		select {
		case err := <-errs:
			t.Fatalf("unexpected error: %v", err)
		case out := <-results:
			assert.Equal(t, want, out)
		}
	}
}

func TestRenderError_Message(t *testing.T) {
	err := unsupportedFunction("soundex")
	assert.Equal(t, "unsupported function: soundex", err.Error())

	err = malformed("CAST", "right operand must be a type-name literal, got %s", "nil")
	assert.Equal(t, "malformed node CAST: right operand must be a type-name literal, got nil", err.Error())
}

func TestErrorKind_NonRenderError(t *testing.T) {
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, "", ErrorKind(errors.New("other")))
	assert.Equal(t, KindUnsupportedOperator, ErrorKind(fmt.Errorf("wrapped: %w", unsupportedOperator("X"))))
}
