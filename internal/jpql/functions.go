package jpql

import (
	"strings"

	"github.com/roach88/jpqlc/internal/expr"
)

// functionRule renders one catalog entry.
type functionRule func(c call) (string, error)

// catalog maps lower-cased operation names to their rendering rule.
// Lookup is always case-insensitive. Populated once in init and read-only
// afterwards.
var catalog map[string]functionRule

func init() {
	catalog = map[string]functionRule{
		"current_date":      keyword("CURRENT_DATE"),
		"current_time":      keyword("CURRENT_TIME"),
		"current_timestamp": keyword("CURRENT_TIMESTAMP"),

		"length":      targetCall("LENGTH", 0, 2),
		"tolowercase": targetCall("LOWER", 0, 0),
		"touppercase": targetCall("UPPER", 0, 0),
		"isempty":     renderIsEmpty,
		"indexof":     targetCall("LOCATE", 1, 1),
		"substring":   targetCall("SUBSTRING", 1, 1),

		"trim":      trim("BOTH"),
		"trimleft":  trim("LEADING"),
		"trimright": trim("TRAILING"),
		"trimend":   trim("TRAILING"),

		"matches":  renderMatches,
		"contains": renderMemberOf,

		"count":    renderCount,
		"coalesce": variadic("COALESCE"),
		"nullif":   variadic("NULLIF"),

		"abs":  unary("ABS"),
		"avg":  unary("AVG"),
		"max":  unary("MAX"),
		"min":  unary("MIN"),
		"sqrt": unary("SQRT"),
		"sum":  unary("SUM"),

		"sql_function": variadic("FUNCTION"),
	}
}

// IsSupportedFunction reports whether operation names a catalog entry.
func IsSupportedFunction(operation string) bool {
	_, ok := catalog[strings.ToLower(operation)]
	return ok
}

func renderInvoke(inv *expr.Invoke) (string, error) {
	rule, ok := catalog[strings.ToLower(inv.Operation)]
	if !ok {
		return "", unsupportedFunction(inv.Operation)
	}
	return rule(call{name: inv.Operation, target: inv.Target, args: inv.Arguments})
}

// call is the view of an Invoke node a rule renders from.
type call struct {
	name   string
	target expr.Expression
	args   []expr.Expression
}

func (c call) renderTarget() (string, error) {
	if expr.IsNil(c.target) {
		return "", malformed(c.name, "requires a target expression")
	}
	return render(c.target)
}

func (c call) renderArg(i int) (string, error) {
	if i >= len(c.args) {
		return "", malformed(c.name, "requires argument %d", i)
	}
	return render(c.args[i])
}

// renderArgs renders arguments [from, to), stopping early if fewer are
// present.
func (c call) renderArgs(from, to int) ([]string, error) {
	if to > len(c.args) {
		to = len(c.args)
	}
	out := make([]string, 0, max(to-from, 0))
	for i := from; i < to; i++ {
		s, err := render(c.args[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// keyword renders a bare keyword, ignoring target and arguments.
func keyword(kw string) functionRule {
	return func(call) (string, error) {
		return kw, nil
	}
}

// targetCall renders NAME(target,arg0,...) with required leading arguments
// and up to optional trailing ones. Arguments beyond required+optional are
// ignored.
func targetCall(name string, required, optional int) functionRule {
	return func(c call) (string, error) {
		target, err := c.renderTarget()
		if err != nil {
			return "", err
		}
		parts := []string{target}
		for i := 0; i < required; i++ {
			arg, err := c.renderArg(i)
			if err != nil {
				return "", err
			}
			parts = append(parts, arg)
		}
		rest, err := c.renderArgs(required, required+optional)
		if err != nil {
			return "", err
		}
		parts = append(parts, rest...)
		return name + "(" + strings.Join(parts, ",") + ")", nil
	}
}

func renderIsEmpty(c call) (string, error) {
	target, err := c.renderTarget()
	if err != nil {
		return "", err
	}
	return target + " IS EMPTY", nil
}

// trim renders TRIM(<spec> target[arg0] FROM target). The target appears on
// both sides of FROM and the trim character follows it directly.
func trim(spec string) functionRule {
	return func(c call) (string, error) {
		target, err := c.renderTarget()
		if err != nil {
			return "", err
		}
		char, err := c.renderArgs(0, 1)
		if err != nil {
			return "", err
		}
		return "TRIM(" + spec + " " + target + strings.Join(char, "") + " FROM " + target + ")", nil
	}
}

func renderMatches(c call) (string, error) {
	target, err := c.renderTarget()
	if err != nil {
		return "", err
	}
	pattern, err := c.renderArg(0)
	if err != nil {
		return "", err
	}
	out := target + " LIKE " + pattern
	escape, err := c.renderArgs(1, 2)
	if err != nil {
		return "", err
	}
	if len(escape) == 1 {
		out += " ESCAPE " + escape[0]
	}
	return out, nil
}

func renderMemberOf(c call) (string, error) {
	target, err := c.renderTarget()
	if err != nil {
		return "", err
	}
	member, err := c.renderArg(0)
	if err != nil {
		return "", err
	}
	return member + " MEMBER OF " + target, nil
}

// renderCount renders COUNT(arg0), or COUNT(DISTINCT x) when arg0 is a
// DISTINCT node over x.
func renderCount(c call) (string, error) {
	if len(c.args) == 0 {
		return "", malformed(c.name, "requires argument 0")
	}
	if d, ok := c.args[0].(*expr.Dyadic); ok && d != nil && d.Op == expr.OpDistinct {
		inner, err := render(d.Left)
		if err != nil {
			return "", err
		}
		return "COUNT(DISTINCT " + inner + ")", nil
	}
	arg, err := c.renderArg(0)
	if err != nil {
		return "", err
	}
	return "COUNT(" + arg + ")", nil
}

// variadic renders NAME(arg0,arg1,...) for any number of arguments.
func variadic(name string) functionRule {
	return func(c call) (string, error) {
		args, err := c.renderArgs(0, len(c.args))
		if err != nil {
			return "", err
		}
		return name + "(" + strings.Join(args, ",") + ")", nil
	}
}

// unary renders NAME(arg0).
func unary(name string) functionRule {
	return func(c call) (string, error) {
		arg, err := c.renderArg(0)
		if err != nil {
			return "", err
		}
		return name + "(" + arg + ")", nil
	}
}
