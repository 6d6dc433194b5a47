package expr

// NewDyadic creates a binary operator node.
// Returns an error for an unknown operator, a nil left operand, or a CAST
// whose right operand is not a type-name Literal.
func NewDyadic(left Expression, op Operator, right Expression) (*Dyadic, error) {
	d := &Dyadic{Left: left, Op: op, Right: right}
	if err := checkShallow(d); err != nil {
		return nil, err
	}
	return d, nil
}

// NewCast creates a CAST node that renders as TREAT(left AS typeName).
func NewCast(left Expression, typeName string) (*Dyadic, error) {
	return NewDyadic(left, OpCast, &Literal{Value: typeName})
}

// NewPrimary creates an attribute reference. path may be nil.
func NewPrimary(path Expression, identifier string) (*Primary, error) {
	p := &Primary{Path: path, Identifier: identifier}
	if err := checkShallow(p); err != nil {
		return nil, err
	}
	return p, nil
}

// NewLiteral creates a literal. Construction cannot fail.
func NewLiteral(value any) *Literal {
	return &Literal{Value: value}
}

// NewParameter creates a parameter. Pass NoPosition with a name for a named
// parameter, or an empty name with a position >= 0 for a positional one.
func NewParameter(name string, position int) (*Parameter, error) {
	p := &Parameter{Name: name, Position: position}
	if err := checkShallow(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Named returns a named parameter. The name is not checked; use
// NewParameter or Validate for that.
func Named(name string) *Parameter {
	return &Parameter{Name: name, Position: NoPosition}
}

// Positional returns a positional parameter.
func Positional(position int) *Parameter {
	return &Parameter{Position: position}
}

// NewInvoke creates a function call node. target may be nil.
func NewInvoke(target Expression, operation string, args ...Expression) (*Invoke, error) {
	owned := make([]Expression, len(args))
	copy(owned, args)
	inv := &Invoke{Target: target, Operation: operation, Arguments: owned}
	if err := checkShallow(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// NewVariable creates a bare variable reference.
func NewVariable(identifier string) (*Variable, error) {
	v := &Variable{Identifier: identifier}
	if err := checkShallow(v); err != nil {
		return nil, err
	}
	return v, nil
}

// NewSubquery creates a keyword-prefixed subquery node.
func NewSubquery(keyword string, inner Expression) (*Subquery, error) {
	s := &Subquery{Keyword: keyword, Inner: inner}
	if err := checkShallow(s); err != nil {
		return nil, err
	}
	return s, nil
}
