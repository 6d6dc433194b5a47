package expr

// CompoundSelection is a multi-valued selection (tuple or array projection).
//
// The item list is fixed at construction; item order corresponds to
// result-tuple positions. It is not itself rendered as one expression: the
// clause assembler renders each item independently and joins them.
type CompoundSelection struct {
	items []Expression
}

// NewCompoundSelection creates a compound selection over items. The slice is
// copied, so later changes to the caller's slice are not observed.
func NewCompoundSelection(items ...Expression) *CompoundSelection {
	owned := make([]Expression, len(items))
	copy(owned, items)
	return &CompoundSelection{items: owned}
}

// Items returns the ordered item list. It is never nil.
func (c *CompoundSelection) Items() []Expression {
	if c == nil {
		return []Expression{}
	}
	out := make([]Expression, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of items.
func (c *CompoundSelection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// IsCompound is always true for CompoundSelection.
func (*CompoundSelection) IsCompound() bool { return true }
