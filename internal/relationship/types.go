package relationship

// Type is a relationship label between a user and a member, drawn from a
// closed vocabulary. New labels require a new constant and, where inference
// should produce them, new composition table rows.
type Type string

const (
	Self        Type = "self"
	Spouse      Type = "spouse"
	Parent      Type = "parent"
	Child       Type = "child"
	Sibling     Type = "sibling"
	Grandparent Type = "grandparent"
	Grandchild  Type = "grandchild"
	StepParent  Type = "step_parent"
	StepChild   Type = "step_child"
	AuntUncle   Type = "aunt_uncle"
	NieceNephew Type = "niece_nephew"
	Guardian    Type = "guardian"
	Ward        Type = "ward"

	// Relative is the non-committal fallback produced when no table row
	// covers a pair. Unresolved is reserved for manual correction and is
	// never produced by composition.
	Relative   Type = "relative"
	Unresolved Type = "unresolved"
)

var all = []Type{
	Self, Spouse, Parent, Child, Sibling,
	Grandparent, Grandchild, StepParent, StepChild,
	AuntUncle, NieceNephew, Guardian, Ward,
	Relative, Unresolved,
}

// All returns every relationship type in the vocabulary.
func All() []Type {
	out := make([]Type, len(all))
	copy(out, all)
	return out
}

// Valid reports whether t belongs to the vocabulary.
func Valid(t Type) bool {
	for _, known := range all {
		if t == known {
			return true
		}
	}
	return false
}

// ValidConnector reports whether t may be declared as the relationship an
// invitee will hold to the inviter. Self cannot describe another person and
// unresolved is reserved for manual correction, so neither is accepted.
func ValidConnector(t Type) bool {
	return Valid(t) && t != Self && t != Unresolved
}

// String returns the wire representation of the type.
func (t Type) String() string {
	return string(t)
}
