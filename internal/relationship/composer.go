package relationship

// pair keys the composition table: the connector relationship declared on an
// invitation and the base relationship the inviter holds to a shared member.
type pair struct {
	connector Type
	base      Type
}

// composition maps (connector, base) to the relationship the invitee holds
// to the shared member once the invitation is accepted. Pairs absent from
// the table resolve to Relative; inference is advisory and must never block
// an acceptance.
var composition = map[pair]Type{
	{Spouse, Child}:    StepChild,
	{Spouse, Parent}:   StepParent,
	{Child, Parent}:    Grandparent,
	{Child, Child}:     Grandchild,
	{Parent, Child}:    Sibling,
	{Parent, Parent}:   Grandparent,
	{Sibling, Child}:   NieceNephew,
	{Sibling, Parent}:  AuntUncle,
	{Spouse, Guardian}: Guardian,
}

// Compose infers the relationship an invitee will hold to a shared member,
// given the connector relationship (invitee to inviter) and the base
// relationship (inviter to member). It is total over the vocabulary: every
// input pair yields a value, unknown pairs fall back to Relative, and
// Unresolved is never produced.
func Compose(connector, base Type) Type {
	if !Valid(connector) || !Valid(base) {
		return Relative
	}
	if connector == Unresolved || base == Unresolved {
		return Relative
	}

	// The invitee is the inviter; the inviter's edges carry over unchanged.
	if connector == Self {
		return base
	}

	if derived, ok := composition[pair{connector, base}]; ok {
		return derived
	}

	return Relative
}
