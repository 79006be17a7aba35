package game

import "fmt"

// Loyalty is the side a role belongs to.
type Loyalty string

const (
	Good Loyalty = "GOOD"
	Evil Loyalty = "EVIL"
)

// RoleKind identifies the behavioural family of a role. Servant and Minion
// roles are instantiated multiple times per game (Servant_1, Minion_2, ...);
// every other kind is unique to at most one player.
type RoleKind string

const (
	RoleKindMerlin   RoleKind = "MERLIN"
	RoleKindPercival RoleKind = "PERCIVAL"
	RoleKindServant  RoleKind = "SERVANT"
	RoleKindAssassin RoleKind = "ASSASSIN"
	RoleKindMordred  RoleKind = "MORDRED"
	RoleKindMorgana  RoleKind = "MORGANA"
	RoleKindOberon   RoleKind = "OBERON"
	RoleKindMinion   RoleKind = "MINION"
)

// RoleId uniquely names a role instance within a game, e.g. "MERLIN",
// "SERVANT_1", "MINION_2".
type RoleId string

// Role is a static identity: a per-game id, kind, loyalty, and the
// visibility predicate defined over those fields. Role values are never
// mutated after construction.
type Role struct {
	id      RoleId
	kind    RoleKind
	loyalty Loyalty
}

func newRole(id RoleId, kind RoleKind, loyalty Loyalty) Role {
	return Role{id: id, kind: kind, loyalty: loyalty}
}

// NewServantRole builds the n-th generic good role (n is 1-based).
func NewServantRole(n int) Role {
	return newRole(RoleId(fmt.Sprintf("SERVANT_%d", n)), RoleKindServant, Good)
}

// NewMinionRole builds the n-th generic evil role (n is 1-based).
func NewMinionRole(n int) Role {
	return newRole(RoleId(fmt.Sprintf("MINION_%d", n)), RoleKindMinion, Evil)
}

var (
	MerlinRole   = newRole(RoleId(RoleKindMerlin), RoleKindMerlin, Good)
	PercivalRole = newRole(RoleId(RoleKindPercival), RoleKindPercival, Good)
	AssassinRole = newRole(RoleId(RoleKindAssassin), RoleKindAssassin, Evil)
	MordredRole  = newRole(RoleId(RoleKindMordred), RoleKindMordred, Evil)
	MorganaRole  = newRole(RoleId(RoleKindMorgana), RoleKindMorgana, Evil)
	OberonRole   = newRole(RoleId(RoleKindOberon), RoleKindOberon, Evil)
)

// GetId returns the role's unique identifier within the game.
func (r Role) GetId() RoleId { return r.id }

// GetKind returns the role's behavioural family.
func (r Role) GetKind() RoleKind { return r.kind }

// GetLoyalty returns GOOD or EVIL.
func (r Role) GetLoyalty() Loyalty { return r.loyalty }

// CanSee reports whether the holder of r perceives the holder of other.
// This is a pure function of the two roles' kinds, loyalties and ids (the
// id check keeps an evil role from seeing itself) and is asymmetric: Merlin sees the Assassin, the Assassin
// does not see Merlin.
func (r Role) CanSee(other Role) bool {
	switch {
	case r.kind == RoleKindMerlin:
		return other.loyalty == Evil && other.kind != RoleKindMordred
	case r.kind == RoleKindPercival:
		return other.kind == RoleKindMerlin || other.kind == RoleKindMorgana
	case r.loyalty == Evil && r.kind != RoleKindOberon:
		return other.loyalty == Evil && other.kind != RoleKindOberon && other.id != r.id
	default:
		return false
	}
}

// Serialize returns the snapshot shape of a role: {id, loyalty}.
func (r Role) Serialize() map[string]interface{} {
	return map[string]interface{}{
		"id":      string(r.id),
		"loyalty": string(r.loyalty),
	}
}
