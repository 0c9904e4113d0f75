package domain

// Role is the positional role of a node, derived from its parent link.
type Role string

const (
	RoleDecision  Role = "decision"
	RoleChoice    Role = "choice"    // Chance node whose parent is a Decision
	RoleUncertain Role = "uncertain" // Chance node with any other parent (or none)
	RoleTerminal  Role = "terminal"
	RoleUnknown   Role = "unknown"
)

// RoleOf derives the role of n from its current parent in idx.
// It must be recomputed on every call; roles are never cached on nodes.
func RoleOf(n Node, idx *Index) Role {
	switch n.Kind {
	case KindDecision:
		return RoleDecision
	case KindTerminal:
		return RoleTerminal
	case KindChance:
		if parent, ok := idx.Parent(n); ok && parent.Kind == KindDecision {
			return RoleChoice
		}
		return RoleUncertain
	default:
		return RoleUnknown
	}
}
