package domain

import "testing"

func TestRoleOf(t *testing.T) {
	nodes := []Node{
		{ID: "d", Kind: KindDecision, Name: "Invest?"},
		{ID: "c1", ParentID: "d", Kind: KindChance, Name: "Invest"},
		{ID: "u1", ParentID: "c1", Kind: KindChance, Name: "Market Up", Probability: Float(0.6)},
		{ID: "t1", ParentID: "u1", Kind: KindTerminal, Name: "Gain", Utility: Float(500)},
		{ID: "x", ParentID: "d", Kind: Kind("bogus"), Name: "Odd"},
		{ID: "r", Kind: KindChance, Name: "Root chance"},
	}
	idx := NewIndex(nodes)

	tests := []struct {
		id   string
		want Role
	}{
		{"d", RoleDecision},
		{"c1", RoleChoice},
		{"u1", RoleUncertain},
		{"t1", RoleTerminal},
		{"x", RoleUnknown},
		{"r", RoleUncertain},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			n, ok := idx.Get(tt.id)
			if !ok {
				t.Fatalf("node %q not indexed", tt.id)
			}
			if got := RoleOf(n, idx); got != tt.want {
				t.Errorf("RoleOf(%s) = %s, want %s", tt.id, got, tt.want)
			}
		})
	}
}

func TestRoleOf_FollowsReparenting(t *testing.T) {
	nodes := []Node{
		{ID: "d", Kind: KindDecision},
		{ID: "u", Kind: KindChance},
		{ID: "c", ParentID: "d", Kind: KindChance},
	}
	if got := RoleOf(nodes[2], NewIndex(nodes)); got != RoleChoice {
		t.Fatalf("before move: got %s, want choice", got)
	}

	moved := CloneNodes(nodes)
	moved[2].ParentID = "u"
	if got := RoleOf(moved[2], NewIndex(moved)); got != RoleUncertain {
		t.Errorf("after move: got %s, want uncertain", got)
	}
}
