package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/dsl"
)

func TestValidate_ValidTree(t *testing.T) {
	r := Validate(investTree())
	assert.True(t, r.OK)
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Warnings)
	assert.Equal(t, 6, r.NodeCount)
	assert.Equal(t, 1, r.RootCount)
}

func TestValidate_EmptyTree(t *testing.T) {
	for name, nodes := range map[string][]domain.Node{"nil": nil, "empty": {}} {
		t.Run(name, func(t *testing.T) {
			r := Validate(nodes)
			assert.False(t, r.OK)
			require.Len(t, r.Errors, 1)
			assert.Equal(t, CodeEmptyTree, r.Errors[0].Code)
			assert.Equal(t, "Tree has no nodes", r.Errors[0].Message)
		})
	}
}

func TestValidate_Roots(t *testing.T) {
	twoRoots := func() []domain.Node {
		b := dsl.New()
		b.Add("a").Decision("A")
		b.Add("a1").Terminal("A1", 1).Under("a")
		b.Add("b").Decision("B")
		b.Add("b1").Terminal("B1", 2).Under("b")
		return b.Build()
	}

	t.Run("no root", func(t *testing.T) {
		b := dsl.New()
		b.Add("a").Decision("A").Under("b")
		b.Add("b").Decision("B").Under("a")
		r := Validate(b.Build())
		assert.False(t, r.OK)
		assert.Contains(t, codes(r.Errors), CodeNoRoot)
		assert.Contains(t, codes(r.Errors), CodeCycle)
	})

	t.Run("multiple roots strict", func(t *testing.T) {
		r := Validate(twoRoots())
		assert.False(t, r.OK)
		assert.Contains(t, codes(r.Errors), CodeMultipleRoots)
		assert.Equal(t, 2, r.RootCount)
	})

	t.Run("multiple roots first", func(t *testing.T) {
		r := Validate(twoRoots(), WithRootPolicy(RootPolicyFirst))
		assert.True(t, r.OK)
		assert.Contains(t, codes(r.Warnings), CodeMultipleRoots)
		assert.Equal(t, "a", r.Warnings[0].NodeID)
	})
}

func TestValidate_Terminal(t *testing.T) {
	t.Run("missing utility", func(t *testing.T) {
		nodes := []domain.Node{
			{ID: "r", Kind: domain.KindDecision, Name: "R"},
			{ID: "t", ParentID: "r", Kind: domain.KindTerminal, Name: "T"},
		}
		r := Validate(nodes)
		assert.False(t, r.OK)
		assert.Equal(t, []string{CodeMissingUtility}, codes(r.Errors))
		assert.Equal(t, "Terminal node 'T' is missing utility value", r.Errors[0].Message)
	})

	t.Run("carries probability", func(t *testing.T) {
		b := dsl.New()
		b.Add("r").Decision("R")
		b.Add("t").Terminal("T", 1).Under("r").Probability(1)
		r := Validate(b.Build())
		assert.False(t, r.OK)
		assert.Equal(t, []string{CodeTerminalProb}, codes(r.Errors))
	})

	t.Run("children are a warning", func(t *testing.T) {
		b := dsl.New()
		b.Add("r").Decision("R")
		b.Add("t").Terminal("T", 1).Under("r")
		b.Add("x").Terminal("X", 2).Under("t")
		r := Validate(b.Build())
		assert.True(t, r.OK)
		assert.Contains(t, codes(r.Warnings), CodeTerminalChildren)
	})
}

func TestValidate_ChoiceNode(t *testing.T) {
	b := dsl.New()
	b.Add("r").Decision("R")
	b.Add("c").Chance("C").Under("r").Probability(0.5).Utility(3)
	b.Add("t").Terminal("T", 1).Under("c")
	r := Validate(b.Build())

	assert.True(t, r.OK, "extra fields on a choice only warn")
	assert.Equal(t, []string{CodeIgnoredField, CodeIgnoredField}, codes(r.Warnings))

	childless := dsl.New()
	childless.Add("r").Decision("R")
	childless.Add("c").Chance("C").Under("r")
	r = Validate(childless.Build())
	assert.False(t, r.OK)
	assert.Equal(t, []string{CodeNoChildren}, codes(r.Errors))
}

func TestValidate_UncertainNode(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *dsl.Builder)
		errs  []string
		warns []string
	}{
		{
			name: "missing probability",
			build: func(b *dsl.Builder) {
				b.Add("e").Chance("E").Under("c")
				b.Add("t").Terminal("T", 1).Under("e")
			},
			errs: []string{CodeMissingProbability},
		},
		{
			name: "probability out of range",
			build: func(b *dsl.Builder) {
				b.Add("e").Chance("E").Under("c").Probability(1.5)
				b.Add("t").Terminal("T", 1).Under("e")
			},
			errs: []string{CodeProbabilityRange, CodeProbabilitySum},
		},
		{
			name: "no children",
			build: func(b *dsl.Builder) {
				b.Add("e").Chance("E").Under("c").Probability(1)
			},
			errs: []string{CodeNoChildren},
		},
		{
			name: "utility is a warning",
			build: func(b *dsl.Builder) {
				b.Add("e").Chance("E").Under("c").Probability(1).Utility(4)
				b.Add("t").Terminal("T", 1).Under("e")
			},
			warns: []string{CodeIgnoredField},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := dsl.New()
			b.Add("r").Decision("R")
			b.Add("c").Chance("C").Under("r")
			tt.build(b)

			r := Validate(b.Build())
			assert.Equal(t, len(tt.errs) == 0, r.OK)
			if tt.errs == nil {
				tt.errs = []string{}
			}
			if tt.warns == nil {
				tt.warns = []string{}
			}
			assert.Equal(t, tt.errs, codes(r.Errors))
			assert.Equal(t, tt.warns, codes(r.Warnings))
		})
	}
}

func TestValidate_RootChanceNeedsNoProbability(t *testing.T) {
	b := dsl.New()
	b.Add("r").Chance("Weather")
	b.Add("sun").Terminal("Sun", 10).Under("r").Probability(0.5)
	b.Add("rain").Terminal("Rain", 0).Under("r").Probability(0.5)

	r := Validate(b.Build())
	// Terminals may not carry probabilities; the root itself is not flagged.
	assert.NotContains(t, codes(r.Errors), CodeMissingProbability)
}

func TestValidate_Decision(t *testing.T) {
	b := dsl.New()
	b.Add("r").Decision("R").Probability(0.3).Utility(1)
	b.Add("d").Decision("Nothing to decide").Under("r")
	b.Add("t").Terminal("T", 1).Under("r")

	r := Validate(b.Build())
	assert.True(t, r.OK)
	assert.ElementsMatch(t,
		[]string{CodeIgnoredField, CodeIgnoredField, CodeUnusualChild, CodeEmptyDecision},
		codes(r.Warnings))
}

func TestValidate_SiblingSum(t *testing.T) {
	build := func(p1, p2 float64) []domain.Node {
		b := dsl.New()
		b.Add("r").Decision("R")
		b.Add("c").Chance("C").Under("r")
		b.Add("e1").Chance("E1").Under("c").Probability(p1)
		b.Add("t1").Terminal("T1", 1).Under("e1")
		b.Add("e2").Chance("E2").Under("c").Probability(p2)
		b.Add("t2").Terminal("T2", 2).Under("e2")
		return b.Build()
	}

	t.Run("sum 0.8 rejected", func(t *testing.T) {
		r := Validate(build(0.5, 0.3))
		assert.False(t, r.OK)
		require.Equal(t, []string{CodeProbabilitySum}, codes(r.Errors))
		assert.Equal(t, "c", r.Errors[0].NodeID)
		assert.Equal(t, "Children of 'C' have probabilities that sum to 0.800, should sum to 1.0", r.Errors[0].Message)
	})

	t.Run("sum 0.999 accepted", func(t *testing.T) {
		r := Validate(build(0.7, 0.299))
		assert.True(t, r.OK, r.ErrorMessages())
	})

	t.Run("sum 1.0011 rejected", func(t *testing.T) {
		assert.False(t, Validate(build(0.7, 0.3011)).OK)
	})

	t.Run("sum skipped when a sibling is missing", func(t *testing.T) {
		nodes := build(0.5, 0.3)
		nodes[4].Probability = nil
		r := Validate(nodes)
		assert.Equal(t, []string{CodeMissingProbability}, codes(r.Errors))
	})

	t.Run("choice siblings excluded", func(t *testing.T) {
		b := dsl.New()
		b.Add("r").Decision("R")
		b.Add("a").Chance("A").Under("r")
		b.Add("ta").Terminal("TA", 1).Under("a")
		b.Add("b").Chance("B").Under("r")
		b.Add("tb").Terminal("TB", 2).Under("b")
		assert.True(t, Validate(b.Build()).OK)
	})
}

func TestValidate_StructuralErrors(t *testing.T) {
	t.Run("dangling parent", func(t *testing.T) {
		b := dsl.New()
		b.Add("r").Decision("R")
		b.Add("t").Terminal("T", 1).Under("ghost")
		r := Validate(b.Build())
		assert.Equal(t, []string{CodeInvalidParent}, codes(r.Errors))
		assert.Equal(t, "Node 'T' has invalid parent reference 'ghost'", r.Errors[0].Message)
	})

	t.Run("duplicate id", func(t *testing.T) {
		nodes := []domain.Node{
			{ID: "r", Kind: domain.KindDecision, Name: "R"},
			{ID: "t", ParentID: "r", Kind: domain.KindTerminal, Name: "T", Utility: domain.Float(1)},
			{ID: "t", ParentID: "r", Kind: domain.KindTerminal, Name: "T again", Utility: domain.Float(2)},
		}
		r := Validate(nodes)
		assert.Contains(t, codes(r.Errors), CodeDuplicateID)
	})

	t.Run("unknown kind", func(t *testing.T) {
		b := dsl.New()
		b.Add("r").Decision("R")
		b.Add("x").Kind("oracle").Name("Oracle").Under("r")
		r := Validate(b.Build())
		assert.Equal(t, []string{CodeUnknownKind}, codes(r.Errors))
		assert.Equal(t, "Node 'Oracle' has unrecognized type 'oracle'", r.Errors[0].Message)
	})

	t.Run("non finite", func(t *testing.T) {
		nodes := investTree()
		nodes[0].Cost = posInf()
		r := Validate(nodes)
		assert.Contains(t, codes(r.Errors), CodeNonFinite)
	})
}

func TestValidate_Warnings(t *testing.T) {
	nodes := investTree()
	nodes[1].Cost = -5
	nodes[5].Name = ""

	r := Validate(nodes)
	assert.True(t, r.OK)
	assert.ElementsMatch(t, []string{CodeNegativeCost, CodeEmptyName}, codes(r.Warnings))
	assert.Contains(t, r.WarningMessages(), "Node 'Invest' has negative cost: -5")
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	nodes := investTree()
	before := domain.CloneNodes(nodes)
	Validate(nodes)
	assert.Equal(t, before, nodes)
}

func TestRejectedError(t *testing.T) {
	one := &RejectedError{Report: Report{Errors: []Issue{{Message: "boom"}}}}
	assert.Equal(t, "tree rejected: boom", one.Error())

	two := &RejectedError{Report: Report{Errors: []Issue{{Message: "a"}, {Message: "b"}}}}
	assert.Equal(t, "tree rejected with 2 errors:\n- a\n- b", two.Error())
}
