package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/dsl"
)

func TestSweep_Values(t *testing.T) {
	assert.Equal(t, []float64{0, 25, 50, 75, 100}, Sweep{Min: 0, Max: 100, Steps: 5}.Values())
	assert.Equal(t, []float64{3}, Sweep{Min: 3, Max: 9, Steps: 1}.Values())
}

func TestSensitivity_Utility(t *testing.T) {
	nodes := investTree()
	before := domain.CloneNodes(nodes)

	points, err := Sensitivity(context.Background(), nodes, Sweep{
		NodeID: "loss", Field: FieldUtility, Min: -200, Max: 0, Steps: 3,
	})
	require.NoError(t, err)
	require.Len(t, points, 3)

	want := []float64{-200, -100, 0}
	for i, p := range points {
		assert.Equal(t, want[i], p.Input)
		assert.InDelta(t, 0.6*500+0.4*want[i]-10, p.ExpectedValue, 1e-9)
		assert.Equal(t, "Invest", p.BestChoice)
	}
	assert.Equal(t, before, nodes, "input must not be mutated")
}

func TestSensitivity_CostFlipsDecision(t *testing.T) {
	b := dsl.New()
	b.Add("root").Decision("Buy?")
	b.Add("buy").Chance("Buy").Under("root")
	b.Add("buy-t").Terminal("Own it", 100).Under("buy")
	b.Add("skip").Chance("Skip").Under("root")
	b.Add("skip-t").Terminal("Keep cash", 50).Under("skip")

	points, err := Sensitivity(context.Background(), b.Build(), Sweep{
		NodeID: "buy", Field: FieldCost, Min: 0, Max: 100, Steps: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, "Buy", points[0].BestChoice)
	assert.Equal(t, 100.0, points[0].ExpectedValue)
	assert.Equal(t, "Buy", points[1].BestChoice, "tie at cost 50 goes to the first option")
	assert.Equal(t, "Skip", points[2].BestChoice)
	assert.Equal(t, 50.0, points[2].ExpectedValue)
}

func TestSensitivity_Errors(t *testing.T) {
	ctx := context.Background()
	nodes := investTree()

	_, err := Sensitivity(ctx, nil, Sweep{})
	assert.ErrorIs(t, err, domain.ErrNilInput)

	_, err = Sensitivity(ctx, nodes, Sweep{NodeID: "loss", Field: "probability", Steps: 2})
	assert.ErrorIs(t, err, ErrInvalidSweep)

	_, err = Sensitivity(ctx, nodes, Sweep{NodeID: "loss", Field: FieldCost, Steps: 0})
	assert.ErrorIs(t, err, ErrInvalidSweep)

	_, err = Sensitivity(ctx, nodes, Sweep{NodeID: "loss", Field: FieldCost, Min: 5, Max: 1, Steps: 2})
	assert.ErrorIs(t, err, ErrInvalidSweep)

	_, err = Sensitivity(ctx, nodes, Sweep{NodeID: "invest", Field: FieldUtility, Steps: 2})
	assert.ErrorIs(t, err, ErrInvalidSweep)

	_, err = Sensitivity(ctx, nodes, Sweep{NodeID: "ghost", Field: FieldCost, Steps: 2})
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	bad := investTree()
	bad[4].Probability = domain.Float(0.1)
	_, err = Sensitivity(ctx, bad, Sweep{NodeID: "loss", Field: FieldCost, Steps: 2})
	var rejected *RejectedError
	assert.ErrorAs(t, err, &rejected)
}

func TestSensitivity_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Sensitivity(ctx, investTree(), Sweep{NodeID: "loss", Field: FieldCost, Min: 0, Max: 10, Steps: 50})
	assert.ErrorIs(t, err, context.Canceled)
}
