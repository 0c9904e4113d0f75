package analysis

import (
	"math"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/dsl"
)

// investTree is the decision with a single option that wraps two market outcomes.
func investTree() []domain.Node {
	b := dsl.New()
	b.Add("root").Decision("Invest?").Cost(10)
	b.Add("invest").Chance("Invest").Under("root")
	b.Add("up").Chance("Market Up").Under("invest").Probability(0.6)
	b.Add("gain").Terminal("Gain", 500).Under("up")
	b.Add("down").Chance("Market Down").Under("invest").Probability(0.4)
	b.Add("loss").Terminal("Loss", -100).Under("down")
	return b.Build()
}

func codes(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Code
	}
	return out
}

func posInf() float64 {
	return math.Inf(1)
}
