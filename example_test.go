package canopy_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/dsl"
)

// ExampleNew_memory demonstrates how to use the Engine with an in-memory tree source.
func ExampleNew_memory() {
	b := dsl.New()
	b.Add("root").Decision("Launch?")
	b.Add("launch").Chance("Launch").Under("root")
	b.Add("hit").Chance("Hit").Under("launch").Probability(0.3)
	b.Add("big").Terminal("Big win", 1000).Under("hit")
	b.Add("flop").Chance("Flop").Under("launch").Probability(0.7)
	b.Add("small").Terminal("Small loss", -200).Under("flop")
	b.Add("wait").Chance("Wait").Under("root")
	b.Add("nothing").Terminal("Nothing", 0).Under("wait")

	engine, err := canopy.New("", canopy.WithSource(memory.NewFromTrees(b.Tree("launch", "Launch"))))
	if err != nil {
		log.Fatal(err)
	}

	res, err := engine.EvaluateTree(context.Background(), "launch")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("EV: %.2f\n", res.ExpectedValue)
	path, _ := engine.OptimalPath(context.Background(), b.Build())
	for _, line := range path {
		fmt.Println(line)
	}
	// Output:
	// EV: 160.00
	// Start: Launch? (EV: 160.00)
	//   → Choose: Launch (EV: 160.00)
	//     • Hit (p=0.3, EV: 1000.00)
	//     • Flop (p=0.7, EV: -200.00)
	//     ↳ Follow: Hit (EV: 1000.00)
	//       • Big win (EV: 1000.00)
}
