/*
Package canopy computes the expected value of decision trees.

A tree is a flat collection of nodes linked by parent IDs. Decision nodes pick their best
option, Chance nodes either represent an option (when their parent is a decision) or an
uncertain event weighted by its children's probabilities, and Terminal nodes carry payoffs.
Every tree is validated before it is evaluated; a tree with errors is never evaluated.

# Usage

Build a tree, or load one from a store, and evaluate it:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/canopy"
		"github.com/aretw0/canopy/pkg/dsl"
	)

	func main() {
		b := dsl.New()
		b.Add("root").Decision("Invest?").Cost(10)
		b.Add("invest").Chance("Invest").Under("root")
		b.Add("up").Chance("Market Up").Under("invest").Probability(0.6)
		b.Add("gain").Terminal("Gain", 500).Under("up")
		b.Add("down").Chance("Market Down").Under("invest").Probability(0.4)
		b.Add("loss").Terminal("Loss", -100).Under("down")

		eng, err := canopy.New("")
		if err != nil {
			log.Fatal(err)
		}

		res, err := eng.Evaluate(context.Background(), b.Build())
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.ExpectedValue) // 250
	}

Stores live under pkg/adapters (file, loam, redis, memory), the HTTP and MCP transports
under pkg/adapters/http and pkg/adapters/mcp, and tree editing under pkg/trees.
*/
package canopy
