/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing decision trees.

It lets developers describe a tree with a fluent builder instead of hand-writing flat node
records with parent links. Nodes keep the order in which they were added, which is the order
the evaluator uses to break ties.

Example usage:

	b := dsl.New()

	b.Add("root").Decision("Invest?")
	b.Add("invest").Chance("Invest").Under("root").Cost(10)
	b.Add("up").Terminal("Gain", 500).Under("invest").Probability(0.6)
	b.Add("down").Terminal("Loss", -100).Under("invest").Probability(0.4)

	res, err := analysis.Evaluate(b.Build())
*/
package dsl
