/*
Package analysis is the decision-tree evaluation engine.

It validates a flat node collection, computes expected values bottom-up from the
single root, and derives presentation data (optimal path, summary) from the result.
Every call is synchronous, stateless and side-effect free on its input, so calls
over different trees may run concurrently without coordination.

# Roles

A Chance node plays one of two roles, derived from its parent on every call:

  - choice: its parent is a Decision. It has no probability of its own; its children
    contribute with their own probability when they are uncertain events, else in full.
  - uncertain event: any other Chance node. Its probability is consumed by its parent;
    its children contribute with their own probability, or an equal 1/n share.

# Usage

	res, err := analysis.Evaluate(nodes)
	var rejected *analysis.RejectedError
	if errors.As(err, &rejected) {
		for _, issue := range rejected.Report.Errors {
			fmt.Println(issue)
		}
		return
	}
	fmt.Printf("EV = %.2f\n", res.ExpectedValue)
	for _, step := range analysis.OptimalPath(res) {
		fmt.Println(step)
	}
*/
package analysis
