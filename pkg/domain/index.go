package domain

// Index is an arena over a flat node collection: nodes addressed by ID plus
// a children index derived from parent links. Children keep input order.
// It is built once per call and never mutates the input.
type Index struct {
	nodes    []Node
	byID     map[string]int
	children map[string][]int
	roots    []int

	// Duplicates lists IDs seen more than once; only the first occurrence is indexed.
	Duplicates []string
	// Dangling lists positions of nodes whose ParentID matches no node.
	Dangling []int
}

// NewIndex builds the arena for nodes.
func NewIndex(nodes []Node) *Index {
	idx := &Index{
		nodes:    nodes,
		byID:     make(map[string]int, len(nodes)),
		children: make(map[string][]int, len(nodes)),
	}

	for i, n := range nodes {
		if _, seen := idx.byID[n.ID]; seen {
			idx.Duplicates = append(idx.Duplicates, n.ID)
			continue
		}
		idx.byID[n.ID] = i
	}

	for i, n := range nodes {
		if n.IsRoot() {
			idx.roots = append(idx.roots, i)
			continue
		}
		if _, ok := idx.byID[n.ParentID]; !ok {
			idx.Dangling = append(idx.Dangling, i)
			continue
		}
		idx.children[n.ParentID] = append(idx.children[n.ParentID], i)
	}

	return idx
}

// Len returns the number of nodes in the collection.
func (idx *Index) Len() int {
	return len(idx.nodes)
}

// Nodes returns the underlying collection in input order.
func (idx *Index) Nodes() []Node {
	return idx.nodes
}

// Get returns the node with the given ID.
func (idx *Index) Get(id string) (Node, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return Node{}, false
	}
	return idx.nodes[i], true
}

// Parent returns the parent of n, if it has one in the collection.
func (idx *Index) Parent(n Node) (Node, bool) {
	if n.IsRoot() {
		return Node{}, false
	}
	return idx.Get(n.ParentID)
}

// Children returns the direct children of the node with the given ID, in input order.
func (idx *Index) Children(id string) []Node {
	positions := idx.children[id]
	if len(positions) == 0 {
		return nil
	}
	out := make([]Node, len(positions))
	for i, p := range positions {
		out[i] = idx.nodes[p]
	}
	return out
}

// Roots returns all parentless nodes in input order.
func (idx *Index) Roots() []Node {
	out := make([]Node, len(idx.roots))
	for i, p := range idx.roots {
		out[i] = idx.nodes[p]
	}
	return out
}

// Descendants returns the IDs of every node below id, depth-first.
// Cycles are cut by tracking visited IDs.
func (idx *Index) Descendants(id string) []string {
	var out []string
	visited := map[string]bool{id: true}
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range idx.children[cur] {
			childID := idx.nodes[p].ID
			if visited[childID] {
				continue
			}
			visited[childID] = true
			out = append(out, childID)
			stack = append(stack, childID)
		}
	}
	return out
}

// InCycle reports whether following parent links from n leads back to n.
func (idx *Index) InCycle(n Node) bool {
	seen := map[string]bool{n.ID: true}
	cur := n
	for !cur.IsRoot() {
		parent, ok := idx.Get(cur.ParentID)
		if !ok {
			return false
		}
		if parent.ID == n.ID {
			return true
		}
		if seen[parent.ID] {
			// a cycle above n that does not include n
			return false
		}
		seen[parent.ID] = true
		cur = parent
	}
	return false
}
