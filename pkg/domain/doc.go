/*
Package domain contains the core decision-tree model shared by the canopy engine and its adapters.

It defines the fundamental entities of a decision model, such as Nodes, Trees and the
Breakdown produced by an evaluation. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Node: a single element of the tree (Decision, Chance or Terminal), linked to its parent by ID.
  - Tree: the storage aggregate holding the flat node collection of one decision model.
  - Role: the positional role of a node, derived from its parent on every call (never stored).
  - Index: an arena of nodes by ID plus a derived children index, built once per evaluation.
  - Breakdown: the per-node computation trace, carrying a structured Operation record.
*/
package domain
