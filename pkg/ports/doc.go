/*
Package ports defines the driven ports (interfaces) for the canopy engine.

These interfaces decouple the evaluation core and the tree manager from external
implementations, allowing them to work with various storage backends and tree sources.

# Key Interfaces

  - TreeSource: Read-only access to stored trees (e.g., from Loam or a YAML directory).
  - TreeStore: A TreeSource that can also persist and delete trees (Memory, File, Redis).
  - DistributedLocker: Provides distributed locking for concurrent tree mutations.
  - Evaluator: The engine surface consumed by the HTTP and MCP adapters.
*/
package ports
