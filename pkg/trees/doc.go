/*
Package trees implements tree and node management on top of a ports.TreeStore.

Every mutation is a read-modify-write of one stored tree, so the Manager serialises
mutations per tree ID with reference-counted local locks and, when configured, a
ports.DistributedLocker shared across replicas.
*/
package trees
