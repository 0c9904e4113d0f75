// Package middleware wraps a ports.TreeStore with at-rest protections:
// AES-GCM encryption of whole trees with key rotation, and masking of
// sensitive node metadata.
package middleware
