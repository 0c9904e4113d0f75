package domain

import "errors"

// ErrNilInput is returned when an engine call receives no node collection at all.
// It is distinct from an empty tree, which is a validation error.
var ErrNilInput = errors.New("nil node collection")

// ErrDepthExceeded is returned when a walk descends deeper than the configured limit,
// which only happens on cyclic or pathologically deep input.
var ErrDepthExceeded = errors.New("tree too deep or cyclic")

// ErrTreeNotFound is returned when a tree ID cannot be found in the store.
var ErrTreeNotFound = errors.New("tree not found")

// ErrNodeNotFound is returned when a node ID does not exist in its tree.
var ErrNodeNotFound = errors.New("node not found")

// ErrInvalidParent is returned when a parent reference points outside the tree.
var ErrInvalidParent = errors.New("invalid parent node")

// ErrCircularMove is returned when moving a node under one of its own descendants.
var ErrCircularMove = errors.New("move would create circular reference")

// ErrNonFiniteResult is returned when finite inputs overflow to an infinite or NaN expected value.
var ErrNonFiniteResult = errors.New("expected value is not finite")
