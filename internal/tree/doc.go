// Package tree provides a generic forest index keyed by opaque string keys.
//
// Nodes live in an arena keyed by their Key. The parent relation is stored
// as a key reference and children are derived from an adjacency index, so a
// node never holds a live pointer to another node. Every parent change walks
// the ancestor chain of the new parent and rejects edges that would close a
// cycle, which keeps recursive walks over descendants finite.
//
// The index carries no domain semantics; callers decide what a node is and
// when the structure changes. It is not safe for concurrent use.
package tree
