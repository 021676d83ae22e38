package tree

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNotFound    = errors.New("node not found")
	ErrDuplicate   = errors.New("node already exists")
	ErrInvalidKey  = errors.New("invalid node key")
	ErrHasChildren = errors.New("node still has children")
	ErrCycle       = errors.New("parent cycle")
)

// Node is anything that can be stored in an Index.
type Node interface {
	Key() string
}

// Index is a forest of nodes keyed by Key.
type Index[N Node] struct {
	nodes    map[string]N
	parent   map[string]string
	children map[string]map[string]struct{}
}

// New returns an empty index.
func New[N Node]() *Index[N] {
	return &Index[N]{
		nodes:    make(map[string]N),
		parent:   make(map[string]string),
		children: make(map[string]map[string]struct{}),
	}
}

// Has reports whether key is present.
func (x *Index[N]) Has(key string) bool {
	_, ok := x.nodes[key]
	return ok
}

// Get returns the node stored under key.
func (x *Index[N]) Get(key string) (N, error) {
	n, ok := x.nodes[key]
	if !ok {
		var zero N
		return zero, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return n, nil
}

// Add inserts a root node. It fails if the key is empty or already present.
func (x *Index[N]) Add(n N) error {
	key := n.Key()
	if key == "" {
		return ErrInvalidKey
	}
	if x.Has(key) {
		return fmt.Errorf("%w: %q", ErrDuplicate, key)
	}
	x.nodes[key] = n
	return nil
}

// Remove detaches key from the index. Children must have been moved away
// first.
func (x *Index[N]) Remove(key string) error {
	if !x.Has(key) {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if len(x.children[key]) > 0 {
		return fmt.Errorf("%w: %q has %d", ErrHasChildren, key, len(x.children[key]))
	}
	x.unlink(key)
	delete(x.children, key)
	delete(x.nodes, key)
	return nil
}

// Len returns the number of nodes.
func (x *Index[N]) Len() int {
	return len(x.nodes)
}

// Nodes returns every node ordered by key.
func (x *Index[N]) Nodes() []N {
	keys := make([]string, 0, len(x.nodes))
	for k := range x.nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]N, 0, len(keys))
	for _, k := range keys {
		out = append(out, x.nodes[k])
	}
	return out
}

// SetParent moves child under parent. An empty parent makes child a root.
func (x *Index[N]) SetParent(child, parent string) error {
	if !x.Has(child) {
		return fmt.Errorf("%w: %q", ErrNotFound, child)
	}
	if parent == "" {
		x.unlink(child)
		return nil
	}
	if !x.Has(parent) {
		return fmt.Errorf("%w: %q", ErrNotFound, parent)
	}
	if parent == child {
		return fmt.Errorf("%w: %q cannot be its own parent", ErrCycle, child)
	}
	for cur, ok := x.parent[parent]; ok; cur, ok = x.parent[cur] {
		if cur == child {
			return fmt.Errorf("%w: %q is an ancestor of %q", ErrCycle, child, parent)
		}
	}
	if cur, ok := x.parent[child]; ok && cur == parent {
		return nil
	}
	x.unlink(child)
	x.parent[child] = parent
	set := x.children[parent]
	if set == nil {
		set = make(map[string]struct{})
		x.children[parent] = set
	}
	set[child] = struct{}{}
	return nil
}

// Parent returns the parent key of key, if any.
func (x *Index[N]) Parent(key string) (string, bool) {
	p, ok := x.parent[key]
	return p, ok
}

// Children returns the direct children of key ordered by key.
func (x *Index[N]) Children(key string) []string {
	set := x.children[key]
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Descendants returns every node below key in pre-order, key excluded.
func (x *Index[N]) Descendants(key string) []string {
	var out []string
	var walk func(string)
	walk = func(k string) {
		for _, c := range x.Children(k) {
			out = append(out, c)
			walk(c)
		}
	}
	walk(key)
	return out
}

// Ancestors returns the parent chain of key, nearest first.
func (x *Index[N]) Ancestors(key string) []string {
	var out []string
	for cur, ok := x.parent[key]; ok; cur, ok = x.parent[cur] {
		out = append(out, cur)
	}
	return out
}

// Roots returns the keys of all parentless nodes ordered by key.
func (x *Index[N]) Roots() []string {
	var out []string
	for k := range x.nodes {
		if _, ok := x.parent[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (x *Index[N]) unlink(child string) {
	p, ok := x.parent[child]
	if !ok {
		return
	}
	delete(x.parent, child)
	if set := x.children[p]; set != nil {
		delete(set, child)
		if len(set) == 0 {
			delete(x.children, p)
		}
	}
}
