// Package pathtree implements a trie over separator-delimited path segments
// with single-segment wildcard matching and parameter capture.
package pathtree

import (
	"strconv"
	"strings"
)

// Wildcard is the reserved token that marks a wildcard segment. A segment
// beginning with this character matches any single literal segment; the text
// after the token names the captured parameter. An unnamed wildcard binds to
// its 1-based segment position.
const Wildcard = '*'

// node is one path segment in the tree. A literal child and the wildcard
// child may coexist at the same level; the literal always wins a match.
type node[V any] struct {
	children map[string]*node[V]

	// wildcard is the single wildcard child, if any.
	wildcard  *node[V]
	paramName string

	value    V
	hasValue bool
}

func (n *node[V]) child(seg string) *node[V] {
	if n.children == nil {
		return nil
	}
	return n.children[seg]
}

func (n *node[V]) addChild(seg string) *node[V] {
	if n.children == nil {
		n.children = make(map[string]*node[V])
	}
	if c, ok := n.children[seg]; ok {
		return c
	}
	c := &node[V]{}
	n.children[seg] = c
	return c
}

func (n *node[V]) addWildcard(name string) *node[V] {
	if n.wildcard == nil {
		n.wildcard = &node[V]{paramName: name}
	}
	return n.wildcard
}

// Tree maps separator-delimited paths to values of type V.
type Tree[V any] struct {
	sep  rune
	root *node[V]
	size int
}

// New creates an empty tree using sep as the segment separator.
func New[V any](sep rune) *Tree[V] {
	return &Tree[V]{sep: sep, root: &node[V]{}}
}

// Len reports the number of stored values.
func (t *Tree[V]) Len() int { return t.size }

// Insert stores v at the terminal node for path, creating intermediate nodes
// as needed. It reports whether the exact terminal node already held a value;
// in that case the previous value is returned and v replaces it.
func (t *Tree[V]) Insert(path string, v V) (prev V, existed bool) {
	cur := t.root
	for i, seg := range t.split(path) {
		if seg[0] == Wildcard {
			name := seg[1:]
			if name == "" {
				name = strconv.Itoa(i + 1)
			}
			cur = cur.addWildcard(name)
		} else {
			cur = cur.addChild(seg)
		}
	}
	prev, existed = cur.value, cur.hasValue
	cur.value = v
	cur.hasValue = true
	if !existed {
		t.size++
	}
	return prev, existed
}

// Match walks path through the tree and returns the stored value at the
// terminal node. At each level a literal child is preferred over the wildcard
// child. Captured wildcard segments are written into params keyed by the
// wildcard's parameter name; params may be nil to skip capture.
func (t *Tree[V]) Match(path string, params map[string]string) (V, bool) {
	return t.root.match(t.split(path), params)
}

func (n *node[V]) match(segments []string, params map[string]string) (V, bool) {
	if len(segments) == 0 {
		if n.hasValue {
			return n.value, true
		}
		var zero V
		return zero, false
	}

	seg, rest := segments[0], segments[1:]

	if c := n.child(seg); c != nil {
		if v, ok := c.match(rest, params); ok {
			return v, ok
		}
	}

	if n.wildcard != nil {
		if v, ok := n.wildcard.match(rest, params); ok {
			if params != nil {
				params[n.wildcard.paramName] = seg
			}
			return v, ok
		}
	}

	var zero V
	return zero, false
}

// Clear removes all stored values and nodes.
func (t *Tree[V]) Clear() {
	t.root = &node[V]{}
	t.size = 0
}

// split decomposes path into its non-empty segments.
func (t *Tree[V]) split(path string) []string {
	path = strings.Trim(path, string(t.sep))
	if path == "" {
		return nil
	}
	parts := strings.Split(path, string(t.sep))
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
