/*
Trie is an immutable copy-on-write prefix tree keyed on byte strings.

Every mutation returns a new Trie handle instead of updating in place. The new
version shares all structure with its predecessor except the nodes on the path
from the root to the mutated key, which are freshly cloned. So Put and Remove
clone O(len(key)) nodes, and concurrent readers of an old version never
observe any mutation; readers need no synchronization against other readers.

Nodes are co-owned by all trie versions which reference them. The node graph
is acyclic by construction (parent to child only), so Go's garbage collector
reclaims dead nodes once the last version referencing them is dropped.

Value types are heterogeneous per node: each value node carries a type-erased
payload and Get recovers the concrete type. A lookup with the wrong type
returns absent, not a cast failure. A single payload may be referenced by
arbitrarily many trie versions.

Go methods cannot introduce type parameters, so Get and Put are package-level
generic functions taking the trie as the first argument.
*/
package trie

import "golang.org/x/exp/maps"

// node is one trie node.
// nodes are treated as immutable once published: a node reachable from any
// trie version must never be mutated in place. mutation happens on fresh
// clones on the path from the root.
type node struct {
	// children is mapping from the next key byte to the shared child node
	children map[byte]*node
	// isValueNode indicates the node carries a value
	isValueNode bool
	// value is the type-erased payload, a pointer to the stored value.
	// the concrete type is recovered by Get with a checked type assertion.
	value any
}

// newNode initializes an empty interior node
func newNode() *node {
	return &node{
		children: make(map[byte]*node),
	}
}

// clone returns a shallow copy of the node.
// the children map is copied, the child nodes themselves are shared.
func (n *node) clone() *node {
	return &node{
		children:    maps.Clone(n.children),
		isValueNode: n.isValueNode,
		value:       n.value,
	}
}

// Trie is an immutable handle to one version of the trie.
// the zero value is the empty trie.
type Trie struct {
	root *node
}

// New returns the empty trie
func New() Trie {
	return Trie{}
}

// Get descends from the root following the bytes of key and returns a pointer
// to the value at the terminal node.
// returns nil when the key is absent or the stored value is not of type T.
// the empty key addresses the root itself.
func Get[T any](t Trie, key string) *T {
	n := t.root
	if n == nil {
		return nil
	}
	for i := 0; i < len(key); i++ {
		child, ok := n.children[key[i]]
		if !ok {
			return nil
		}
		n = child
	}
	if !n.isValueNode {
		return nil
	}
	v, ok := n.value.(*T)
	if !ok {
		// the key is present with a value of another type
		return nil
	}
	return v
}

// Put returns a new trie logically equal to t with key mapped to value.
// the terminal node becomes a value node carrying the new value while
// retaining any pre-existing children of the node it replaces.
// intermediate missing path nodes are created as empty interior nodes.
func Put[T any](t Trie, key string, value T) Trie {
	payload := &value

	// the empty key addresses the root itself
	if len(key) == 0 {
		nroot := &node{
			children:    make(map[byte]*node),
			isValueNode: true,
			value:       payload,
		}
		if t.root != nil {
			nroot.children = maps.Clone(t.root.children)
		}
		return Trie{root: nroot}
	}

	var nroot *node
	if t.root == nil {
		nroot = newNode()
	} else {
		nroot = t.root.clone()
	}

	cur := nroot
	for i := 0; i < len(key); i++ {
		b := key[i]
		last := i == len(key)-1

		child, ok := cur.children[b]
		if !ok {
			if last {
				cur.children[b] = &node{
					children:    make(map[byte]*node),
					isValueNode: true,
					value:       payload,
				}
				break
			}
			next := newNode()
			cur.children[b] = next
			cur = next
			continue
		}

		if last {
			// replace the terminal node with a value node keeping its children
			cur.children[b] = &node{
				children:    maps.Clone(child.children),
				isValueNode: true,
				value:       payload,
			}
			break
		}
		nchild := child.clone()
		cur.children[b] = nchild
		cur = nchild
	}
	return Trie{root: nroot}
}

// Remove returns a new trie with key absent.
// when the key is missing or the terminal node is not a value node, the
// original trie is returned unchanged. otherwise the terminal value node is
// demoted to an ordinary interior node bearing the same children, and nodes
// which became both non-value and childless are dropped walking back to the
// root. when the root itself is emptied, the empty trie is returned.
func (t Trie) Remove(key string) Trie {
	if t.root == nil {
		return t
	}

	if len(key) == 0 {
		if !t.root.isValueNode {
			return t
		}
		if len(t.root.children) == 0 {
			return Trie{}
		}
		return Trie{root: &node{children: maps.Clone(t.root.children)}}
	}

	nroot := t.root.clone()
	cur := nroot
	// track remembers the cloned path so dead nodes can be pruned bottom-up
	type step struct {
		parent *node
		b      byte
	}
	track := make([]step, 0, len(key))

	for i := 0; i < len(key); i++ {
		b := key[i]

		child, ok := cur.children[b]
		if !ok {
			// the key is absent. the cloned prefix is dropped with nroot
			return t
		}
		var nchild *node
		if i == len(key)-1 {
			if !child.isValueNode {
				return t
			}
			// demote the terminal value node to an ordinary interior node
			nchild = &node{children: maps.Clone(child.children)}
		} else {
			nchild = child.clone()
		}
		cur.children[b] = nchild
		track = append(track, step{parent: cur, b: b})
		cur = nchild
	}

	// drop nodes which became both non-value and childless
	for i := len(track) - 1; i >= 0; i-- {
		st := track[i]
		child := st.parent.children[st.b]
		if !child.isValueNode && len(child.children) == 0 {
			delete(st.parent.children, st.b)
		}
	}

	if !nroot.isValueNode && len(nroot.children) == 0 {
		return Trie{}
	}
	return Trie{root: nroot}
}
