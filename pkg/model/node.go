package model

import (
	"fmt"
	"sync"

	"github.com/xena-tools/xenamanager-go/pkg/transport"
)

// Object is a domain object that owns a node in the resource tree.
type Object interface {
	Node() *Node
}

// Node is one element of the resource tree.
type Node struct {
	mu sync.RWMutex

	kind    Kind
	address string
	name    string

	parent   *Node
	children []*Node
	object   Object

	// commander is set on chassis nodes only.
	commander transport.Commander
}

// NewRoot creates a session root node.
func NewRoot(name string, object Object) *Node {
	return &Node{kind: KindSession, name: name, object: object}
}

// AddChild creates a child node owned by n. The name must be unique in
// the whole tree.
func (n *Node) AddChild(kind Kind, address, name string, object Object) (*Node, error) {
	if _, err := n.Root().ObjectByName(name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	child := &Node{
		kind:    kind,
		address: address,
		name:    name,
		parent:  n,
		object:  object,
	}

	n.mu.Lock()
	n.children = append(n.children, child)
	n.mu.Unlock()
	return child, nil
}

// Remove detaches n and its subtree from its parent.
func (n *Node) Remove() {
	p := n.parent
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
}

// Kind returns the node kind.
func (n *Node) Kind() Kind {
	return n.kind
}

// Address returns the protocol address relative to the chassis.
func (n *Node) Address() string {
	return n.address
}

// Name returns the session-unique name.
func (n *Node) Name() string {
	return n.name
}

// String returns the node name.
func (n *Node) String() string {
	return n.name
}

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Object returns the domain object that owns the node.
func (n *Node) Object() Object {
	return n.object
}

// Children returns a copy of the direct children in creation order.
func (n *Node) Children() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]*Node(nil), n.children...)
}

// Root returns the root of the tree containing n.
func (n *Node) Root() *Node {
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// Ancestor returns the closest node of the given kind, starting with n
// itself, or nil.
func (n *Node) Ancestor(kind Kind) *Node {
	for c := n; c != nil; c = c.parent {
		if c.kind == kind {
			return c
		}
	}
	return nil
}

// ObjectsByType returns all descendants of the given kind in tree order.
func (n *Node) ObjectsByType(kind Kind) []Object {
	var out []Object
	n.walk(func(d *Node) {
		if d.kind == kind {
			out = append(out, d.object)
		}
	})
	return out
}

// ObjectByName returns the descendant with the given name.
func (n *Node) ObjectByName(name string) (Object, error) {
	var found Object
	n.walk(func(d *Node) {
		if found == nil && d.name == name {
			found = d.object
		}
	})
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return found, nil
}

// walk visits every descendant of n (excluding n) in pre-order.
func (n *Node) walk(fn func(*Node)) {
	for _, c := range n.Children() {
		fn(c)
		c.walk(fn)
	}
}

// SetCommander attaches the connection that carries commands for n and
// its descendants.
func (n *Node) SetCommander(c transport.Commander) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.commander = c
}

// Commander returns the connection of the closest ancestor that has one.
func (n *Node) Commander() (transport.Commander, error) {
	for c := n; c != nil; c = c.parent {
		c.mu.RLock()
		cmd := c.commander
		c.mu.RUnlock()
		if cmd != nil {
			return cmd, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoCommander, n.name)
}
