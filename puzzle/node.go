package puzzle

import "slices"

// Node is a search node: a state, its depth from the initial state, and the
// node it was expanded from. Parents are shared by all of their children,
// and following the parent links from any node leads back to the root.
type Node struct {
	state  *State
	depth  int
	parent *Node
}

// NewNode builds a search node. Ordinarily nodes come from Expand; the
// root has depth 0 and a nil parent.
func NewNode(state *State, depth int, parent *Node) *Node {
	return &Node{state: state, depth: depth, parent: parent}
}

func (n *Node) State() *State {
	return n.state
}

func (n *Node) Depth() int {
	return n.depth
}

// Parent returns the node this node was expanded from, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Expand returns one child per successor state. Duplicates are not removed.
func (n *Node) Expand() []*Node {
	states := n.state.Expand()
	children := make([]*Node, len(states))
	for i, s := range states {
		children[i] = NewNode(s, n.depth+1, n)
	}
	return children
}

// Path returns the states from the root to this node, root first.
func (n *Node) Path() []*State {
	path := make([]*State, 0, n.depth+1)
	for cur := n; cur != nil; cur = cur.parent {
		path = append(path, cur.state)
	}
	slices.Reverse(path)
	return path
}
