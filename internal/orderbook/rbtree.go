package orderbook

// Red-Black Tree Implementation
//
// A red-black tree is a self-balancing binary search tree that guarantees
// O(log n) operations for insert, delete, and search. This is used to
// maintain price levels in sorted order.
//
// Adapted from order-matching-engine's int64-cents keyed tree: prices
// here are model.Price (fixed-precision decimal) rather than scaled
// cents, since the venue's tick size is instrument-dependent and must
// not be assumed to be currency-minor-unit granularity.
//
// Why Red-Black Tree for Order Books:
// - O(log n) insert/delete for adding/removing price levels
// - O(1) access to min/max (best bid/ask) with cached pointers
// - Ordered traversal for depth queries

import "github.com/rishav/algo-engine/internal/model"

type color bool

const (
	red   color = true
	black color = false
)

// rbNode is a node in the red-black tree.
type rbNode struct {
	price  model.Price
	level  *BookLevel
	color  color
	left   *rbNode
	right  *rbNode
	parent *rbNode
}

// RBTree is a red-black tree keyed by price.
type RBTree struct {
	root       *rbNode
	size       int
	minNode    *rbNode // cached for O(1) access
	maxNode    *rbNode // cached for O(1) access
	descending bool    // if true, Best() returns the max instead of the min
}

// NewRBTree creates a new red-black tree.
// If descending is true, Best() returns the maximum value (bids, where
// "best" means highest price).
func NewRBTree(descending bool) *RBTree {
	return &RBTree{descending: descending}
}

func (t *RBTree) Size() int     { return t.size }
func (t *RBTree) IsEmpty() bool { return t.size == 0 }

// Best returns the best price level for this side of the book.
// Time complexity: O(1) due to caching.
func (t *RBTree) Best() *BookLevel {
	if t.descending {
		if t.maxNode == nil {
			return nil
		}
		return t.maxNode.level
	}
	if t.minNode == nil {
		return nil
	}
	return t.minNode.level
}

// Get retrieves the price level at the given price.
// Time complexity: O(log n)
func (t *RBTree) Get(price model.Price) *BookLevel {
	node := t.search(price)
	if node == nil {
		return nil
	}
	return node.level
}

// Insert adds a price level to the tree.
// Time complexity: O(log n)
func (t *RBTree) Insert(level *BookLevel) {
	newNode := &rbNode{price: level.Price, level: level, color: red}

	if t.root == nil {
		newNode.color = black
		t.root = newNode
		t.minNode = newNode
		t.maxNode = newNode
		t.size = 1
		return
	}

	var parent *rbNode
	current := t.root
	for current != nil {
		parent = current
		switch {
		case level.Price.LessThan(current.price):
			current = current.left
		case current.price.LessThan(level.Price):
			current = current.right
		default:
			current.level = level
			return
		}
	}

	newNode.parent = parent
	if level.Price.LessThan(parent.price) {
		parent.left = newNode
	} else {
		parent.right = newNode
	}
	t.size++

	if t.minNode == nil || level.Price.LessThan(t.minNode.price) {
		t.minNode = newNode
	}
	if t.maxNode == nil || t.maxNode.price.LessThan(level.Price) {
		t.maxNode = newNode
	}

	t.insertFixup(newNode)
}

// Delete removes a price level from the tree.
// Time complexity: O(log n)
func (t *RBTree) Delete(price model.Price) {
	node := t.search(price)
	if node == nil {
		return
	}
	t.size--

	if node == t.minNode {
		t.minNode = t.successor(node)
	}
	if node == t.maxNode {
		t.maxNode = t.predecessor(node)
	}

	t.deleteNode(node)

	if t.size == 0 {
		t.minNode = nil
		t.maxNode = nil
	}
}

// ForEach iterates over all price levels in order.
// For asks (ascending), iterates lowest to highest.
// For bids (descending tree), iterates highest to lowest.
func (t *RBTree) ForEach(fn func(*BookLevel) bool) {
	if t.descending {
		t.reverseInOrder(t.root, fn)
	} else {
		t.inOrder(t.root, fn)
	}
}

func (t *RBTree) search(price model.Price) *rbNode {
	current := t.root
	for current != nil {
		switch {
		case price.LessThan(current.price):
			current = current.left
		case current.price.LessThan(price):
			current = current.right
		default:
			return current
		}
	}
	return nil
}

func (t *RBTree) inOrder(node *rbNode, fn func(*BookLevel) bool) bool {
	if node == nil {
		return true
	}
	if !t.inOrder(node.left, fn) {
		return false
	}
	if !fn(node.level) {
		return false
	}
	return t.inOrder(node.right, fn)
}

func (t *RBTree) reverseInOrder(node *rbNode, fn func(*BookLevel) bool) bool {
	if node == nil {
		return true
	}
	if !t.reverseInOrder(node.right, fn) {
		return false
	}
	if !fn(node.level) {
		return false
	}
	return t.reverseInOrder(node.left, fn)
}

func (t *RBTree) successor(node *rbNode) *rbNode {
	if node.right != nil {
		current := node.right
		for current.left != nil {
			current = current.left
		}
		return current
	}
	parent := node.parent
	for parent != nil && node == parent.right {
		node = parent
		parent = parent.parent
	}
	return parent
}

func (t *RBTree) predecessor(node *rbNode) *rbNode {
	if node.left != nil {
		current := node.left
		for current.right != nil {
			current = current.right
		}
		return current
	}
	parent := node.parent
	for parent != nil && node == parent.left {
		node = parent
		parent = parent.parent
	}
	return parent
}

// side names a child slot so the mirrored left/right balancing cases
// below can share one implementation keyed on direction instead of two
// near-duplicate blocks.
type side int

const (
	leftSide side = iota
	rightSide
)

func opposite(s side) side {
	if s == leftSide {
		return rightSide
	}
	return leftSide
}

func childOn(n *rbNode, s side) *rbNode {
	if s == leftSide {
		return n.left
	}
	return n.right
}

func setChildOn(n *rbNode, s side, c *rbNode) {
	if s == leftSide {
		n.left = c
	} else {
		n.right = c
	}
}

// sideOf reports which of its parent's child slots n occupies.
func sideOf(n *rbNode) side {
	if n.parent.left == n {
		return leftSide
	}
	return rightSide
}

func isBlackOrNil(n *rbNode) bool {
	return n == nil || n.color == black
}

// rotate raises x's child on the far side of dir into x's place, the
// standard CLRS tree rotation. dir == leftSide performs what's
// traditionally called a left rotation; dir == rightSide its mirror.
func (t *RBTree) rotate(x *rbNode, dir side) {
	far := opposite(dir)
	y := childOn(x, far)
	setChildOn(x, far, childOn(y, dir))
	if childOn(y, dir) != nil {
		childOn(y, dir).parent = x
	}
	y.parent = x.parent
	if x.parent == nil {
		t.root = y
	} else {
		setChildOn(x.parent, sideOf(x), y)
	}
	setChildOn(y, dir, x)
	x.parent = y
}

// insertFixup restores the red-black invariants after Insert appends a
// red leaf, walking up and re-coloring or rotating until the violation
// is absorbed or reaches the root.
func (t *RBTree) insertFixup(z *rbNode) {
	for z.parent != nil && z.parent.color == red {
		parentSide := sideOf(z.parent)
		farSide := opposite(parentSide)
		uncle := childOn(z.parent.parent, farSide)

		if uncle != nil && uncle.color == red {
			z.parent.color = black
			uncle.color = black
			z.parent.parent.color = red
			z = z.parent.parent
			continue
		}

		if sideOf(z) == farSide {
			z = z.parent
			t.rotate(z, parentSide)
		}
		z.parent.color = black
		z.parent.parent.color = red
		t.rotate(z.parent.parent, farSide)
	}
	t.root.color = black
}

// transplant splices v into the tree in place of u, leaving u's own
// children untouched; callers reattach them as needed.
func (t *RBTree) transplant(u, v *rbNode) {
	if u.parent == nil {
		t.root = v
	} else {
		setChildOn(u.parent, sideOf(u), v)
	}
	if v != nil {
		v.parent = u.parent
	}
}

func leftmost(n *rbNode) *rbNode {
	for n.left != nil {
		n = n.left
	}
	return n
}

func (t *RBTree) deleteNode(z *rbNode) {
	spliced := z
	splicedColor := spliced.color
	var moved, movedParent *rbNode

	switch {
	case z.left == nil:
		moved, movedParent = z.right, z.parent
		t.transplant(z, z.right)
	case z.right == nil:
		moved, movedParent = z.left, z.parent
		t.transplant(z, z.left)
	default:
		spliced = leftmost(z.right)
		splicedColor = spliced.color
		moved = spliced.right
		if spliced.parent == z {
			movedParent = spliced
		} else {
			movedParent = spliced.parent
			t.transplant(spliced, spliced.right)
			spliced.right = z.right
			spliced.right.parent = spliced
		}
		t.transplant(z, spliced)
		spliced.left = z.left
		spliced.left.parent = spliced
		spliced.color = z.color
	}

	if splicedColor == black {
		t.deleteFixup(moved, movedParent)
	}
}

// deleteFixup restores the red-black invariants after deleteNode removes
// a black node, pushing the resulting "double black" deficiency at x up
// the tree (re-coloring siblings, rotating) until it is resolved.
func (t *RBTree) deleteFixup(x *rbNode, xParent *rbNode) {
	for x != t.root && isBlackOrNil(x) {
		near := leftSide
		if x != xParent.left {
			near = rightSide
		}
		far := opposite(near)

		sibling := childOn(xParent, far)
		if sibling != nil && sibling.color == red {
			sibling.color = black
			xParent.color = red
			t.rotate(xParent, near)
			sibling = childOn(xParent, far)
		}

		if sibling == nil || (isBlackOrNil(childOn(sibling, near)) && isBlackOrNil(childOn(sibling, far))) {
			if sibling != nil {
				sibling.color = red
			}
			x = xParent
			xParent = x.parent
			continue
		}

		if isBlackOrNil(childOn(sibling, far)) {
			if childOn(sibling, near) != nil {
				childOn(sibling, near).color = black
			}
			sibling.color = red
			t.rotate(sibling, far)
			sibling = childOn(xParent, far)
		}
		sibling.color = xParent.color
		xParent.color = black
		if childOn(sibling, far) != nil {
			childOn(sibling, far).color = black
		}
		t.rotate(xParent, near)
		x = t.root
	}
	if x != nil {
		x.color = black
	}
}
