package tree

import "github.com/benz9527/xtree/lib/infra"

type BSTErr string

const (
	ErrMissingCallback  BSTErr = "a callback function is required"
	ErrOrderViolation   BSTErr = "bst order violation"
	ErrCountViolation   BSTErr = "bst count violation"
	ErrBalanceViolation BSTErr = "bst balance violation"
)

func (err BSTErr) Error() string {
	return string(err)
}

// BSTNode is a read-only handle of a node linked into a BSTree.
// The key of a handle may change when a node with two children is
// removed, because the successor key is copied into it.
type BSTNode[K infra.OrderedKey] interface {
	Key() K
	Left() BSTNode[K]
	Right() BSTNode[K]
	IsLeaf() bool
}

// BSTVisitor receives the visiting index (from 0) and the node.
// It must not mutate the tree being traversed.
type BSTVisitor[K infra.OrderedKey] func(idx int64, node BSTNode[K])

// BSTree is an unbalanced binary search tree with unique keys.
// Insert and Delete never rotate; the balance is restored only
// by Build or Rebalance. It is not thread safe.
type BSTree[K infra.OrderedKey] interface {
	Len() int64
	Root() BSTNode[K]
	// Build drops the current nodes and rebuilds a height balanced tree
	// from keys (unsorted, duplicates allowed). Returns the new root.
	Build(keys []K) BSTNode[K]
	// Insert returns false if the key is present already.
	Insert(key K) bool
	// Delete returns false if the key is absent.
	Delete(key K) bool
	// Find returns nil if the key is absent.
	Find(key K) BSTNode[K]
	FindMinValue(node BSTNode[K]) K
	FindMaxValue(node BSTNode[K]) K
	LevelOrder(visit BSTVisitor[K]) error
	InOrder(visit BSTVisitor[K]) error
	PreOrder(visit BSTVisitor[K]) error
	PostOrder(visit BSTVisitor[K]) error
	// Height of a nil node is -1, a leaf is 0.
	Height(node BSTNode[K]) int
	// Depth searches the node from the root, -1 if unreachable.
	Depth(node BSTNode[K]) int
	DepthFrom(node, from BSTNode[K]) int
	IsBalanced() bool
	IsBalancedFrom(node BSTNode[K]) bool
	Rebalance()
	// Keys returns all keys in ascending order.
	Keys() []K
	Release()
}
