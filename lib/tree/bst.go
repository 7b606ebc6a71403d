package tree

import (
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/infra"
)

type bstNode[K infra.OrderedKey] struct {
	left  *bstNode[K]
	right *bstNode[K]
	key   K
}

func (node *bstNode[K]) Key() K {
	return node.key
}

func (node *bstNode[K]) Left() BSTNode[K] {
	if node == nil || node.left == nil {
		return nil
	}
	return node.left
}

func (node *bstNode[K]) Right() BSTNode[K] {
	if node == nil || node.right == nil {
		return nil
	}
	return node.right
}

func (node *bstNode[K]) IsLeaf() bool {
	return node != nil && node.left == nil && node.right == nil
}

func (node *bstNode[K]) minimum() *bstNode[K] {
	aux := node
	for ; aux != nil && aux.left != nil; aux = aux.left {
	}
	return aux
}

func (node *bstNode[K]) maximum() *bstNode[K] {
	aux := node
	for ; aux != nil && aux.right != nil; aux = aux.right {
	}
	return aux
}

func (node *bstNode[K]) height() int {
	if node == nil {
		return -1
	}
	return max(node.left.height(), node.right.height()) + 1
}

// Heights are recomputed for every node, O(n log n) for a balanced
// tree and O(n^2) for a chain.
func (node *bstNode[K]) isBalanced() bool {
	if node == nil {
		return true
	}
	diff := node.left.height() - node.right.height()
	return diff >= -1 && diff <= 1 && node.left.isBalanced() && node.right.isBalanced()
}

// Handles from other BSTree implementations are never linked into
// this tree, treat them as nil.
func toNode[K infra.OrderedKey](node BSTNode[K]) *bstNode[K] {
	if node == nil {
		return nil
	}
	x, ok := node.(*bstNode[K])
	if !ok || x == nil {
		return nil
	}
	return x
}

// The median of keys becomes the root, so the shape depends only on
// the key set.
//
//	keys: [1 3 5 8], mid = 2
//
//	      5
//	     / \
//	    3   8
//	   /
//	  1
func buildBalanced[K infra.OrderedKey](keys []K) *bstNode[K] {
	if len(keys) == 0 {
		return nil
	}
	mid := len(keys) >> 1
	return &bstNode[K]{
		key:   keys[mid],
		left:  buildBalanced[K](keys[:mid]),
		right: buildBalanced[K](keys[mid+1:]),
	}
}

type bsTree[K infra.OrderedKey] struct {
	root           *bstNode[K]
	keyCompare     infra.OrderedKeyComparator[K]
	logger         *zap.Logger
	stats          *bstStats
	statsName      string
	count          int64
	isStatsEnabled bool
}

func (tree *bsTree[K]) Len() int64 {
	return tree.count
}

func (tree *bsTree[K]) Root() BSTNode[K] {
	if tree.root == nil {
		return nil
	}
	return tree.root
}

func (tree *bsTree[K]) Build(keys []K) BSTNode[K] {
	// lo.Uniq allocates a new slice, the caller's keys stay untouched.
	sorted := lo.Uniq[K](keys)
	slices.Sort(sorted)
	tree.rebuild(sorted, bstOpBuild)
	return tree.Root()
}

// The keys must be sorted and unique.
func (tree *bsTree[K]) rebuild(keys []K, op bstOp) {
	prev := tree.count
	tree.root = buildBalanced[K](keys)
	tree.count = int64(len(keys))

	height := tree.root.height()
	tree.stats.RecordKeyCount(tree.count - prev)
	tree.stats.IncreaseMutationCount(op)
	tree.stats.RecordHeight(height)
	tree.logger.Debug("[bst] "+string(op),
		zap.Int64("size", tree.count),
		zap.Int("height", height),
	)
}

// The new node always becomes a leaf, no rotation.
func (tree *bsTree[K]) Insert(key K) bool {
	if tree.root == nil {
		tree.root = &bstNode[K]{key: key}
		tree.onInserted()
		return true
	}

	var (
		x, y *bstNode[K] = tree.root, nil
		res  int64
	)
	for x != nil {
		y = x
		res = tree.keyCompare(key, x.key)
		if /* equal */ res == 0 {
			return false
		} else /* less */ if res < 0 {
			x = x.left
		} else /* greater */ {
			x = x.right
		}
	}

	z := &bstNode[K]{key: key}
	if res < 0 {
		y.left = z
	} else {
		y.right = z
	}
	tree.onInserted()
	return true
}

func (tree *bsTree[K]) onInserted() {
	tree.count++
	tree.stats.RecordKeyCount(1)
	tree.stats.IncreaseMutationCount(bstOpInsert)
}

func (tree *bsTree[K]) Delete(key K) bool {
	var removed bool
	tree.root, removed = tree.deleteNode(tree.root, key)
	if !removed {
		return false
	}
	tree.count--
	tree.stats.RecordKeyCount(-1)
	tree.stats.IncreaseMutationCount(bstOpDelete)
	return true
}

/*
d1: X is a leaf, remove directly.

d2: X has one child C, C replaces X.

	  |            |
	  X            C
	 /    ====>   / \
	C            ..  ..

d3: X has two children. The succ S is the minimum of X's right
subtree and S has no left child. Copy S's key into X, then remove
S from the right subtree (d1 or d2).

	  |                    |
	  X                    S
	 / \                  / \
	L   R    copy(S)     L   R
	   /     =======>       /
	  S                   (S removed)
	   \                    \
	    Sr                   Sr
*/
func (tree *bsTree[K]) deleteNode(x *bstNode[K], key K) (*bstNode[K], bool) {
	if x == nil {
		return nil, false
	}

	var removed bool
	if res := tree.keyCompare(key, x.key); /* less */ res < 0 {
		x.left, removed = tree.deleteNode(x.left, key)
		return x, removed
	} else /* greater */ if res > 0 {
		x.right, removed = tree.deleteNode(x.right, key)
		return x, removed
	}

	if /* d1, d2 */ x.left == nil {
		r := x.right
		x.right = nil
		return r, true
	} else /* d2 */ if x.right == nil {
		l := x.left
		x.left = nil
		return l, true
	}

	/* d3 */
	succ := x.right.minimum()
	x.key = succ.key
	x.right, _ = tree.deleteNode(x.right, succ.key)
	return x, true
}

func (tree *bsTree[K]) Find(key K) BSTNode[K] {
	for aux := tree.root; aux != nil; {
		res := tree.keyCompare(key, aux.key)
		if res == 0 {
			return aux
		} else if res > 0 {
			aux = aux.right
		} else {
			aux = aux.left
		}
	}
	return nil
}

func (tree *bsTree[K]) FindMinValue(node BSTNode[K]) K {
	x := toNode[K](node)
	if x == nil {
		panic( /* debug assertion */ "[bst] find min value from a nil node")
	}
	return x.minimum().key
}

func (tree *bsTree[K]) FindMaxValue(node BSTNode[K]) K {
	x := toNode[K](node)
	if x == nil {
		panic( /* debug assertion */ "[bst] find max value from a nil node")
	}
	return x.maximum().key
}

func (tree *bsTree[K]) missingCallback(order string) error {
	err := infra.WrapErrorStackWithMessage(ErrMissingCallback, "[bst] "+order+" traversal")
	if es, ok := err.(infra.ErrorStack); ok {
		tree.logger.Warn("[bst] traversal without visitor", zap.Inline(es))
	}
	return err
}

// BFS traversal by a FIFO queue seeded with the root.
func (tree *bsTree[K]) LevelOrder(visit BSTVisitor[K]) error {
	if visit == nil {
		return tree.missingCallback("level order")
	}
	if tree.root == nil {
		return nil
	}

	queue := make([]*bstNode[K], 0, tree.count>>1+1)
	defer func() {
		clear(queue)
	}()
	queue = append(queue, tree.root)

	for idx := int64(0); len(queue) > 0; idx++ {
		aux := queue[0]
		queue = queue[1:]
		visit(idx, aux)
		if aux.left != nil {
			queue = append(queue, aux.left)
		}
		if aux.right != nil {
			queue = append(queue, aux.right)
		}
	}
	return nil
}

// Inorder traversal visits keys in ascending order.
func (tree *bsTree[K]) InOrder(visit BSTVisitor[K]) error {
	if visit == nil {
		return tree.missingCallback("in order")
	}

	stack := make([]*bstNode[K], 0, tree.count>>1+1)
	defer func() {
		clear(stack)
	}()

	idx, aux := int64(0), tree.root
	for aux != nil || len(stack) > 0 {
		for ; aux != nil; aux = aux.left {
			stack = append(stack, aux)
		}
		aux = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(idx, aux)
		idx++
		aux = aux.right
	}
	return nil
}

func (tree *bsTree[K]) PreOrder(visit BSTVisitor[K]) error {
	if visit == nil {
		return tree.missingCallback("pre order")
	}
	if tree.root == nil {
		return nil
	}

	stack := make([]*bstNode[K], 0, tree.count>>1+1)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, tree.root)

	for idx := int64(0); len(stack) > 0; idx++ {
		aux := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(idx, aux)
		// Right first, so the left subtree pops first.
		if aux.right != nil {
			stack = append(stack, aux.right)
		}
		if aux.left != nil {
			stack = append(stack, aux.left)
		}
	}
	return nil
}

func (tree *bsTree[K]) PostOrder(visit BSTVisitor[K]) error {
	if visit == nil {
		return tree.missingCallback("post order")
	}

	stack := make([]*bstNode[K], 0, tree.count>>1+1)
	defer func() {
		clear(stack)
	}()

	var (
		idx       int64
		aux, last *bstNode[K] = tree.root, nil
	)
	for aux != nil || len(stack) > 0 {
		for ; aux != nil; aux = aux.left {
			stack = append(stack, aux)
		}
		top := stack[len(stack)-1]
		if top.right != nil && top.right != last {
			aux = top.right
			continue
		}
		visit(idx, top)
		idx++
		last = top
		stack = stack[:len(stack)-1]
	}
	return nil
}

func (tree *bsTree[K]) Height(node BSTNode[K]) int {
	return toNode[K](node).height()
}

func (tree *bsTree[K]) Depth(node BSTNode[K]) int {
	return tree.DepthFrom(node, tree.Root())
}

// DepthFrom walks down from the node `from` by key comparison until
// it meets the exact same node.
// A stale handle (removed, or dropped by Build and Rebalance) stops at
// the node holding the same key and returns -1.
func (tree *bsTree[K]) DepthFrom(node, from BSTNode[K]) int {
	target, aux := toNode[K](node), toNode[K](from)
	if target == nil {
		return -1
	}

	for depth := 0; aux != nil; depth++ {
		if aux == target {
			return depth
		}
		res := tree.keyCompare(target.key, aux.key)
		if /* stale */ res == 0 {
			return -1
		} else if res < 0 {
			aux = aux.left
		} else {
			aux = aux.right
		}
	}
	return -1
}

func (tree *bsTree[K]) IsBalanced() bool {
	return tree.root.isBalanced()
}

func (tree *bsTree[K]) IsBalancedFrom(node BSTNode[K]) bool {
	return toNode[K](node).isBalanced()
}

func (tree *bsTree[K]) Keys() []K {
	keys := make([]K, 0, tree.count)
	_ = tree.InOrder(func(_ int64, node BSTNode[K]) {
		keys = append(keys, node.Key())
	})
	return keys
}

func (tree *bsTree[K]) Rebalance() {
	tree.rebuild(tree.Keys(), bstOpRebalance)
}

// Release unlinks all nodes, so the stale handles are unable to reach
// each other.
func (tree *bsTree[K]) Release() {
	aux := tree.root
	tree.root = nil
	if aux == nil {
		return
	}

	stack := make([]*bstNode[K], 0, tree.count>>1+1)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.left {
		stack = append(stack, aux)
	}
	for len(stack) > 0 {
		aux = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		r := aux.right
		aux.left, aux.right = nil, nil
		for aux = r; aux != nil; aux = aux.left {
			stack = append(stack, aux)
		}
	}

	tree.stats.RecordKeyCount(-tree.count)
	tree.count = 0
}

type BSTreeOpt[K infra.OrderedKey] func(*bsTree[K])

func WithBSTLogger[K infra.OrderedKey](logger *zap.Logger) BSTreeOpt[K] {
	return func(tree *bsTree[K]) {
		if logger != nil {
			tree.logger = logger
		}
	}
}

// NewBSTree builds a height balanced tree from keys.
// The keys may be unsorted and contain duplicates.
func NewBSTree[K infra.OrderedKey](keys []K, opts ...BSTreeOpt[K]) BSTree[K] {
	tree := &bsTree[K]{
		keyCompare: infra.AscKeyComparator[K],
		logger:     zap.NewNop(),
	}

	for _, o := range opts {
		o(tree)
	}
	if tree.isStatsEnabled {
		tree.stats = newBSTStats(tree.statsName)
	}

	tree.Build(keys)
	return tree
}
