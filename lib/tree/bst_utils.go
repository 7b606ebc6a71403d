package tree

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
)

// bst rule validation utilities.

// Inorder traversal to validate the keys are strictly ascending and
// the number of nodes matches Len.
func OrderViolationValidate[K infra.OrderedKey](tree BSTree[K]) error {
	var (
		merr  error
		prev  K
		count int64
	)
	_ = tree.InOrder(func(idx int64, node BSTNode[K]) {
		if idx > 0 && node.Key() <= prev {
			merr = multierr.Append(merr,
				fmt.Errorf("%w: key %v at index %d after %v", ErrOrderViolation, node.Key(), idx, prev),
			)
		}
		prev = node.Key()
		count++
	})
	if count != tree.Len() {
		merr = multierr.Append(merr,
			fmt.Errorf("%w: len %d, reachable nodes %d", ErrCountViolation, tree.Len(), count),
		)
	}
	return merr
}

// BFS traversal to check each node's subtree heights differ at most 1.
func BalanceViolationValidate[K infra.OrderedKey](tree BSTree[K]) error {
	var merr error
	_ = tree.LevelOrder(func(idx int64, node BSTNode[K]) {
		lh, rh := tree.Height(node.Left()), tree.Height(node.Right())
		if diff := lh - rh; diff < -1 || diff > 1 {
			merr = multierr.Append(merr,
				fmt.Errorf("%w: key %v, left height %d, right height %d", ErrBalanceViolation, node.Key(), lh, rh),
			)
		}
	})
	return merr
}

func Validate[K infra.OrderedKey](tree BSTree[K]) error {
	return multierr.Combine(
		OrderViolationValidate[K](tree),
		BalanceViolationValidate[K](tree),
	)
}
