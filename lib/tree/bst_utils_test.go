package tree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestOrderViolationValidate(t *testing.T) {
	tree := NewBSTree[int](seqKeys(1, 7))
	require.NoError(t, OrderViolationValidate[int](tree))

	// Break the order by hand, 6 <-> 2.
	impl := tree.(*bsTree[int])
	impl.root.left.key, impl.root.right.key = impl.root.right.key, impl.root.left.key
	err := OrderViolationValidate[int](tree)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrOrderViolation))
	require.Len(t, multierr.Errors(err), 2)

	impl.root.left.key, impl.root.right.key = impl.root.right.key, impl.root.left.key
	impl.count++
	err = OrderViolationValidate[int](tree)
	require.True(t, errors.Is(err, ErrCountViolation))
	require.False(t, errors.Is(err, ErrOrderViolation))
}

func TestBalanceViolationValidate(t *testing.T) {
	tree := NewBSTree[int](nil)
	require.NoError(t, BalanceViolationValidate[int](tree))
	for i := 1; i <= 4; i++ {
		tree.Insert(i)
	}
	// 1 -> 2 -> 3 -> 4, nodes 1 and 2 are unbalanced.
	err := BalanceViolationValidate[int](tree)
	require.True(t, errors.Is(err, ErrBalanceViolation))
	require.Len(t, multierr.Errors(err), 2)

	err = Validate[int](tree)
	require.Len(t, multierr.Errors(err), 2)
	require.False(t, errors.Is(err, ErrOrderViolation))

	tree.Rebalance()
	require.NoError(t, Validate[int](tree))
}
