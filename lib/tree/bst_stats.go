package tree

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/benz9527/xtree/lib/infra"
)

const (
	BSTStatsName = "xtree/bst"
)

type bstOp string

const (
	bstOpBuild     bstOp = "build"
	bstOpRebalance bstOp = "rebalance"
	bstOpInsert    bstOp = "insert"
	bstOpDelete    bstOp = "delete"
)

var bstOpAttrs = map[bstOp]attribute.Set{
	bstOpBuild:     attribute.NewSet(attribute.String("bst.op", string(bstOpBuild))),
	bstOpRebalance: attribute.NewSet(attribute.String("bst.op", string(bstOpRebalance))),
	bstOpInsert:    attribute.NewSet(attribute.String("bst.op", string(bstOpInsert))),
	bstOpDelete:    attribute.NewSet(attribute.String("bst.op", string(bstOpDelete))),
}

// A nil *bstStats records nothing.
type bstStats struct {
	keyCount      metric.Int64UpDownCounter
	mutationCount metric.Int64Counter
	heights       metric.Int64Histogram
}

func (stats *bstStats) RecordKeyCount(delta int64) {
	if stats == nil || delta == 0 {
		return
	}
	stats.keyCount.Add(context.Background(), delta)
}

func (stats *bstStats) IncreaseMutationCount(op bstOp) {
	if stats == nil {
		return
	}
	stats.mutationCount.Add(context.Background(), 1, metric.WithAttributeSet(bstOpAttrs[op]))
}

// Only the height right after a build or a rebalance is recorded.
// The empty tree (-1) is skipped.
func (stats *bstStats) RecordHeight(height int) {
	if stats == nil || height < 0 {
		return
	}
	stats.heights.Record(context.Background(), int64(height))
}

// WithBSTStats records the tree metrics on the global otel meter
// "xtree/bst/<name>".
func WithBSTStats[K infra.OrderedKey](name string) BSTreeOpt[K] {
	return func(tree *bsTree[K]) {
		tree.isStatsEnabled = true
		tree.statsName = name
	}
}

func newBSTStats(name string) *bstStats {
	if name = strings.TrimSpace(name); name == "" {
		name = "default"
	}
	meterName := fmt.Sprintf("%s/%s", BSTStatsName, name)
	return &bstStats{
		keyCount: lo.Must[metric.Int64UpDownCounter](otel.Meter(meterName).
			Int64UpDownCounter(
				"bst.key.count",
				metric.WithDescription("The number of keys in the binary search tree."),
			),
		),
		mutationCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"bst.mutation.count",
				metric.WithDescription("The number of effective mutations by operation."),
			),
		),
		heights: lo.Must[metric.Int64Histogram](otel.Meter(meterName).
			Int64Histogram(
				"bst.rebalance.height",
				metric.WithDescription("The tree height after a build or a rebalance."),
			),
		),
	}
}
