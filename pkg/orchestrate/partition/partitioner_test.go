package partition

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
)

func makeItems(n int) model.WorkItemList {
	items := make(model.WorkItemList, n)
	for i := 0; i < n; i++ {
		items[i] = model.WorkItem(fmt.Sprintf("photo-%03d", i+1))
	}
	return items
}

func TestSizedPartitioner_SplitsEvenly(t *testing.T) {
	p := NewSizedPartitioner()
	items := makeItems(20)

	batches := p.Partition(items, 10)

	require.Len(t, batches, 2)
	assert.Len(t, batches[0].Items, 10)
	assert.Len(t, batches[1].Items, 10)
}

func TestSizedPartitioner_LastBatchIsShort(t *testing.T) {
	p := NewSizedPartitioner()
	items := makeItems(25)

	batches := p.Partition(items, 10)

	require.Len(t, batches, 3)
	assert.Len(t, batches[0].Items, 10)
	assert.Len(t, batches[1].Items, 10)
	assert.Len(t, batches[2].Items, 5)
}

func TestSizedPartitioner_PreservesOrder(t *testing.T) {
	p := NewSizedPartitioner()
	items := makeItems(25)

	batches := p.Partition(items, 10)

	var rejoined model.WorkItemList
	for _, b := range batches {
		rejoined = append(rejoined, b.Items...)
	}
	assert.Equal(t, items, rejoined)
}

func TestSizedPartitioner_AssignsSequentialIndexes(t *testing.T) {
	p := NewSizedPartitioner()

	batches := p.Partition(makeItems(25), 10)

	require.Len(t, batches, 3)
	for i, b := range batches {
		assert.Equal(t, i, b.Index)
		assert.Equal(t, model.BatchPending, b.Status)
	}
}

func TestSizedPartitioner_NonPositiveSizeYieldsSingleBatch(t *testing.T) {
	p := NewSizedPartitioner()
	items := makeItems(7)

	for _, size := range []int{0, -1} {
		batches := p.Partition(items, size)
		require.Len(t, batches, 1, "batch size %d", size)
		assert.Equal(t, items, batches[0].Items)
	}
}

func TestSizedPartitioner_EmptyInput(t *testing.T) {
	p := NewSizedPartitioner()

	batches := p.Partition(model.WorkItemList{}, 10)

	assert.Empty(t, batches)
}

func TestSizedPartitioner_FewerItemsThanBatchSize(t *testing.T) {
	p := NewSizedPartitioner()
	items := makeItems(3)

	batches := p.Partition(items, 10)

	require.Len(t, batches, 1)
	assert.Equal(t, items, batches[0].Items)
}
