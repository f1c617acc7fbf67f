package partition

import (
	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	port "github.com/lumapix/darkroom/pkg/orchestrate/core/port"
	logger "github.com/lumapix/darkroom/pkg/orchestrate/support/util/logger"
)

// SizedPartitioner splits a work item list into consecutive batches of a
// fixed maximum size, preserving item order. It is the default
// implementation of the [port.Partitioner] interface.
type SizedPartitioner struct{}

// NewSizedPartitioner creates a new instance of [SizedPartitioner].
func NewSizedPartitioner() port.Partitioner {
	return &SizedPartitioner{}
}

// Partition splits items into batches of at most batchSize items each.
// Items keep their input order both across batches and within each batch,
// so concatenating the batches reproduces the input exactly.
// A batchSize of zero or less yields a single batch containing all items.
// An empty item list yields no batches.
func (p *SizedPartitioner) Partition(items model.WorkItemList, batchSize int) model.BatchList {
	if len(items) == 0 {
		return model.BatchList{}
	}
	if batchSize <= 0 {
		logger.Debugf("SizedPartitioner: batch size %d is not positive, producing a single batch of %d items.", batchSize, len(items))
		return model.BatchList{model.NewBatch(0, items)}
	}

	batches := make(model.BatchList, 0, (len(items)+batchSize-1)/batchSize)
	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, model.NewBatch(len(batches), items[start:end]))
	}
	logger.Debugf("SizedPartitioner: split %d items into %d batches (batch size %d).", len(items), len(batches), batchSize)
	return batches
}

// Verify that [SizedPartitioner] satisfies the [port.Partitioner] interface.
var _ port.Partitioner = (*SizedPartitioner)(nil)
