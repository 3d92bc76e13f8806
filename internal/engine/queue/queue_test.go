package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/watchdag/internal/core/domain"
	"go.trai.ch/watchdag/internal/engine/queue"
)

func TestTriggerQueue_Queue_CoalescesIntoLastBatch(t *testing.T) {
	q := queue.New(domain.TriggerQueue, 2)
	a := domain.NewInternedString("A")
	b := domain.NewInternedString("B")

	assert.True(t, q.IsEmpty())

	q.RecordTrigger(a)
	q.RecordTrigger(b)

	drained := q.DrainPending()
	assert.ElementsMatch(t, []domain.InternedString{a, b}, drained)
	assert.True(t, q.IsEmpty())
}

func TestTriggerQueue_Queue_RecordAfterDrainStartsFresh(t *testing.T) {
	q := queue.New(domain.TriggerQueue, 1)
	a := domain.NewInternedString("A")

	q.RecordTrigger(a)
	q.DrainPending()

	// After draining, the queue is empty; recording again starts fresh.
	b := domain.NewInternedString("B")
	q.RecordTrigger(b)
	assert.ElementsMatch(t, []domain.InternedString{b}, q.DrainPending())
}

func TestTriggerQueue_Cancel_KeepsOnlyLatestTrigger(t *testing.T) {
	q := queue.New(domain.TriggerCancel, 5)
	a := domain.NewInternedString("A")
	b := domain.NewInternedString("B")

	q.RecordTrigger(a)
	q.RecordTrigger(b)

	drained := q.DrainPending()
	assert.ElementsMatch(t, []domain.InternedString{b}, drained)
}

func TestTriggerQueue_New_ClampsMaxRunsToAtLeastOne(t *testing.T) {
	q := queue.New(domain.TriggerQueue, 0)
	a := domain.NewInternedString("A")
	b := domain.NewInternedString("B")

	q.RecordTrigger(a)
	q.RecordTrigger(b)

	// Both merge into the single allowed batch, since a==1 batch max still
	// coalesces triggers within that batch.
	drained := q.DrainPending()
	assert.ElementsMatch(t, []domain.InternedString{a, b}, drained)
}

func TestTriggerQueue_DrainPending_OnEmptyQueueReturnsEmpty(t *testing.T) {
	q := queue.New(domain.TriggerQueue, 3)
	assert.Empty(t, q.DrainPending())
}
