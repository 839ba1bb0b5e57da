package events

import (
	"container/heap"
	"sync"
	"sync/atomic"
)

// priorityEvent pairs an Event with its derived priority and a monotonic
// sequence number, used as the heap's tie-break: higher priority pops
// first, then earlier sequence, matching the original's PriorityEvent Ord
// impl.
type priorityEvent struct {
	event    Event
	priority Priority
	sequence uint64
}

// innerHeap is a container/heap.Interface over priorityEvent, ordered so
// that Pop yields the highest priority, earliest-sequence element (a
// max-heap on priority, min-heap on sequence).
type innerHeap []priorityEvent

func (h innerHeap) Len() int { return len(h) }
func (h innerHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].sequence < h[j].sequence
}
func (h innerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *innerHeap) Push(x interface{}) {
	*h = append(*h, x.(priorityEvent))
}
func (h *innerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// PriorityQueue is the concurrent min-heap-by-(priority,sequence) ingress
// path of §4.6's priority mode. It is unbounded by design; memory growth
// is the batch aggregator's responsibility.
type PriorityQueue struct {
	mu       sync.Mutex
	heap     innerHeap
	sequence atomic.Uint64
}

func NewPriorityQueue() *PriorityQueue {
	return &PriorityQueue{}
}

// Push enqueues event, stamping it with the next global sequence number.
func (q *PriorityQueue) Push(e Event) {
	seq := q.sequence.Add(1)
	q.mu.Lock()
	heap.Push(&q.heap, priorityEvent{event: e, priority: e.Priority(), sequence: seq})
	q.mu.Unlock()
}

// Pop removes and returns the highest-priority, earliest-sequence event,
// or (Event{}, false) if the queue is empty.
func (q *PriorityQueue) Pop() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.heap.Len() == 0 {
		return Event{}, false
	}
	item := heap.Pop(&q.heap).(priorityEvent)
	return item.event, true
}

func (q *PriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

func (q *PriorityQueue) IsEmpty() bool { return q.Len() == 0 }
