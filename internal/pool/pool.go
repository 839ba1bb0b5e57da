// Package pool provides per-type object pools for Trade and Order plus
// bucketed vector pools, used by the matcher to accumulate trade results
// without allocating on the hot path. Grounded on the teacher's
// internal/common/pool/object_pool.go generic sync.Pool wrapper.
package pool

import (
	"sync"

	"github.com/hftcore/lobengine/internal/types"
)

// ObjectPool wraps sync.Pool with a typed factory, mirroring the teacher's
// ObjectPool[T] shape (pre-1.18 teacher code used interface{}; this module
// targets a newer Go toolchain so the pool is generic).
type ObjectPool[T any] struct {
	pool    sync.Pool
	factory func() *T
}

// NewObjectPool constructs a pool around factory. initialSize pre-warms the
// pool so the first burst of acquisitions doesn't pay allocation cost.
func NewObjectPool[T any](factory func() *T, initialSize int) *ObjectPool[T] {
	p := &ObjectPool[T]{factory: factory}
	p.pool.New = func() interface{} { return factory() }
	for i := 0; i < initialSize; i++ {
		p.pool.Put(factory())
	}
	return p
}

func (p *ObjectPool[T]) Get() *T {
	return p.pool.Get().(*T)
}

func (p *ObjectPool[T]) Put(v *T) {
	p.pool.Put(v)
}

// OrderPool and TradePool are the two hot-path object pools named in §5's
// "Memory pools" resource-model paragraph.
var OrderPool = NewObjectPool(func() *types.Order { return &types.Order{} }, 256)
var TradePool = NewObjectPool(func() *types.Trade { return &types.Trade{} }, 256)

// bucketSizes are the capacities named in §5: "bucketed vector pools
// (8,16,32,...,1024 capacities)".
var bucketSizes = []int{8, 16, 32, 64, 128, 256, 512, 1024}

// VectorPool hands out []types.Trade slices sized to the smallest bucket
// that accommodates the requested capacity, and returns them to the
// matching bucket's pool on Release, avoiding per-trade allocation when a
// single incoming order sweeps many resting orders.
type VectorPool struct {
	buckets map[int]*sync.Pool
}

func NewVectorPool() *VectorPool {
	vp := &VectorPool{buckets: make(map[int]*sync.Pool, len(bucketSizes))}
	for _, size := range bucketSizes {
		size := size
		vp.buckets[size] = &sync.Pool{
			New: func() interface{} {
				s := make([]types.Trade, 0, size)
				return &s
			},
		}
	}
	return vp
}

func bucketFor(capacityHint int) int {
	for _, size := range bucketSizes {
		if capacityHint <= size {
			return size
		}
	}
	return bucketSizes[len(bucketSizes)-1]
}

// Acquire returns a zero-length slice with capacity at least capacityHint
// (capped at the largest bucket; larger requests still get the largest
// bucket and may grow/reallocate beyond it, which is acceptable since that
// case is rare relative to typical sweep sizes).
func (vp *VectorPool) Acquire(capacityHint int) *[]types.Trade {
	bucket := bucketFor(capacityHint)
	s := vp.buckets[bucket].Get().(*[]types.Trade)
	*s = (*s)[:0]
	return s
}

// Release returns s to its bucket's pool if its capacity matches one of
// the known buckets, otherwise it is dropped for the GC to reclaim.
func (vp *VectorPool) Release(s *[]types.Trade) {
	bucket := cap(*s)
	if p, ok := vp.buckets[bucket]; ok {
		p.Put(s)
	}
}

// Global is the process-wide vector pool, one of the two discrete
// singletons the design notes permit (alongside the id counters and the
// latency profiler).
var Global = NewVectorPool()
