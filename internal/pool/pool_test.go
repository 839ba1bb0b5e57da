package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hftcore/lobengine/internal/types"
)

func TestObjectPoolReuse(t *testing.T) {
	p := NewObjectPool(func() *types.Trade { return &types.Trade{} }, 2)
	tr := p.Get()
	tr.Quantity = types.NewQuantityFromFloat(1)
	p.Put(tr)

	tr2 := p.Get()
	assert.NotNil(t, tr2)
}

func TestVectorPoolBucketing(t *testing.T) {
	vp := NewVectorPool()
	s := vp.Acquire(5)
	assert.Equal(t, 0, len(*s))
	assert.GreaterOrEqual(t, cap(*s), 5)
	vp.Release(s)

	s2 := vp.Acquire(900)
	assert.GreaterOrEqual(t, cap(*s2), 900)
}
