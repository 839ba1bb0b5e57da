package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceRoundTrip(t *testing.T) {
	p := NewPriceFromFloat(50000.5)
	assert.Equal(t, 50000.5, p.Float64())
	assert.True(t, p.IsPositive())
}

func TestQuantitySubUnderflowPanics(t *testing.T) {
	q := NewQuantityFromFloat(1.0)
	require.Panics(t, func() {
		q.Sub(NewQuantityFromFloat(2.0))
	})
}

func TestQuantityMin(t *testing.T) {
	a := NewQuantityFromFloat(2.5)
	b := NewQuantityFromFloat(1.0)
	assert.Equal(t, b, a.Min(b))
}

func TestOrderFillTransitionsStatus(t *testing.T) {
	o := &Order{Quantity: NewQuantityFromFloat(2.0)}
	o.Fill(NewQuantityFromFloat(1.0))
	assert.Equal(t, PartiallyFilled, o.Status)
	o.Fill(NewQuantityFromFloat(1.0))
	assert.Equal(t, Filled, o.Status)
	assert.True(t, o.IsFullyFilled())
}

func TestNextOrderIdMonotonic(t *testing.T) {
	a := NextOrderId()
	b := NextOrderId()
	assert.Less(t, uint64(a), uint64(b))
}

func TestClientIdParse(t *testing.T) {
	c := NewClientId()
	parsed, err := ParseClientId(c.String())
	require.NoError(t, err)
	assert.Equal(t, c, parsed)
}
