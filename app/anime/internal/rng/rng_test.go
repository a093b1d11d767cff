package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrypto_Range(t *testing.T) {
	src := Crypto()
	for i := 0; i < 1000; i++ {
		v := src.IntN(100)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 100)
	}
	assert.Panics(t, func() { src.IntN(0) })
}

func TestSeeded_Reproducible(t *testing.T) {
	a, b := NewSeeded(42), NewSeeded(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.IntN(1000), b.IntN(1000))
	}
}

func TestFixed(t *testing.T) {
	f := NewFixed(3, 120, -1)
	assert.Equal(t, 3, f.IntN(100))
	assert.Equal(t, 20, f.IntN(100))
	assert.Equal(t, 99, f.IntN(100))
	assert.Equal(t, 3, f.IntN(100))
}
