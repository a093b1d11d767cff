package checksum

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashers(t *testing.T) {
	for _, typ := range []Type{TypeCRC32, TypeCRC32C, TypeXXHash} {
		h, err := New(typ)
		require.NoError(t, err)
		assert.Equal(t, string(typ), h.Name())

		cases := map[string][]byte{
			"nil":    nil,
			"empty":  {},
			"small":  []byte("hello world"),
			"medium": bytes.Repeat([]byte("hello world "), 1000),
		}
		for name, data := range cases {
			t.Run(string(typ)+"/"+name, func(t *testing.T) {
				sum := h.Sum(data)
				assert.True(t, h.Verify(data, sum))
				if len(data) > 0 {
					assert.False(t, h.Verify(data, sum^0xFFFFFFFF))
				}
			})
		}
	}
}

func TestKnownValues(t *testing.T) {
	crc, err := New(TypeCRC32)
	require.NoError(t, err)
	assert.Equal(t, "cbf43926", Hex(crc, []byte("123456789")))
	assert.Equal(t, "e3069283", Hex(Default(), []byte("123456789")))
}

func TestNew_Default(t *testing.T) {
	h, err := New("")
	require.NoError(t, err)
	assert.Equal(t, string(TypeCRC32C), h.Name())

	_, err = New("md5")
	assert.Error(t, err)
}
