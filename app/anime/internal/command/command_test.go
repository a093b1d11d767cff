package command

import (
	"strings"
	"testing"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data string
		want Command
	}{
		{"catch:abc.def.ghi", Catch("abc.def.ghi")},
		{"release:abc.def.ghi", Release("abc.def.ghi")},
		{"trade:42", Trade(42)},
		{" trade:7 ", Trade(7)},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := ParseCallback(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCallback_Invalid(t *testing.T) {
	for _, data := range []string{
		"",
		"catch",
		"catch:",
		"trade:abc",
		"trade:-1",
		"trade:0",
		"hunt:1",
		"catch:" + strings.Repeat("x", maxPayloadLen),
	} {
		_, err := ParseCallback(data)
		assert.ErrorIs(t, err, errs.ErrInvalidArgument, data)
	}
}

func TestCommand_String(t *testing.T) {
	for _, c := range []Command{Catch("t0k"), Release("t0k"), Trade(99)} {
		got, err := ParseCallback(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}
