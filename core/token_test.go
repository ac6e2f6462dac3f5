package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	cases := []struct {
		c      Component
		offset uint32
	}{
		{NewComponent(), 0},
		{Component{0, 0, 0, 1}, 12345},
		{Component{1, 999, 999, 999}, 0xFFFFFFFF},
	}

	for _, tc := range cases {
		token := EncodeToken(tc.c, tc.offset)
		c, offset, err := DecodeToken(token)
		require.NoError(t, err)
		assert.Equal(t, tc.c, c)
		assert.Equal(t, tc.offset, offset)
	}
}

func TestDecodeTokenRejectsInvalidComponent(t *testing.T) {
	token := uint64(2_000_000_000) << 32
	_, _, err := DecodeToken(token)
	assert.ErrorIs(t, err, ErrInvalidComponent)
}
