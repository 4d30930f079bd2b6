// internal/nodeid/parser_test.go
package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name         string
		rawID        string
		expectErr    bool
		expectedAddr Address
	}{
		{
			name:         "simple address",
			rawID:        "clock.kick",
			expectedAddr: New("clock", "kick"),
		},
		{
			name:         "kind is lower-cased",
			rawID:        "Gate.Mix_2",
			expectedAddr: New("gate", "Mix_2"),
		},
		{
			name:         "whitespace is trimmed",
			rawID:        "  note.c-4 ",
			expectedAddr: New("note", "c-4"),
		},
		{
			name:      "error - empty string",
			rawID:     "",
			expectErr: true,
		},
		{
			name:      "error - no name",
			rawID:     "clock",
			expectErr: true,
		},
		{
			name:      "error - empty name",
			rawID:     "clock.",
			expectErr: true,
		},
		{
			name:      "error - empty kind",
			rawID:     ".kick",
			expectErr: true,
		},
		{
			name:      "error - too many segments",
			rawID:     "clock.kick.extra",
			expectErr: true,
		},
		{
			name:      "error - name starts with digit",
			rawID:     "clock.1",
			expectErr: true,
		},
		{
			name:      "error - just dot",
			rawID:     ".",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			addr, err := Parse(tc.rawID)

			if tc.expectErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedAddr, addr)
		})
	}
}

func TestFromParts(t *testing.T) {
	addr, err := FromParts("latch", "hold")
	require.NoError(t, err)
	assert.Equal(t, New("latch", "hold"), addr)

	_, err = FromParts("latch")
	assert.Error(t, err)
	_, err = FromParts("a", "b", "c")
	assert.Error(t, err)
}
