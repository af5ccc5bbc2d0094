package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "registrar/pkg/domain-errors"
)

func TestAccountID_String(t *testing.T) {
	assert.Equal(t, "42", AccountID(42).String())
	assert.Equal(t, "0", AccountID(0).String())
}

func TestAccountID_IsZero(t *testing.T) {
	assert.True(t, AccountID(0).IsZero())
	assert.False(t, AccountID(1).IsZero())
}

func TestParseAccountID(t *testing.T) {
	cases := []struct {
		raw  string
		want AccountID
		ok   bool
	}{
		{"1", 1, true},
		{"9223372036854775807", 9223372036854775807, true},
		{"", 0, false},
		{"0", 0, false},
		{"-5", 0, false},
		{"12.5", 0, false},
		{"abc", 0, false},
		{"1e3", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseAccountID(tc.raw)
			if !tc.ok {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseAccountID_RoundTripsThroughString(t *testing.T) {
	id := AccountID(314)
	parsed, err := ParseAccountID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}
