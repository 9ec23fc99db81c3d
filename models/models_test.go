package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallType(t *testing.T) {
	for raw, want := range map[string]CallType{
		"WAITER": CallTypeWaiter,
		"waiter": CallTypeWaiter,
		" Bill ": CallTypeBill,
		"bill":   CallTypeBill,
	} {
		got, err := ParseCallType(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"", "DESSERT", "waiters"} {
		_, err := ParseCallType(raw)
		assert.Error(t, err, raw)
	}
	_, err := ParseCallType("dessert")
	assert.EqualError(t, err, "invalid call type: dessert")
}

func TestSessionValid(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := Session{Active: true, ExpiresAt: now.Add(time.Minute)}

	assert.True(t, s.Valid(now))
	assert.True(t, s.Valid(now.Add(59*time.Second)))
	assert.False(t, s.Valid(now.Add(time.Minute)))
	assert.True(t, s.Expired(now.Add(time.Minute)))

	s.Active = false
	assert.False(t, s.Valid(now))
	assert.False(t, s.Expired(now))
}
