package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterAllowAndRefill(t *testing.T) {
	l := New(2, 1)
	now := time.Unix(100, 0)
	l.now = func() time.Time { return now }

	require.True(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.1"))
	require.False(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.2"))

	now = now.Add(time.Second)
	require.True(t, l.Allow("10.0.0.1"))
	require.False(t, l.Allow("10.0.0.1"))
}

func TestLimiterPrune(t *testing.T) {
	l := New(2, 1)
	now := time.Unix(0, 0)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(time.Second)
	l.Allow("b")
	now = now.Add(time.Second)

	require.Equal(t, 1, l.Prune())
	require.Len(t, l.m, 1)
}
