package auth

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRotationPolicyCheckExpireTime(t *testing.T) {
	clock := &fakeClock{now: t0}
	policy := NewRotationPolicy(24*time.Hour, clock.Now)

	tests := []struct {
		name    string
		claimed int64
		rotate  bool
	}{
		{"zero", 0, true},
		{"negative", -1, true},
		{"already past", t0.Add(-time.Minute).UnixMilli(), true},
		{"inside threshold", t0.Add(23 * time.Hour).UnixMilli(), true},
		{"exactly at threshold", t0.Add(24 * time.Hour).UnixMilli(), true},
		{"just beyond threshold", t0.Add(24*time.Hour + time.Millisecond).UnixMilli(), false},
		{"full refresh life", t0.Add(7 * 24 * time.Hour).UnixMilli(), false},
		{"max int", math.MaxInt64, false},
		{"min int", math.MinInt64, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.rotate, policy.CheckExpireTime(tt.claimed))
		})
	}
}

func TestRotationPolicyIsMonotonic(t *testing.T) {
	clock := &fakeClock{now: t0}
	policy := NewRotationPolicy(24*time.Hour, clock.Now)

	claimed := t0.Add(3 * 24 * time.Hour).UnixMilli()
	require.False(t, policy.CheckExpireTime(claimed))

	clock.Advance(2*24*time.Hour + time.Hour)
	require.True(t, policy.CheckExpireTime(claimed))
}

func TestRotationPolicyZeroThreshold(t *testing.T) {
	clock := &fakeClock{now: t0}
	policy := NewRotationPolicy(-time.Hour, clock.Now)

	require.False(t, policy.CheckExpireTime(t0.Add(time.Second).UnixMilli()))
	require.True(t, policy.CheckExpireTime(t0.UnixMilli()))
}
