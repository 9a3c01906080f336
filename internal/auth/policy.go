package auth

import "time"

// RotationPolicy decides whether a caller's refresh token is due for rotation.
type RotationPolicy struct {
	rotateBefore time.Duration
	now          Clock
}

// NewRotationPolicy rotates refresh tokens whose remaining life is at most rotateBefore.
func NewRotationPolicy(rotateBefore time.Duration, now Clock) RotationPolicy {
	if rotateBefore < 0 {
		rotateBefore = 0
	}
	if now == nil {
		now = time.Now
	}
	return RotationPolicy{rotateBefore: rotateBefore, now: now}
}

// CheckExpireTime reports true when the claimed expiry (epoch milliseconds) leaves
// no more than the rotation threshold of life. Zero, negative and past values rotate.
func (p RotationPolicy) CheckExpireTime(claimedExpiryMillis int64) bool {
	if claimedExpiryMillis <= 0 {
		return true
	}
	remaining := time.UnixMilli(claimedExpiryMillis).Sub(p.now())
	return remaining <= p.rotateBefore
}
