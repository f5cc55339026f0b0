package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBurstThenDeny(t *testing.T) {
	rl := NewRateLimiter(60, 2)

	assert.True(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
}

func TestRateLimiterPerClientIsolation(t *testing.T) {
	rl := NewRateLimiter(60, 1)

	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"))
}
