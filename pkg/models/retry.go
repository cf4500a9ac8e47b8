package models

import "time"

// RetryPolicy controls gateway-side retry behavior for a single task.
type RetryPolicy struct {
	// MaxRetries is the total number of execution attempts allowed.
	MaxRetries int `json:"max_retries"`
	// BackoffMultiplier scales the delay between consecutive attempts.
	BackoffMultiplier float64 `json:"backoff_multiplier"`
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration `json:"initial_delay"`
}

// DefaultRetryPolicy returns the policy applied when a step defines none:
// 3 attempts, doubling backoff, 1s initial delay.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:        3,
		BackoffMultiplier: 2.0,
		InitialDelay:      time.Second,
	}
}

// Delay returns the backoff delay before the given retry attempt
// (1-indexed). Attempt 1 waits InitialDelay, attempt 2 waits
// InitialDelay*BackoffMultiplier, and so on.
func (p *RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= p.BackoffMultiplier
	}
	return time.Duration(d)
}
