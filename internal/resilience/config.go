package resilience

import "time"

// RetryFromSettings builds a RetryConfig from configuration values. Zero
// values keep the defaults; attempts <= 1 disables retries.
func RetryFromSettings(attempts, initialBackoffMs, maxBackoffMs int) RetryConfig {
	if attempts <= 1 {
		return SingleAttempt()
	}
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = attempts
	if initialBackoffMs > 0 {
		cfg.InitialBackoff = time.Duration(initialBackoffMs) * time.Millisecond
	}
	if maxBackoffMs > 0 {
		cfg.MaxBackoff = time.Duration(maxBackoffMs) * time.Millisecond
	}
	return cfg
}

// BreakerFromSettings builds a BreakerConfig from configuration values.
func BreakerFromSettings(failureThreshold, cooldownSecs int) BreakerConfig {
	cfg := DefaultBreakerConfig()
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if cooldownSecs > 0 {
		cfg.Cooldown = time.Duration(cooldownSecs) * time.Second
	}
	return cfg
}
