package config

import (
	"os"
	"strconv"
)

// Config holds every option the core recognizes (spec §6). All fields are
// optional; Load applies the defaults noted alongside each one.
type Config struct {
	// MSearchRepeatMs is the period for M-SEARCH re-emission.
	MSearchRepeatMs int
	// PostAliveRepeatMs is the period for NOTIFY alive re-emission (0 = one-shot).
	PostAliveRepeatMs int
	// SubscribeRepeatSec is the requested subscription duration.
	SubscribeRepeatSec int
	// EventSubscriptionRetryMs is the re-subscribe backoff on timeout (0 = disabled).
	EventSubscriptionRetryMs int
	// SchedulerIntervalMs is the scheduler tick cadence.
	SchedulerIntervalMs int
	// SubscriptionsIntervalMs is the publish() cadence.
	SubscriptionsIntervalMs int
	// HTTPRequestTimeoutMs is the timeout for outbound HTTP calls.
	HTTPRequestTimeoutMs int
	// DiscoveryNetmask is the IPv4 mask for accepting advertisements.
	DiscoveryNetmask string
	// MaxNotifyRetries is the per-notification retry cap before drop.
	MaxNotifyRetries int
}

// Load reads configuration from environment variables, applying the
// defaults given in spec §6 for anything unset.
func Load() Config {
	return Config{
		MSearchRepeatMs:          envInt("DLNA_MSEARCH_REPEAT_MS", 10000),
		PostAliveRepeatMs:        envInt("DLNA_POST_ALIVE_REPEAT_MS", 0),
		SubscribeRepeatSec:       envInt("DLNA_SUBSCRIBE_REPEAT_SEC", 3600),
		EventSubscriptionRetryMs: envInt("DLNA_EVENT_SUBSCRIPTION_RETRY_MS", 0),
		SchedulerIntervalMs:      envInt("DLNA_SCHEDULER_INTERVAL_MS", 500),
		SubscriptionsIntervalMs:  envInt("DLNA_SUBSCRIPTIONS_INTERVAL_MS", 1000),
		HTTPRequestTimeoutMs:     envInt("DLNA_HTTP_REQUEST_TIMEOUT_MS", 20000),
		DiscoveryNetmask:         envString("DLNA_DISCOVERY_NETMASK", ""),
		MaxNotifyRetries:         envInt("DLNA_MAX_NOTIFY_RETRIES", 3),
	}
}

func envString(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
