package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the limit for one method and path (or path prefix).
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int           // requests per Window
	Window time.Duration
	Burst  int // defaults to Limit when 0
}

// LoadConfig loads rate limiting configuration from RATE_LIMIT_* environment variables.
func LoadConfig() *Config {
	if !getEnvBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow:   getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(getEnvString("RATE_LIMIT_WHITELIST", "")),
		Blacklist:       parseIPList(getEnvString("RATE_LIMIT_BLACKLIST", "")),
		EndpointConfigs: DefaultEndpointConfigs(getEnvInt("RATE_LIMIT_LOGIN_LIMIT", 10)),
	}
}

// DefaultEndpointConfigs returns the console tiers. loginLimit is the number of
// login attempts allowed per client per minute.
func DefaultEndpointConfigs(loginLimit int) []EndpointConfig {
	return []EndpointConfig{
		// Login attempts (strictest)
		{Path: "/", Method: "POST", Limit: loginLimit, Window: time.Minute, Burst: max(loginLimit/2, 1)},

		// Mutations forwarded to the API
		{Path: "/admin/dashboard/egresados/", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/admin/dashboard/forms/", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/admin/dashboard/advertisements", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},

		// Exports download whole spreadsheets
		{Path: "/admin/dashboard/forms/", Method: "GET", Limit: 120, Window: time.Minute, Burst: 30},

		// Reads use the default limit; /health and /metrics are unlimited.
	}
}

func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
