package config

import (
	"os"
	"strconv"
)

type ClaimPolicy struct {
	AllowNegativeBalance bool
	CheckBalanceOnSubmit bool
	MaxDeclaredValue     int64
	NotifyChannel        string
	NotifyQueueSize      int
}

// LoadClaimPolicy reads claim policy knobs from the environment. The active
// policy checks balance at resolution time only; CheckBalanceOnSubmit exists
// for deployments that also want to reject oversized claims up front.
func LoadClaimPolicy() *ClaimPolicy {
	return &ClaimPolicy{
		AllowNegativeBalance: getEnvAsBool("CLAIMS_ALLOW_NEGATIVE_BALANCE", false),
		CheckBalanceOnSubmit: getEnvAsBool("CLAIMS_CHECK_BALANCE_ON_SUBMIT", false),
		MaxDeclaredValue:     getEnvAsInt64("CLAIMS_MAX_DECLARED_VALUE", 1_000_000),
		NotifyChannel:        getEnv("CLAIMS_NOTIFY_CHANNEL", "claim-notifications"),
		NotifyQueueSize:      int(getEnvAsInt64("CLAIMS_NOTIFY_QUEUE_SIZE", 256)),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}
