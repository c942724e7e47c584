package redis

import "fmt"

const (
	// KeyPrefixRecord is the prefix for per-service record keys
	KeyPrefixRecord = "warden:service:"
	// KeyAllRecords is the key for the set of all persisted identities
	KeyAllRecords = "warden:services:all"
)

// RecordKey returns the Redis key for a service record by identity
func RecordKey(identity string) string {
	return KeyPrefixRecord + identity
}

// AllRecordsKey returns the key for the set of all persisted identities
func AllRecordsKey() string {
	return KeyAllRecords
}

// ExtractIdentity extracts the service identity from a record key
func ExtractIdentity(key string) (string, error) {
	if len(key) <= len(KeyPrefixRecord) {
		return "", fmt.Errorf("invalid record key: %s", key)
	}
	return key[len(KeyPrefixRecord):], nil
}
