package providers

import (
	"context"
	"fmt"
)

// DashboardInvalidator drops the cached dashboard counters of a location
type DashboardInvalidator interface {
	InvalidateLocation(ctx context.Context, locationID string) error
}

// DashboardCacheKey builds the key of one cached dashboard counter
func DashboardCacheKey(locationID, counter string) string {
	return fmt.Sprintf("dashboard:%s:%s", locationID, counter)
}

// DashboardCachePattern matches every cached counter of a location
func DashboardCachePattern(locationID string) string {
	return DashboardCacheKey(locationID, "*")
}

// DashboardGenerationKey holds the current cache generation of a location.
// Counters are cached under the generation read before the store query, and
// invalidation moves the generation on, so a value computed before a
// transition can never be served after it. The key sits outside
// DashboardCachePattern so deleting counters keeps it.
func DashboardGenerationKey(locationID string) string {
	return fmt.Sprintf("dashboard-gen:%s", locationID)
}
