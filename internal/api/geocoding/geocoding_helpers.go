package geocoding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FACorreiaa/go-parisian-doors/internal/types"
)

// NormalizeAddress trims and collapses runs of whitespace.
func NormalizeAddress(address string) string {
	return strings.Join(strings.Fields(address), " ")
}

// BuildVariants lists the query strings tried for an address, most specific
// first.
func BuildVariants(address, postalCode string) []string {
	return []string{
		fmt.Sprintf("%s, %s, Paris, France", address, postalCode),
		fmt.Sprintf("%s, Paris %s, France", address, postalCode),
		fmt.Sprintf("%s, Paris, France", address),
		fmt.Sprintf("%s, %s", address, postalCode),
	}
}

// FormatReverse picks the most specific street form available.
func FormatReverse(lookup *types.ReverseLookup, lat, lon float64) string {
	if lookup != nil {
		road := strings.TrimSpace(lookup.Road)
		house := strings.TrimSpace(lookup.HouseNumber)
		switch {
		case road != "" && house != "":
			return house + " " + road
		case road != "":
			return road
		}
		if first, _, _ := strings.Cut(lookup.DisplayName, ","); strings.TrimSpace(first) != "" {
			return strings.TrimSpace(first)
		}
	}
	return fmt.Sprintf("GPS: %.6f, %.6f", lat, lon)
}

// Quarter returns the sub-city area name reported by the reverse lookup.
func Quarter(lookup *types.ReverseLookup) string {
	if lookup == nil {
		return types.DefaultNeighborhood
	}
	if q := firstNonEmpty(lookup.Quarter, lookup.Suburb, lookup.Neighbourhood, lookup.District); q != "" {
		return q
	}
	return types.DefaultNeighborhood
}

func geocodeCacheKey(address, postalCode string) string {
	return "search:" + strings.ToLower(address) + "|" + postalCode
}

func reverseCacheKey(lat, lon float64) string {
	return fmt.Sprintf("reverse:%.6f:%.6f", lat, lon)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
