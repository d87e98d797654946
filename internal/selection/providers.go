package selection

import (
	"strings"

	"movienight-workers/internal/tmdb"
)

// FlattenProviders extracts region from resp and tags every entry with its
// kind. The result is never nil.
func FlattenProviders(resp *tmdb.WatchProvidersResponse, region string) []Provider {
	out := []Provider{}
	if resp == nil {
		return out
	}
	var block tmdb.RegionProviders
	found := false
	for code, b := range resp.Results {
		if strings.EqualFold(code, region) {
			block, found = b, true
			break
		}
	}
	if !found {
		return out
	}

	add := func(records []tmdb.ProviderRecord, kind ProviderKind) {
		for _, r := range records {
			out = append(out, Provider{
				ID:       r.ProviderID,
				Name:     r.ProviderName,
				LogoPath: r.LogoPath,
				Kind:     kind,
			})
		}
	}
	add(block.Flatrate, KindStreaming)
	add(block.Rent, KindRental)
	add(block.Buy, KindPurchase)
	return out
}

// OfKind filters providers by kind.
func OfKind(providers []Provider, kind ProviderKind) []Provider {
	out := []Provider{}
	for _, p := range providers {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

func hasAnyProvider(providers []Provider, ids []int) bool {
	if len(ids) == 0 {
		return len(providers) > 0
	}
	for _, p := range providers {
		for _, id := range ids {
			if p.ID == id {
				return true
			}
		}
	}
	return false
}
