package repositories

import (
	"strings"

	"courier-route-service/internal/domain"
)

// matchesQuery reports whether the folded query occurs in the tracking number or
// address. Folding happens in Go so every store matches non-ASCII text the same way.
func matchesQuery(p *domain.Package, foldedQuery string) bool {
	return strings.Contains(strings.ToLower(p.TrackingNumber), foldedQuery) ||
		strings.Contains(strings.ToLower(p.Address), foldedQuery)
}

func filterPackages(pkgs []*domain.Package, query string) []*domain.Package {
	q := strings.ToLower(query)
	out := make([]*domain.Package, 0, len(pkgs))
	for _, p := range pkgs {
		if matchesQuery(p, q) {
			out = append(out, p)
		}
	}
	return out
}
