package services

import (
	"courier-route-service/internal/domain"
	"courier-route-service/internal/geo"
)

const DefaultClusterRadiusKm = 2.0

// ClusterTargets groups targets around seeds in a single greedy pass.
//
// Targets are scanned in input order; each target not yet clustered becomes a seed and
// collects every other unclustered target within radiusKm of the seed itself. Members are
// only compared with their seed, so two members of one cluster may be further apart than
// radiusKm. Targets without coordinates are left out. A non-positive radius uses
// DefaultClusterRadiusKm.
func ClusterTargets(targets []domain.DeliveryTarget, radiusKm float64) [][]domain.DeliveryTarget {
	if radiusKm <= 0 {
		radiusKm = DefaultClusterRadiusKm
	}

	clusters := make([][]domain.DeliveryTarget, 0)
	clustered := make([]bool, len(targets))

	for i, seed := range targets {
		seedCoords, ok := seed.Coords()
		if clustered[i] || !ok {
			continue
		}

		cluster := []domain.DeliveryTarget{seed}
		clustered[i] = true

		for j, other := range targets {
			if clustered[j] {
				continue
			}
			otherCoords, ok := other.Coords()
			if !ok {
				continue
			}
			if geo.HaversineKm(seedCoords, otherCoords) <= radiusKm {
				cluster = append(cluster, other)
				clustered[j] = true
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters
}
