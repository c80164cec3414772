package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/ports"

	"github.com/redis/go-redis/v9"
)

// RedisLocationStore keeps each courier's fixes in a capped Redis list, newest first.
type RedisLocationStore struct {
	Client *redis.Client
}

func NewRedisLocationStore(client *redis.Client) *RedisLocationStore {
	return &RedisLocationStore{Client: client}
}

type storedFix struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	ReportedAt time.Time `json:"reported_at"`
}

func locationKey(courierID string) string {
	return "courier:" + courierID + ":locations"
}

func (r *RedisLocationStore) UpdateLocation(ctx context.Context, courierID string, fix ports.LocationFix) error {
	if r.Client == nil {
		return errors.New("location store: redis client is nil")
	}
	if err := fix.Coords.Validate(); err != nil {
		return fmt.Errorf("update location: %w", err)
	}

	b, err := json.Marshal(storedFix{Lat: fix.Coords.Lat, Lon: fix.Coords.Lon, ReportedAt: fix.ReportedAt})
	if err != nil {
		return fmt.Errorf("update location: marshal: %w", err)
	}

	key := locationKey(courierID)
	pipe := r.Client.TxPipeline()
	pipe.LPush(ctx, key, b)
	pipe.LTrim(ctx, key, 0, HistoryLimit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update location %q: %w", courierID, err)
	}
	return nil
}

func (r *RedisLocationStore) CurrentLocation(ctx context.Context, courierID string) (ports.LocationFix, error) {
	fixes, err := r.History(ctx, courierID, 1)
	if err != nil {
		return ports.LocationFix{}, err
	}
	if len(fixes) == 0 {
		return ports.LocationFix{}, fmt.Errorf("courier %q: %w", courierID, ports.ErrLocationUnavailable)
	}
	return fixes[0], nil
}

func (r *RedisLocationStore) History(ctx context.Context, courierID string, limit int) ([]ports.LocationFix, error) {
	if r.Client == nil {
		return nil, errors.New("location store: redis client is nil")
	}
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}

	vals, err := r.Client.LRange(ctx, locationKey(courierID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("location history %q: %w", courierID, err)
	}

	out := make([]ports.LocationFix, 0, len(vals))
	for _, v := range vals {
		var f storedFix
		if err := json.Unmarshal([]byte(v), &f); err != nil {
			return nil, fmt.Errorf("location history %q: decode: %w", courierID, err)
		}
		out = append(out, ports.LocationFix{
			Coords:     domain.Coordinates{Lat: f.Lat, Lon: f.Lon},
			ReportedAt: f.ReportedAt,
		})
	}
	return out, nil
}
