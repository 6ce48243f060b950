package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"greentrain/internal/domain"
	"greentrain/internal/domain/models"
)

// trainCacheTTL bounds staleness of catalog reads served from Redis.
const trainCacheTTL = 5 * time.Minute

// TrainRepository is the train catalog: immutable Train snapshots stored
// as JSON documents keyed by id, optionally fronted by a Redis
// read-through cache. Trains are never mutated through this repository.
type TrainRepository struct {
	DB    *sql.DB
	Cache *redis.Client
}

// GetByID loads one train snapshot.
func (r TrainRepository) GetByID(id string) (*models.Train, error) {
	if r.Cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		if raw, err := r.Cache.Get(ctx, cacheKey(id)).Bytes(); err == nil {
			var train models.Train
			if err := json.Unmarshal(raw, &train); err == nil {
				return &train, nil
			}
		}
	}

	var payload []byte
	err := r.DB.QueryRow(`SELECT payload FROM trains WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, domain.NotFoundError{Resource: "train"}
	}
	if err != nil {
		return nil, err
	}

	var train models.Train
	if err := json.Unmarshal(payload, &train); err != nil {
		return nil, domain.InternalError{Msg: "corrupt train payload", Err: err}
	}

	if r.Cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		_ = r.Cache.Set(ctx, cacheKey(id), payload, trainCacheTTL).Err()
	}
	return &train, nil
}

// ListActive returns the public listing: active and deprecated trains.
// hidden trains stay bookable by direct id but are not listed.
func (r TrainRepository) ListActive() ([]models.Train, error) {
	rows, err := r.DB.Query(`SELECT payload FROM trains WHERE status IN ('active', 'deprecated') ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Train{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return out, err
		}
		var train models.Train
		if err := json.Unmarshal(payload, &train); err != nil {
			return out, domain.InternalError{Msg: "corrupt train payload", Err: err}
		}
		out = append(out, train)
	}
	return out, rows.Err()
}

func cacheKey(id string) string { return "train:" + id }
