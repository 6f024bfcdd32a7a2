package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fxconv-service/internal/application"
	"fxconv-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

const DefaultKey = "fxconv:snapshot"

// Store keeps the current snapshot as one JSON value that expires after TTL.
type Store struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

var _ application.SnapshotStore = (*Store)(nil)

func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{Client: client, Key: DefaultKey, TTL: ttl}
}

type snapshotRecord struct {
	Seq       uint64            `json:"seq"`
	USDToRUB  float64           `json:"usd_to_rub"`
	USDToKGS  float64           `json:"usd_to_kgs"`
	Status    string            `json:"status"`
	RUBSource string            `json:"rub_source,omitempty"`
	KGSSource string            `json:"kgs_source,omitempty"`
	Failures  map[string]string `json:"failures,omitempty"`
	FetchedAt time.Time         `json:"fetched_at"`
}

func (s *Store) Save(ctx context.Context, snap domain.RateSnapshot) error {
	rec := snapshotRecord{
		Seq:       snap.Seq,
		USDToRUB:  snap.USDToRUB,
		USDToKGS:  snap.USDToKGS,
		Status:    string(snap.Status),
		RUBSource: snap.RUBSource,
		KGSSource: snap.KGSSource,
		FetchedAt: snap.FetchedAt,
	}
	if len(snap.Failures) > 0 {
		rec.Failures = make(map[string]string, len(snap.Failures))
		for c, reason := range snap.Failures {
			rec.Failures[string(c)] = reason
		}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis snapshot: encode: %w", err)
	}
	if err := s.Client.Set(ctx, s.key(), b, s.TTL).Err(); err != nil {
		return fmt.Errorf("redis snapshot: set: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (domain.RateSnapshot, error) {
	b, err := s.Client.Get(ctx, s.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.RateSnapshot{}, domain.ErrNoSnapshot
	}
	if err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("redis snapshot: get: %w", err)
	}
	var rec snapshotRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("redis snapshot: decode: %w", err)
	}
	snap := domain.RateSnapshot{
		Seq:       rec.Seq,
		USDToRUB:  rec.USDToRUB,
		USDToKGS:  rec.USDToKGS,
		Status:    domain.SnapshotStatus(rec.Status),
		RUBSource: rec.RUBSource,
		KGSSource: rec.KGSSource,
		FetchedAt: rec.FetchedAt,
	}
	if len(rec.Failures) > 0 {
		snap.Failures = make(map[domain.Currency]string, len(rec.Failures))
		for c, reason := range rec.Failures {
			snap.Failures[domain.Currency(c)] = reason
		}
	}
	return snap, nil
}

func (s *Store) key() string {
	if s.Key == "" {
		return DefaultKey
	}
	return s.Key
}
