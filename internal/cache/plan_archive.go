package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/config"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	latestPlanKey  = "reorder_plan:latest"
	defaultPlanTTL = 24 * time.Hour
	pingTimeout    = 5 * time.Second
)

// PlanArchive keeps the most recent reorder plan for clients that only poll.
// It is never read to answer an optimization request.
type PlanArchive interface {
	Record(ctx context.Context, plan domain.ArchivedPlan) error
	Latest(ctx context.Context) (*domain.ArchivedPlan, bool, error)
	Clear(ctx context.Context) error
}

type redisPlanArchive struct {
	client *redis.Client
	ttl    time.Duration
}

type noopPlanArchive struct{}

func NewPlanArchive(cfg config.CacheConfig) (PlanArchive, error) {
	if !cfg.Enabled {
		return &noopPlanArchive{}, nil
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisPlanArchive(client, time.Duration(cfg.PlanTTLSeconds)*time.Second), nil
}

// redisOptions prefers REDIS_URL and falls back to host, port, password and db.
func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(valueOr(cfg.RedisHost, "127.0.0.1"), valueOr(cfg.RedisPort, "6379")),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func NewRedisPlanArchive(client *redis.Client, ttl time.Duration) PlanArchive {
	if ttl <= 0 {
		ttl = defaultPlanTTL
	}
	return &redisPlanArchive{client: client, ttl: ttl}
}

func NewNoopPlanArchive() PlanArchive {
	return &noopPlanArchive{}
}

func (a *redisPlanArchive) Record(ctx context.Context, plan domain.ArchivedPlan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode reorder plan: %w", err)
	}

	if err := a.client.Set(ctx, latestPlanKey, payload, a.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (a *redisPlanArchive) Latest(ctx context.Context) (*domain.ArchivedPlan, bool, error) {
	payload, err := a.client.Get(ctx, latestPlanKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var plan domain.ArchivedPlan
	if err := json.Unmarshal(payload, &plan); err != nil {
		return nil, false, fmt.Errorf("decode reorder plan: %w", err)
	}
	return &plan, true, nil
}

func (a *redisPlanArchive) Clear(ctx context.Context) error {
	if err := a.client.Del(ctx, latestPlanKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (n *noopPlanArchive) Record(ctx context.Context, plan domain.ArchivedPlan) error {
	return nil
}

func (n *noopPlanArchive) Latest(ctx context.Context) (*domain.ArchivedPlan, bool, error) {
	return nil, false, nil
}

func (n *noopPlanArchive) Clear(ctx context.Context) error {
	return nil
}
