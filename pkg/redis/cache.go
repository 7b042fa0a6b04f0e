package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides typed caching utilities
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves a cached value
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	return c.client.Redis().Del(ctx, c.fullKey(key)).Err()
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Predefined TTLs
const (
	TTLShort  = 1 * time.Minute  // 패널 품질 리포트
	TTLMedium = 10 * time.Minute // 실행 목록
	TTLDaily  = 24 * time.Hour   // 백테스트 리포트 (패널 지문으로 무효화)
)

// ReportKey identifies a backtest report by its inputs: the panel fingerprint
// and the parameters (or strategy config hash) the run is a pure function of
func ReportKey(panelFingerprint string, initYear, endYear, topN int, reference, benchmarkPolicy string) string {
	return fmt.Sprintf("report:%s:%d:%d:%d:%s:%s",
		shortHash(panelFingerprint), initYear, endYear, topN, reference, benchmarkPolicy)
}

// QualityKey identifies a panel quality report
func QualityKey(panelFingerprint string, initYear, endYear, topN int, reference string) string {
	return fmt.Sprintf("quality:%s:%d:%d:%d:%s", shortHash(panelFingerprint), initYear, endYear, topN, reference)
}

func shortHash(h string) string {
	if len(h) > 16 {
		return h[:16]
	}
	return h
}
