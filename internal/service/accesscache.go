package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/bigkaa/accessadmin/internal/domain/model"
)

// Prometheus-метрики кэша карт доступа.
var (
	accessCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aa_access_cache_hits_total",
		Help: "Попадания в кэш карт доступа.",
	}, []string{"store"})
	accessCacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aa_access_cache_misses_total",
		Help: "Промахи кэша карт доступа.",
	}, []string{"store"})
)

// AccessCache — кэш карт «код модуля → уровень backend» по id пользователя.
type AccessCache interface {
	Get(ctx context.Context, userID int) (map[string]model.PermissionType, bool)
	Set(ctx context.Context, userID int, access map[string]model.PermissionType)
	Invalidate(ctx context.Context, userID int)
}

// LRUAccessCache — in-process кэш с TTL (один на экземпляр консоли).
type LRUAccessCache struct {
	cache *expirable.LRU[int, map[string]model.PermissionType]
}

// NewLRUAccessCache создаёт LRU-кэш с указанным размером и TTL.
func NewLRUAccessCache(maxSize int, ttl time.Duration) *LRUAccessCache {
	return &LRUAccessCache{
		cache: expirable.NewLRU[int, map[string]model.PermissionType](maxSize, nil, ttl),
	}
}

func (c *LRUAccessCache) Get(_ context.Context, userID int) (map[string]model.PermissionType, bool) {
	val, ok := c.cache.Get(userID)
	if ok {
		accessCacheHitsTotal.WithLabelValues("lru").Inc()
		return val, true
	}
	accessCacheMissesTotal.WithLabelValues("lru").Inc()
	return nil, false
}

func (c *LRUAccessCache) Set(_ context.Context, userID int, access map[string]model.PermissionType) {
	c.cache.Add(userID, access)
}

func (c *LRUAccessCache) Invalidate(_ context.Context, userID int) {
	c.cache.Remove(userID)
}

// RedisAccessCache — общий кэш для нескольких реплик консоли.
// Ошибки Redis не прерывают запрос: Get трактует их как промах.
type RedisAccessCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisClient подключается к Redis и проверяет соединение.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		// Без повторов: ошибка Redis трактуется как промах
		MaxRetries: -1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("подключение к Redis %s: %w", addr, err)
	}
	return client, nil
}

// NewRedisAccessCache создаёт кэш поверх готового клиента.
func NewRedisAccessCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisAccessCache {
	return &RedisAccessCache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "access_cache_redis")),
	}
}

// accessKey формирует ключ записи кэша.
func accessKey(userID int) string {
	return "accessadmin:access:v1:" + strconv.Itoa(userID)
}

func (c *RedisAccessCache) Get(ctx context.Context, userID int) (map[string]model.PermissionType, bool) {
	data, err := c.client.Get(ctx, accessKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Ошибка чтения из Redis",
				slog.Int("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		accessCacheMissesTotal.WithLabelValues("redis").Inc()
		return nil, false
	}

	var access map[string]model.PermissionType
	if err := json.Unmarshal(data, &access); err != nil {
		c.logger.Warn("Повреждённая запись кэша", slog.Int("user_id", userID))
		accessCacheMissesTotal.WithLabelValues("redis").Inc()
		return nil, false
	}
	accessCacheHitsTotal.WithLabelValues("redis").Inc()
	return access, true
}

func (c *RedisAccessCache) Set(ctx context.Context, userID int, access map[string]model.PermissionType) {
	data, err := json.Marshal(access)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, accessKey(userID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("Ошибка записи в Redis",
			slog.Int("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

func (c *RedisAccessCache) Invalidate(ctx context.Context, userID int) {
	if err := c.client.Del(ctx, accessKey(userID)).Err(); err != nil {
		c.logger.Warn("Ошибка инвалидации Redis",
			slog.Int("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// CheckReady проверяет Redis для /health/ready.
func (c *RedisAccessCache) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return "fail", fmt.Sprintf("Redis недоступен: %v", err)
	}
	return "ok", "подключение активно"
}
