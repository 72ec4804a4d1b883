package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/induwarapathirana/cv-creator-sub000/internal/config"
	"github.com/induwarapathirana/cv-creator-sub000/internal/constants"
	"github.com/induwarapathirana/cv-creator-sub000/internal/tracing"
	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

// ErrNotFound 缓存或记录不存在
var ErrNotFound = errors.New("not found")

var redisTracer = otel.Tracer("resume-import/storage/redis")

// Redis 解析结果缓存
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建连接并注册 OpenTelemetry 钩子
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		MaxRetries:   cfg.MaxRetries,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{Client: client, config: cfg}, nil
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// ResultTTL 解析结果缓存的过期时间
func (r *Redis) ResultTTL() time.Duration {
	if r.config == nil || r.config.ResultTTLHours <= 0 {
		return constants.DefaultResultTTL
	}
	return time.Duration(r.config.ResultTTLHours) * time.Hour
}

// ParseResultKey 缓存键由解析器版本和文本MD5组成，版本变化后旧缓存自然失效
func ParseResultKey(parserVersion, textMD5 string) string {
	return fmt.Sprintf(constants.KeyParseResult, parserVersion, textMD5)
}

// TextMD5Key 文本MD5到首次提交UUID的映射键，与解析器版本无关
func TextMD5Key(textMD5 string) string {
	return fmt.Sprintf(constants.KeyTextMD5ToSubmissionUUID, textMD5)
}

// GetParseResult 读取缓存的解析结果，未命中时返回 ErrNotFound
func (r *Redis) GetParseResult(ctx context.Context, parserVersion, textMD5 string) (*types.CachedParse, error) {
	key := ParseResultKey(parserVersion, textMD5)
	ctx, span := redisTracer.Start(ctx, "Redis.GetParseResult", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		semconv.DBSystemRedis,
		attribute.String("db.operation", "GET"),
		attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
	)

	if r.Client == nil {
		return nil, fmt.Errorf("redis client is not initialized")
	}

	val, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.Bool("db.redis.key_exists", false))
		return nil, ErrNotFound
	}
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return nil, fmt.Errorf("读取解析缓存失败: %w", err)
	}

	var res types.CachedParse
	if err := json.Unmarshal(val, &res); err != nil {
		// 缓存内容损坏按未命中处理
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return nil, ErrNotFound
	}
	if res.Resume == nil {
		// 只有简历没有报告的旧条目
		span.SetAttributes(attribute.Bool("db.redis.key_exists", true), attribute.Bool("cache.legacy_entry", true))
		return nil, ErrNotFound
	}
	span.SetAttributes(attribute.Bool("db.redis.key_exists", true))
	return &res, nil
}

// SetParseResult 写入解析结果缓存
func (r *Redis) SetParseResult(ctx context.Context, parserVersion, textMD5 string, res *types.CachedParse) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("序列化解析结果失败: %w", err)
	}
	return r.Client.Set(ctx, ParseResultKey(parserVersion, textMD5), data, r.ResultTTL()).Err()
}

// CheckAndSetTextMD5 记录文本MD5对应的首次提交UUID
// 已存在时返回 true 和已有的UUID
func (r *Redis) CheckAndSetTextMD5(ctx context.Context, textMD5, submissionUUID string) (bool, string, error) {
	if r.Client == nil {
		return false, "", fmt.Errorf("redis client is not initialized")
	}

	key := TextMD5Key(textMD5)
	ok, err := r.Client.SetNX(ctx, key, submissionUUID, r.ResultTTL()).Result()
	if err != nil {
		return false, "", fmt.Errorf("执行SETNX失败: %w", err)
	}
	if ok {
		return false, "", nil
	}

	existing, err := r.Client.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return true, "", fmt.Errorf("获取已存在的submission_uuid失败: %w", err)
	}
	return true, existing, nil
}
