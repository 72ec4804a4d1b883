package router

import (
	"context"
	"crypto/subtle"
	"math"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"github.com/hertz-contrib/keyauth"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/rs/zerolog"

	"github.com/induwarapathirana/cv-creator-sub000/internal/api/handler"
	"github.com/induwarapathirana/cv-creator-sub000/internal/logger"
	"github.com/induwarapathirana/cv-creator-sub000/internal/ratelimit"
)

// RequestIDHeader 请求ID头
const RequestIDHeader = "X-Request-ID"

// Options 路由中间件配置
type Options struct {
	// APIKeys 为空时不启用鉴权
	APIKeys    []string
	AuthHeader string
	// Tracing 为 nil 时不注册追踪中间件
	Tracing   *hertztracing.Config
	AccessLog bool
	Logger    zerolog.Logger
	// RateLimiter 为 nil 时不限流
	RateLimiter *ratelimit.TokenBucket
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, importHandler *handler.ResumeImportHandler, opts Options) {
	if opts.Tracing != nil {
		h.Use(hertztracing.ServerMiddleware(opts.Tracing))
	}
	h.Use(RequestID(opts.Logger))
	if opts.AccessLog {
		h.Use(AccessLog())
	}

	api := h.Group("/api/v1")
	api.GET("/health", importHandler.HandleHealth)

	var guards []app.HandlerFunc
	if len(opts.APIKeys) > 0 {
		guards = append(guards, APIKeyAuth(opts.APIKeys, opts.AuthHeader))
	}
	if opts.RateLimiter != nil {
		guards = append(guards, RateLimit(opts.RateLimiter))
	}
	resume := api.Group("/resume", guards...)
	resume.POST("/import", importHandler.HandleImportPDF)
	resume.POST("/import/text", importHandler.HandleImportText)
	resume.POST("/import/async", importHandler.HandleImportAsync)
	resume.GET("/import/:uuid", importHandler.HandleGetImport)
}

// RequestID 透传或生成请求ID，并把带请求ID的日志记录器放入上下文
func RequestID(base zerolog.Logger) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		id := string(c.GetHeader(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Response.Header.Set(RequestIDHeader, id)

		l := base.With().Str("request_id", id).Logger()
		c.Next(l.WithContext(ctx))
	}
}

// AccessLog 记录请求方法、路径、状态码和耗时
func AccessLog() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)
		logger.Ctx(ctx).Info().
			Str("method", string(c.Method())).
			Str("path", string(c.Path())).
			Int("status", c.Response.StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// APIKeyAuth 校验请求头中的 API Key
func APIKeyAuth(keys []string, header string) app.HandlerFunc {
	if header == "" {
		header = "X-API-Key"
	}
	allowed := make([][]byte, 0, len(keys))
	for _, k := range keys {
		allowed = append(allowed, []byte(k))
	}
	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+header, ""),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			for _, k := range allowed {
				if subtle.ConstantTimeCompare(k, []byte(key)) == 1 {
					return true, nil
				}
			}
			return false, keyauth.ErrMissingOrMalformedAPIKey
		}),
		keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
			c.AbortWithStatusJSON(consts.StatusUnauthorized, map[string]string{"error": "API Key 无效或缺失"})
		}),
	)
}

// RateLimit 令牌耗尽时返回 429 和 Retry-After
func RateLimit(tb *ratelimit.TokenBucket) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if tb.Allow() {
			c.Next(ctx)
			return
		}
		retry := int(math.Ceil(tb.RetryAfter().Seconds()))
		if retry < 1 {
			retry = 1
		}
		c.Response.Header.Set("Retry-After", strconv.Itoa(retry))
		c.AbortWithStatusJSON(consts.StatusTooManyRequests, map[string]string{"error": "请求过于频繁，请稍后重试"})
	}
}
