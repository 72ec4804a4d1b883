// Package outbox 将与导入记录同事务写入的事件异步投递到消息队列
package outbox

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/induwarapathirana/cv-creator-sub000/internal/storage/models"
	"github.com/induwarapathirana/cv-creator-sub000/internal/tracing"
)

const (
	defaultPollingInterval = 5 * time.Second
	defaultBatchSize       = 10
	maxRetryCount          = 5
)

// Publisher 消息发布能力，由 storage.RabbitMQ 实现
type Publisher interface {
	PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error
}

// Option 配置 MessageRelay
type Option func(*MessageRelay)

// WithPollingInterval 设置轮询间隔
func WithPollingInterval(d time.Duration) Option {
	return func(r *MessageRelay) {
		if d > 0 {
			r.pollingInterval = d
		}
	}
}

// WithBatchSize 设置每批处理数量
func WithBatchSize(n int) Option {
	return func(r *MessageRelay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// MessageRelay 轮询 outbox 表并发布消息
// 多实例部署时依靠 FOR UPDATE SKIP LOCKED 分摊消息
type MessageRelay struct {
	db              *gorm.DB
	publisher       Publisher
	logger          zerolog.Logger
	pollingInterval time.Duration
	batchSize       int
	tracer          trace.Tracer
}

// NewMessageRelay 创建 MessageRelay
func NewMessageRelay(db *gorm.DB, publisher Publisher, logger zerolog.Logger, opts ...Option) *MessageRelay {
	r := &MessageRelay{
		db:              db,
		publisher:       publisher,
		logger:          logger.With().Str("component", "outbox-relay").Logger(),
		pollingInterval: defaultPollingInterval,
		batchSize:       defaultBatchSize,
		tracer:          otel.Tracer("resume-import/outbox"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run 阻塞轮询直到 ctx 取消
func (r *MessageRelay) Run(ctx context.Context) {
	r.logger.Info().Dur("interval", r.pollingInterval).Int("batch", r.batchSize).Msg("MessageRelay starting")
	ticker := time.NewTicker(r.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("MessageRelay stopped")
			return
		case <-ticker.C:
			if err := r.processPendingMessages(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error().Err(err).Msg("处理待发布消息失败")
			}
		}
	}
}

// Start 在后台运行，返回的 channel 在退出后关闭
func (r *MessageRelay) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()
	return done
}

func (r *MessageRelay) processPendingMessages(ctx context.Context) error {
	var messages []models.OutboxMessage

	// 空轮询不创建 span
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", models.OutboxStatusPending).
		Order("created_at asc").
		Limit(r.batchSize).
		Find(&messages).Error
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return tx.Commit().Error
	}

	ctx, span := r.tracer.Start(ctx, "outbox.ProcessBatch",
		trace.WithAttributes(attribute.Int("messaging.batch.message_count", len(messages))),
	)
	defer span.End()

	r.publishBatch(ctx, messages, time.Now())

	for i := range messages {
		// 更新失败整批回滚，消息在下一轮重新拾取
		if err := tx.Save(&messages[i]).Error; err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeDB)
			return err
		}
	}
	return tx.Commit().Error
}

// publishBatch 逐条发布并更新消息状态，不访问数据库
func (r *MessageRelay) publishBatch(ctx context.Context, messages []models.OutboxMessage, now time.Time) (sent, failed int) {
	for i := range messages {
		msg := &messages[i]
		err := r.publisher.PublishMessage(ctx, msg.TargetExchange, msg.TargetRoutingKey, []byte(msg.Payload), true)
		applyPublishResult(msg, err, now)
		if err != nil {
			failed++
			r.logger.Warn().Err(err).
				Uint64("id", msg.ID).
				Str("aggregate_id", msg.AggregateID).
				Int("retries", msg.RetryCount).
				Msg("发布outbox消息失败")
			continue
		}
		sent++
	}
	return sent, failed
}

func applyPublishResult(msg *models.OutboxMessage, err error, now time.Time) {
	if err != nil {
		msg.RetryCount++
		msg.ErrorMessage = err.Error()
		if msg.RetryCount >= maxRetryCount {
			msg.Status = models.OutboxStatusFailed
		}
		return
	}
	msg.Status = models.OutboxStatusSent
	msg.ProcessedAt = &now
	msg.ErrorMessage = ""
}
