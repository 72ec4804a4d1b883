package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/induwarapathirana/cv-creator-sub000/internal/config"
)

// MessageQueue 消息队列接口
type MessageQueue interface {
	PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error
	EnsureExchange(exchangeName, exchangeType string, durable bool) error
	EnsureQueue(queueName string, durable bool) error
	BindQueue(queueName, exchangeName, routingKey string) error
	Close() error
}

var _ MessageQueue = (*RabbitMQ)(nil)

// MessageHandler 返回 false 时消息被重新入队
type MessageHandler func(ctx context.Context, body []byte) bool

// RabbitMQ 发布解析请求和解析完成事件
type RabbitMQ struct {
	conn         *amqp.Connection
	channelPool  sync.Pool
	mu           sync.Mutex
	declared     map[string]bool // 键带 exchange:/queue:/binding: 前缀
	publishMutex sync.Mutex
	cfg          *config.RabbitMQConfig
	logger       zerolog.Logger
}

// NewRabbitMQ 创建RabbitMQ客户端
func NewRabbitMQ(cfg *config.RabbitMQConfig, logger zerolog.Logger) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("RabbitMQ配置不能为空")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器: %w", err)
	}

	mq := &RabbitMQ{
		conn:     conn,
		declared: make(map[string]bool),
		cfg:      cfg,
		logger:   logger.With().Str("component", "rabbitmq").Logger(),
	}
	// 验证连接可以开通道
	testCh, err := mq.getChannel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	mq.putChannel(testCh)

	mq.logger.Info().Msg("成功连接到RabbitMQ服务器")
	return mq, nil
}

// getChannel 从池中取通道，池里的通道已关闭时新开一个
func (r *RabbitMQ) getChannel() (*amqp.Channel, error) {
	if ch, ok := r.channelPool.Get().(*amqp.Channel); ok && ch != nil && !ch.IsClosed() {
		return ch, nil
	}
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("无法获取RabbitMQ通道: %w", err)
	}
	return ch, nil
}

func (r *RabbitMQ) putChannel(ch *amqp.Channel) {
	if ch != nil && !ch.IsClosed() {
		r.channelPool.Put(ch)
	}
}

// declareOnce 同一个 key 只声明一次，声明失败不记录
func (r *RabbitMQ) declareOnce(key string, declare func(ch *amqp.Channel) error) error {
	r.mu.Lock()
	done := r.declared[key]
	r.mu.Unlock()
	if done {
		return nil
	}

	ch, err := r.getChannel()
	if err != nil {
		return err
	}
	defer r.putChannel(ch)
	if err := declare(ch); err != nil {
		return err
	}

	r.mu.Lock()
	r.declared[key] = true
	r.mu.Unlock()
	r.logger.Debug().Str("key", key).Msg("RabbitMQ拓扑已声明")
	return nil
}

// Close 关闭连接
func (r *RabbitMQ) Close() error {
	return r.conn.Close()
}

// EnsureExchange 确保exchange存在，不允许声明默认交换机
func (r *RabbitMQ) EnsureExchange(exchangeName, exchangeType string, durable bool) error {
	switch exchangeName {
	case "":
		return fmt.Errorf("exchange名称不能为空")
	case "amq.default", "default":
		return fmt.Errorf("不能声明默认交换机 '%s'", exchangeName)
	}
	return r.declareOnce("exchange:"+exchangeName, func(ch *amqp.Channel) error {
		if err := ch.ExchangeDeclare(exchangeName, exchangeType, durable, false, false, false, nil); err != nil {
			return fmt.Errorf("声明exchange %s 失败: %w", exchangeName, err)
		}
		return nil
	})
}

// EnsureQueue 确保队列存在
func (r *RabbitMQ) EnsureQueue(queueName string, durable bool) error {
	return r.declareOnce("queue:"+queueName, func(ch *amqp.Channel) error {
		if _, err := ch.QueueDeclare(queueName, durable, false, false, false, nil); err != nil {
			return fmt.Errorf("声明队列 %s 失败: %w", queueName, err)
		}
		return nil
	})
}

// BindQueue 绑定队列到exchange
func (r *RabbitMQ) BindQueue(queueName, exchangeName, routingKey string) error {
	key := "binding:" + exchangeName + ":" + queueName + ":" + routingKey
	return r.declareOnce(key, func(ch *amqp.Channel) error {
		if err := ch.QueueBind(queueName, routingKey, exchangeName, false, nil); err != nil {
			return fmt.Errorf("绑定队列 %s 到 %s 失败: %w", queueName, exchangeName, err)
		}
		return nil
	})
}

// SetupTopology 声明导入流程用到的交换机、队列和绑定
func (r *RabbitMQ) SetupTopology() error {
	if err := r.EnsureExchange(r.cfg.ImportExchange, "direct", true); err != nil {
		return err
	}
	if err := r.EnsureQueue(r.cfg.ParseRequestQueue, true); err != nil {
		return err
	}
	if err := r.BindQueue(r.cfg.ParseRequestQueue, r.cfg.ImportExchange, r.cfg.ParseRequestKey); err != nil {
		return err
	}
	return r.EnsureExchange(r.cfg.EventsExchange, "topic", true)
}

// PublishMessage 发布消息到exchange
func (r *RabbitMQ) PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error {
	r.publishMutex.Lock()
	defer r.publishMutex.Unlock()

	ch, err := r.getChannel()
	if err != nil {
		return err
	}
	defer r.putChannel(ch)

	deliveryMode := amqp.Transient
	if persistent {
		deliveryMode = amqp.Persistent
	}

	return ch.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		DeliveryMode: deliveryMode,
		ContentType:  "application/json",
		Body:         message,
		Timestamp:    time.Now(),
	})
}

// PublishJSON 发布JSON格式的消息
func (r *RabbitMQ) PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("JSON序列化失败: %w", err)
	}
	return r.PublishMessage(ctx, exchangeName, routingKey, jsonData, persistent)
}

// StartConsumer 启动消费者，ctx 取消后停止
// 返回的 done 在消费协程退出后关闭
func (r *RabbitMQ) StartConsumer(ctx context.Context, queueName string, prefetchCount int, handler MessageHandler) (<-chan struct{}, error) {
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("无法获取RabbitMQ通道: %w", err)
	}

	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("设置QoS失败: %w", err)
	}

	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("注册消费者失败: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer ch.Close()
		r.logger.Info().Str("queue", queueName).Int("prefetch", prefetchCount).Msg("RabbitMQ消费者已启动")
		defer r.logger.Info().Str("queue", queueName).Msg("RabbitMQ消费者已停止")

		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					r.logger.Warn().Str("queue", queueName).Msg("RabbitMQ投递通道已关闭")
					return
				}
				if handler(ctx, delivery.Body) {
					if err := delivery.Ack(false); err != nil {
						r.logger.Error().Err(err).Msg("确认消息失败")
					}
				} else if err := delivery.Nack(false, !delivery.Redelivered); err != nil {
					// 重投过一次仍失败的消息丢弃，避免毒消息无限循环
					r.logger.Error().Err(err).Msg("拒绝消息失败")
				}
			}
		}
	}()

	return done, nil
}
