package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType 写入 span 的 error.type 属性
type ErrorType string

const (
	ErrorTypeHTTP        ErrorType = "http"
	ErrorTypeDB          ErrorType = "db"
	ErrorTypeRedis       ErrorType = "redis"
	ErrorTypeRabbitMQ    ErrorType = "rabbitmq"
	ErrorTypeObjectStore ErrorType = "object_store"
	ErrorTypeExtract     ErrorType = "extract"
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeTimeout     ErrorType = "timeout"
)

// RecordError 记录错误并把 span 状态置为 Error
func RecordError(span trace.Span, err error, errorType ErrorType, extra ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}
	msg := err.Error()
	span.RecordError(err)
	span.SetAttributes(append([]attribute.KeyValue{
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", TruncateString(msg, DefaultMaxLength)),
	}, extra...)...)
	span.SetStatus(codes.Error, msg)
}

// RecordHTTPError 记录返回给调用方的错误响应
// 4xx 只打属性不改 span 状态，5xx 视为服务端错误
func RecordHTTPError(span trace.Span, err error, statusCode int) {
	if span == nil || err == nil || !span.IsRecording() {
		return
	}
	if statusCode < 500 {
		span.SetAttributes(
			attribute.Int("http.status_code", statusCode),
			attribute.String("error.category", "client_error"),
			attribute.String("error.message", TruncateString(err.Error(), DefaultMaxLength)),
		)
		return
	}
	RecordError(span, err, ErrorTypeHTTP,
		attribute.Int("http.status_code", statusCode),
		attribute.String("error.category", "server_error"),
	)
}

// RecordRequeue 标记消费的消息被 nack 重新入队
func RecordRequeue(span trace.Span, messageID, reason string) {
	if span == nil {
		return
	}
	if reason == "" {
		reason = "requeued"
	}
	span.SetAttributes(
		attribute.String("error.type", string(ErrorTypeRabbitMQ)),
		attribute.String("messaging.message_id", messageID),
		attribute.String("messaging.operation.result", "nack"),
		attribute.String("error.message", TruncateString(reason, DefaultMaxLength)),
	)
	span.SetStatus(codes.Error, reason)
}
