package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/induwarapathirana/cv-creator-sub000/internal/constants"
	"github.com/induwarapathirana/cv-creator-sub000/internal/storage"
	"github.com/induwarapathirana/cv-creator-sub000/internal/storage/models"
	"github.com/induwarapathirana/cv-creator-sub000/internal/tracing"
	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

// EnqueuePDF 归档原件并发布解析请求，返回提交UUID
func (s *ImportService) EnqueuePDF(ctx context.Context, req ImportRequest) (string, error) {
	if !s.AsyncEnabled() {
		return "", newImportError("", "enqueue", ErrUnavailable, errors.New("异步导入需要MinIO和RabbitMQ"))
	}
	id, err := s.newSubmissionUUID()
	if err != nil {
		return "", err
	}

	ctx, span := importTracer.Start(ctx, "resume.enqueue", trace.WithAttributes(
		attribute.String("resume.submission_uuid", id),
		attribute.Int("file.size", len(req.Data)),
	))
	defer span.End()

	if err := s.checkPayload(id, req.Data); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return "", err
	}

	objectName, err := s.comp.Archive.UploadOriginal(ctx, id, req.FileName, req.Data)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return "", newImportError(id, "archive", ErrArchiveFailed, err)
	}

	now := s.set.Now()
	if s.comp.Repository != nil {
		err := s.comp.Repository.CreateImport(ctx, &models.ResumeImport{
			SubmissionUUID: id,
			Source:         constants.ImportSourceAsync,
			FileName:       req.FileName,
			Status:         models.ImportStatusPending,
			OriginalObject: objectName,
			ParserVersion:  s.set.ParserVersion,
			CreatedAt:      now,
		})
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeDB)
			return "", newImportError(id, "persist", ErrPersistFailed, err)
		}
	}

	msg := types.ParseRequestMessage{
		SubmissionUUID: id,
		OriginalObject: objectName,
		FileName:       req.FileName,
		Source:         constants.ImportSourceAsync,
		SubmittedAt:    now.UTC().Format(time.RFC3339Nano),
	}
	if err := s.comp.Publisher.PublishJSON(ctx, s.set.ImportExchange, s.set.ParseRequestKey, msg, true); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
		s.markFailed(ctx, id, err)
		return "", newImportError(id, "publish", ErrPublishFailed, err)
	}

	s.set.Logger.Info().Str("submission_uuid", id).Str("object", objectName).Msg("解析任务已入队")
	return id, nil
}

// StartParseConsumer 启动 workers 个消费者，ctx 取消后退出
// 返回的 channel 在全部消费者退出后关闭
func (s *ImportService) StartParseConsumer(ctx context.Context, workers int) (<-chan struct{}, error) {
	if s.comp.Consumer == nil || s.comp.Archive == nil {
		return nil, newImportError("", "consume", ErrUnavailable, errors.New("异步解析需要MinIO和RabbitMQ"))
	}
	if workers <= 0 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		done, err := s.comp.Consumer.StartConsumer(ctx, s.set.ParseRequestQueue, s.set.PrefetchCount, s.HandleParseRequest)
		if err != nil {
			return nil, fmt.Errorf("启动第 %d 个消费者失败: %w", i+1, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-done
		}()
	}

	all := make(chan struct{})
	go func() {
		wg.Wait()
		close(all)
	}()
	s.set.Logger.Info().Int("workers", workers).Str("queue", s.set.ParseRequestQueue).Msg("解析请求消费者已启动")
	return all, nil
}

// HandleParseRequest 处理一条解析请求
// 返回 false 表示临时失败，消息重新入队
func (s *ImportService) HandleParseRequest(ctx context.Context, body []byte) bool {
	var msg types.ParseRequestMessage
	if err := json.Unmarshal(body, &msg); err != nil || msg.SubmissionUUID == "" || msg.OriginalObject == "" {
		s.set.Logger.Error().Err(err).Bytes("body", truncateBody(body)).Msg("无法识别的解析请求，丢弃")
		return true
	}
	log := s.set.Logger.With().Str("submission_uuid", msg.SubmissionUUID).Logger()

	ctx, span := importTracer.Start(ctx, "resume.parse_request", trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.source.name", s.set.ParseRequestQueue),
			attribute.String("messaging.message_id", msg.SubmissionUUID),
		))
	defer span.End()

	data, err := s.comp.Archive.GetOriginal(ctx, msg.OriginalObject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Error().Err(err).Msg("原始文件不存在，丢弃解析请求")
			tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
			s.markFailed(ctx, msg.SubmissionUUID, err)
			return true
		}
		log.Warn().Err(err).Msg("下载原始文件失败，稍后重试")
		tracing.RecordRequeue(span, msg.SubmissionUUID, err.Error())
		return false
	}

	submittedAt, _ := time.Parse(time.RFC3339Nano, msg.SubmittedAt)
	_, err = s.ImportPDF(ctx, ImportRequest{
		SubmissionUUID: msg.SubmissionUUID,
		FileName:       msg.FileName,
		Data:           data,
		Source:         msg.Source,
		OriginalObject: msg.OriginalObject,
		SubmittedAt:    submittedAt,
	})
	if err == nil {
		return true
	}
	if IsPermanent(err) {
		log.Error().Err(err).Msg("解析请求处理失败")
		s.markFailed(ctx, msg.SubmissionUUID, err)
		return true
	}
	log.Warn().Err(err).Msg("解析请求处理失败，稍后重试")
	tracing.RecordRequeue(span, msg.SubmissionUUID, err.Error())
	return false
}

func (s *ImportService) markFailed(ctx context.Context, submissionUUID string, cause error) {
	if s.comp.Repository == nil {
		return
	}
	if err := s.comp.Repository.MarkImportFailed(ctx, submissionUUID, cause.Error()); err != nil {
		s.set.Logger.Error().Err(err).Str("submission_uuid", submissionUUID).Msg("标记导入失败状态失败")
	}
}

func truncateBody(body []byte) []byte {
	if len(body) > 256 {
		return body[:256]
	}
	return body
}
