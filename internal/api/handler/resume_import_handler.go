package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/induwarapathirana/cv-creator-sub000/internal/processor"
	"github.com/induwarapathirana/cv-creator-sub000/internal/storage/models"
	"github.com/induwarapathirana/cv-creator-sub000/internal/tracing"
	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

// ImportService 处理器对外提供的导入能力
type ImportService interface {
	ImportPDF(ctx context.Context, req processor.ImportRequest) (*processor.ImportResult, error)
	ImportText(ctx context.Context, req processor.TextRequest) (*processor.ImportResult, error)
	EnqueuePDF(ctx context.Context, req processor.ImportRequest) (string, error)
	GetImport(ctx context.Context, submissionUUID string) (*models.ResumeImport, error)
}

var _ ImportService = (*processor.ImportService)(nil)

// ResumeImportHandler 简历导入接口
type ResumeImportHandler struct {
	svc            ImportService
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewResumeImportHandler 创建处理器，maxUploadBytes 为 0 表示不限制
func NewResumeImportHandler(svc ImportService, maxUploadBytes int64, logger zerolog.Logger) *ResumeImportHandler {
	return &ResumeImportHandler{
		svc:            svc,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With().Str("component", "resume-import-handler").Logger(),
	}
}

// TextImportRequest 纯文本导入请求体
type TextImportRequest struct {
	Text     string `json:"text"`
	Source   string `json:"source,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// AsyncImportResponse 异步导入响应
type AsyncImportResponse struct {
	SubmissionUUID string `json:"submission_uuid"`
	Status         string `json:"status"`
}

// ImportRecordResponse 导入记录详情
type ImportRecordResponse struct {
	SubmissionUUID string              `json:"submission_uuid"`
	Status         string              `json:"status"`
	Source         string              `json:"source"`
	FileName       string              `json:"file_name,omitempty"`
	TextMD5        string              `json:"text_md5,omitempty"`
	ParserVersion  string              `json:"parser_version,omitempty"`
	UsedFallback   bool                `json:"used_fallback"`
	ErrorMessage   string              `json:"error_message,omitempty"`
	CreatedAt      string              `json:"created_at"`
	Resume         *types.ParsedResume `json:"resume,omitempty"`
}

// HandleHealth GET /api/v1/health
func (h *ResumeImportHandler) HandleHealth(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}

// HandleImportPDF POST /api/v1/resume/import
func (h *ResumeImportHandler) HandleImportPDF(ctx context.Context, c *app.RequestContext) {
	fileName, data, ok := h.readUpload(c)
	if !ok {
		return
	}
	res, err := h.svc.ImportPDF(ctx, processor.ImportRequest{
		FileName: fileName,
		Data:     data,
		Source:   c.PostForm("source"),
	})
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, res)
}

// HandleImportText POST /api/v1/resume/import/text
func (h *ResumeImportHandler) HandleImportText(ctx context.Context, c *app.RequestContext) {
	var req TextImportRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "请求体不是合法的JSON"})
		return
	}
	res, err := h.svc.ImportText(ctx, processor.TextRequest{
		Text:     req.Text,
		Source:   req.Source,
		FileName: req.FileName,
	})
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, res)
}

// HandleImportAsync POST /api/v1/resume/import/async
func (h *ResumeImportHandler) HandleImportAsync(ctx context.Context, c *app.RequestContext) {
	fileName, data, ok := h.readUpload(c)
	if !ok {
		return
	}
	id, err := h.svc.EnqueuePDF(ctx, processor.ImportRequest{FileName: fileName, Data: data})
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusAccepted, AsyncImportResponse{SubmissionUUID: id, Status: models.ImportStatusPending})
}

// HandleGetImport GET /api/v1/resume/import/:uuid
func (h *ResumeImportHandler) HandleGetImport(ctx context.Context, c *app.RequestContext) {
	imp, err := h.svc.GetImport(ctx, c.Param("uuid"))
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	res, err := imp.ParsedResume()
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, ImportRecordResponse{
		SubmissionUUID: imp.SubmissionUUID,
		Status:         imp.Status,
		Source:         imp.Source,
		FileName:       imp.FileName,
		TextMD5:        imp.TextMD5,
		ParserVersion:  imp.ParserVersion,
		UsedFallback:   imp.UsedFallback,
		ErrorMessage:   imp.ErrorMessage,
		CreatedAt:      imp.CreatedAt.Format(time.RFC3339),
		Resume:         res,
	})
}

// readUpload 读取 multipart 中的 file 字段，失败时已写入响应
func (h *ResumeImportHandler) readUpload(c *app.RequestContext) (string, []byte, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "文件未找到"})
		return "", nil, false
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		c.JSON(consts.StatusRequestEntityTooLarge, map[string]string{
			"error": fmt.Sprintf("文件大小超过限制 %d 字节", h.maxUploadBytes),
		})
		return "", nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(consts.StatusInternalServerError, map[string]string{"error": "打开文件失败"})
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, map[string]string{"error": "读取文件失败"})
		return "", nil, false
	}
	return fileHeader.Filename, data, true
}

func (h *ResumeImportHandler) writeError(ctx context.Context, c *app.RequestContext, err error) {
	status := StatusForError(err)
	tracing.RecordHTTPError(trace.SpanFromContext(ctx), err, status)
	event := h.logger.Warn()
	if status >= consts.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.Err(err).Int("status", status).Str("path", string(c.Path())).Msg("请求处理失败")
	c.JSON(status, map[string]string{"error": err.Error()})
}

// StatusForError 错误到 HTTP 状态码的映射
func StatusForError(err error) int {
	switch {
	case errors.Is(err, processor.ErrEmptyDocument), errors.Is(err, processor.ErrInvalidInput):
		return consts.StatusBadRequest
	case errors.Is(err, processor.ErrPayloadTooLarge):
		return consts.StatusRequestEntityTooLarge
	case errors.Is(err, processor.ErrNotFound):
		return consts.StatusNotFound
	case errors.Is(err, processor.ErrExtractFailed):
		return consts.StatusUnprocessableEntity
	case errors.Is(err, processor.ErrUnavailable):
		return consts.StatusServiceUnavailable
	default:
		return consts.StatusInternalServerError
	}
}
