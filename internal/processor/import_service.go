package processor

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/induwarapathirana/cv-creator-sub000/internal/constants"
	"github.com/induwarapathirana/cv-creator-sub000/internal/parser"
	"github.com/induwarapathirana/cv-creator-sub000/internal/storage"
	"github.com/induwarapathirana/cv-creator-sub000/internal/storage/models"
	"github.com/induwarapathirana/cv-creator-sub000/internal/tracing"
	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

// 文本来源
const (
	ExtractMethodPositioned = "positioned"
	ExtractMethodFlat       = "flat"
	ExtractMethodText       = "text"
)

var importTracer = otel.Tracer("resume-import/processor")

// ImportRequest 一次PDF导入
// SubmissionUUID 为空时自动生成；OriginalObject 非空表示原件已归档
type ImportRequest struct {
	SubmissionUUID string
	FileName       string
	Data           []byte
	Source         string
	OriginalObject string
	SubmittedAt    time.Time
}

// TextRequest 直接提交纯文本
type TextRequest struct {
	Text     string
	Source   string
	FileName string
}

// ImportReport 解析过程的诊断信息
type ImportReport struct {
	TextMD5            string                  `json:"textMd5"`
	ExtractMethod      string                  `json:"extractMethod"`
	ParserVersion      string                  `json:"parserVersion"`
	LineCount          int                     `json:"lineCount"`
	Sections           []types.SectionCategory `json:"sections"`
	ExperienceFallback bool                    `json:"experienceFallback"`
	SkillsFallback     bool                    `json:"skillsFallback"`
	OriginalObject     string                  `json:"originalObject,omitempty"`
	RawTextObject      string                  `json:"rawTextObject,omitempty"`

	// FirstSubmissionUUID 同一文本此前已提交过时为首次提交的UUID
	FirstSubmissionUUID string `json:"firstSubmissionUuid,omitempty"`
}

// ImportResult 导入结果
type ImportResult struct {
	SubmissionUUID string              `json:"submissionUuid"`
	Resume         *types.ParsedResume `json:"resume"`
	Report         ImportReport        `json:"report"`
	Cached         bool                `json:"cached"`
}

// ImportService 串联提取、解析、缓存、归档和持久化
// 除解析器外的组件缺失时跳过对应步骤
type ImportService struct {
	comp Components
	set  Settings
}

// NewImportService 创建服务
func NewImportService(comp *Components, set *Settings, opts ...SettingOpt) *ImportService {
	s := &ImportService{}
	if comp != nil {
		s.comp = *comp
	}
	if set != nil {
		s.set = *set
	}
	for _, opt := range opts {
		opt(&s.set)
	}
	if s.comp.Parser == nil {
		s.comp.Parser = parser.NewHeuristicParser(parser.WithParserLogger(s.set.Logger))
	}
	if s.set.ParserVersion == "" {
		s.set.ParserVersion = constants.DefaultParserVer
	}
	if s.set.Now == nil {
		s.set.Now = time.Now
	}
	return s
}

// CreateImportService 通过选项创建服务
func CreateImportService(compOpts []ComponentOpt, setOpts []SettingOpt) *ImportService {
	comp := &Components{}
	for _, opt := range compOpts {
		opt(comp)
	}
	return NewImportService(comp, &Settings{PreferPositioned: true}, setOpts...)
}

// ParserVersion 当前解析器版本
func (s *ImportService) ParserVersion() string {
	return s.set.ParserVersion
}

// AsyncEnabled 异步导入所需组件是否齐全
func (s *ImportService) AsyncEnabled() bool {
	return s.comp.Archive != nil && s.comp.Publisher != nil
}

func (s *ImportService) newSubmissionUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	return id.String(), nil
}

func (s *ImportService) checkPayload(submissionUUID string, data []byte) error {
	if len(data) == 0 {
		return newImportError(submissionUUID, "validate", ErrEmptyDocument, nil)
	}
	if s.set.MaxUploadBytes > 0 && int64(len(data)) > s.set.MaxUploadBytes {
		return newImportError(submissionUUID, "validate", ErrPayloadTooLarge,
			fmt.Errorf("%d > %d 字节", len(data), s.set.MaxUploadBytes))
	}
	return nil
}

// ImportPDF 同步导入PDF
func (s *ImportService) ImportPDF(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if req.SubmissionUUID == "" {
		id, err := s.newSubmissionUUID()
		if err != nil {
			return nil, err
		}
		req.SubmissionUUID = id
	}
	if req.Source == "" {
		req.Source = constants.ImportSourceUpload
	}

	ctx, span := importTracer.Start(ctx, "resume.import", trace.WithAttributes(
		attribute.String("resume.submission_uuid", req.SubmissionUUID),
		attribute.String("resume.source", req.Source),
		attribute.Int("file.size", len(req.Data)),
	))
	defer span.End()

	if err := s.checkPayload(req.SubmissionUUID, req.Data); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	text, method, err := s.extract(ctx, req.Data, req.FileName)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExtract)
		return nil, newImportError(req.SubmissionUUID, "extract", ErrExtractFailed, err)
	}

	return s.process(ctx, span, processInput{
		submissionUUID: req.SubmissionUUID,
		source:         req.Source,
		fileName:       req.FileName,
		original:       req.Data,
		originalObject: req.OriginalObject,
		submittedAt:    req.SubmittedAt,
		text:           text,
		method:         method,
	})
}

// ImportText 导入纯文本，跳过提取
func (s *ImportService) ImportText(ctx context.Context, req TextRequest) (*ImportResult, error) {
	id, err := s.newSubmissionUUID()
	if err != nil {
		return nil, err
	}
	if req.Source == "" {
		req.Source = constants.ImportSourceText
	}

	ctx, span := importTracer.Start(ctx, "resume.import", trace.WithAttributes(
		attribute.String("resume.submission_uuid", id),
		attribute.String("resume.source", req.Source),
	))
	defer span.End()

	if strings.TrimSpace(req.Text) == "" {
		err := newImportError(id, "validate", ErrEmptyDocument, nil)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}
	if s.set.MaxUploadBytes > 0 && int64(len(req.Text)) > s.set.MaxUploadBytes {
		err := newImportError(id, "validate", ErrPayloadTooLarge, nil)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	return s.process(ctx, span, processInput{
		submissionUUID: id,
		source:         req.Source,
		fileName:       req.FileName,
		text:           normalizeNewlines(req.Text),
		method:         ExtractMethodText,
	})
}

// extract 按配置顺序尝试坐标片段和纯文本两条路径
func (s *ImportService) extract(ctx context.Context, data []byte, fileName string) (string, string, error) {
	ctx, span := importTracer.Start(ctx, "extract")
	defer span.End()

	if s.set.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.set.ExtractTimeout)
		defer cancel()
	}

	type attempt struct {
		method string
		run    func() (string, error)
	}
	positioned := attempt{ExtractMethodPositioned, func() (string, error) {
		pages, err := s.comp.Fragments.ExtractFragments(ctx, data)
		if err != nil {
			return "", err
		}
		return strings.Join(parser.ReconstructLines(pages), "\n"), nil
	}}
	flat := attempt{ExtractMethodFlat, func() (string, error) {
		return s.comp.FlatText.ExtractTextFromBytes(ctx, data, fileName)
	}}

	var attempts []attempt
	if s.set.PreferPositioned {
		if s.comp.Fragments != nil {
			attempts = append(attempts, positioned)
		}
		if s.comp.FlatText != nil {
			attempts = append(attempts, flat)
		}
	} else {
		if s.comp.FlatText != nil {
			attempts = append(attempts, flat)
		}
		if s.comp.Fragments != nil {
			attempts = append(attempts, positioned)
		}
	}
	if len(attempts) == 0 {
		return "", "", errors.New("未配置任何PDF提取器")
	}

	var errs []error
	for _, a := range attempts {
		text, err := a.run()
		if err == nil && strings.TrimSpace(text) != "" {
			span.SetAttributes(attribute.String("extract.method", a.method), attribute.Int("extract.text_length", len(text)))
			return normalizeNewlines(text), a.method, nil
		}
		if err == nil {
			err = fmt.Errorf("%s: 未提取到文本", a.method)
		}
		s.set.Logger.Debug().Err(err).Str("method", a.method).Msg("提取路径失败，尝试下一种")
		errs = append(errs, err)
	}
	err := errors.Join(errs...)
	errType := tracing.ErrorTypeExtract
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		errType = tracing.ErrorTypeTimeout
	}
	tracing.RecordError(span, err, errType)
	return "", "", err
}

type processInput struct {
	submissionUUID string
	source         string
	fileName       string
	original       []byte
	originalObject string
	submittedAt    time.Time
	text           string
	method         string
}

func (s *ImportService) process(ctx context.Context, span trace.Span, in processInput) (*ImportResult, error) {
	log := s.set.Logger.With().Str("submission_uuid", in.submissionUUID).Logger()
	sum := md5.Sum([]byte(in.text))
	textMD5 := hex.EncodeToString(sum[:])
	span.SetAttributes(attribute.String("resume.text_md5", textMD5))

	result := &ImportResult{
		SubmissionUUID: in.submissionUUID,
		Report: ImportReport{
			TextMD5:       textMD5,
			ExtractMethod: in.method,
			ParserVersion: s.set.ParserVersion,
			Sections:      []types.SectionCategory{},
		},
	}

	s.recordFirstSubmission(ctx, &log, span, textMD5, result)

	if cached := s.lookupCache(ctx, textMD5); cached != nil {
		result.Resume = cached.Resume
		result.Cached = true
		result.Report.LineCount = cached.LineCount
		result.Report.ExperienceFallback = cached.ExperienceFallback
		result.Report.SkillsFallback = cached.SkillsFallback
		result.Report.Sections = append(result.Report.Sections, cached.Sections...)
	} else {
		_, parseSpan := importTracer.Start(ctx, "parse")
		analysis := s.comp.Parser.Analyze(in.text)
		parseSpan.SetAttributes(
			attribute.Int("parse.lines", len(analysis.Lines)),
			attribute.Int("parse.sections", len(analysis.Sections)),
			attribute.Bool("parse.used_fallback", analysis.UsedFallback()),
		)
		parseSpan.End()

		result.Resume = analysis.Resume
		result.Report.LineCount = len(analysis.Lines)
		result.Report.ExperienceFallback = analysis.ExperienceFallback
		result.Report.SkillsFallback = analysis.SkillsFallback
		for _, sec := range analysis.Sections {
			result.Report.Sections = append(result.Report.Sections, sec.Category)
		}
	}

	span.SetAttributes(
		tracing.SafeAttribute("resume.full_name", result.Resume.FullName),
		tracing.SafeAttribute("resume.email", result.Resume.Email),
	)

	s.archive(ctx, &log, in, result)

	if err := s.persist(ctx, in, result); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, err
	}

	if !result.Cached && s.comp.Cache != nil {
		entry := &types.CachedParse{
			Resume:             result.Resume,
			LineCount:          result.Report.LineCount,
			Sections:           result.Report.Sections,
			ExperienceFallback: result.Report.ExperienceFallback,
			SkillsFallback:     result.Report.SkillsFallback,
		}
		if err := s.comp.Cache.SetParseResult(ctx, s.set.ParserVersion, textMD5, entry); err != nil {
			log.Warn().Err(err).Msg("写入解析缓存失败")
		}
	}

	log.Info().
		Str("method", in.method).
		Bool("cached", result.Cached).
		Int("experience", len(result.Resume.Experience)).
		Int("education", len(result.Resume.Education)).
		Int("skills", len(result.Resume.Skills)).
		Msg("简历导入完成")
	return result, nil
}

// recordFirstSubmission 同一文本重复提交时在报告里带上首次提交的UUID
// 重新解析同一条记录不算重复
func (s *ImportService) recordFirstSubmission(ctx context.Context, log *zerolog.Logger, span trace.Span, textMD5 string, result *ImportResult) {
	if s.comp.Cache == nil {
		return
	}
	exists, first, err := s.comp.Cache.CheckAndSetTextMD5(ctx, textMD5, result.SubmissionUUID)
	if err != nil {
		log.Warn().Err(err).Msg("记录文本首次提交失败")
		return
	}
	if !exists || first == "" || first == result.SubmissionUUID {
		return
	}
	result.Report.FirstSubmissionUUID = first
	span.SetAttributes(attribute.String("resume.first_submission_uuid", first))
	log.Info().Str("first_submission_uuid", first).Msg("相同文本此前已提交")
}

func (s *ImportService) lookupCache(ctx context.Context, textMD5 string) *types.CachedParse {
	if s.comp.Cache == nil {
		return nil
	}
	res, err := s.comp.Cache.GetParseResult(ctx, s.set.ParserVersion, textMD5)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.set.Logger.Warn().Err(err).Msg("读取解析缓存失败，继续解析")
		}
		return nil
	}
	return res
}

// archive 归档失败只记录日志
func (s *ImportService) archive(ctx context.Context, log *zerolog.Logger, in processInput, result *ImportResult) {
	result.Report.OriginalObject = in.originalObject
	if s.comp.Archive == nil {
		return
	}
	ctx, span := importTracer.Start(ctx, "archive")
	defer span.End()

	if in.originalObject == "" && len(in.original) > 0 {
		obj, err := s.comp.Archive.UploadOriginal(ctx, in.submissionUUID, in.fileName, in.original)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
			log.Warn().Err(err).Msg("归档原始文件失败")
		} else {
			result.Report.OriginalObject = obj
		}
	}

	obj, err := s.comp.Archive.UploadRawText(ctx, in.submissionUUID, in.text)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		log.Warn().Err(err).Msg("归档纯文本失败")
		return
	}
	result.Report.RawTextObject = obj
}

func (s *ImportService) persist(ctx context.Context, in processInput, result *ImportResult) error {
	if s.comp.Repository == nil {
		return nil
	}
	ctx, span := importTracer.Start(ctx, "persist")
	defer span.End()

	createdAt := in.submittedAt
	if createdAt.IsZero() {
		createdAt = s.set.Now()
	}
	imp := &models.ResumeImport{
		SubmissionUUID: in.submissionUUID,
		Source:         in.source,
		FileName:       in.fileName,
		TextMD5:        result.Report.TextMD5,
		OriginalObject: result.Report.OriginalObject,
		RawTextObject:  result.Report.RawTextObject,
		ParserVersion:  s.set.ParserVersion,
		UsedFallback:   result.Report.ExperienceFallback || result.Report.SkillsFallback,
		CreatedAt:      createdAt,
	}
	if err := imp.SetResult(result.Resume); err != nil {
		return newImportError(in.submissionUUID, "persist", ErrPersistFailed, err)
	}

	msg, err := s.parsedEvent(imp, result)
	if err != nil {
		return newImportError(in.submissionUUID, "persist", ErrPersistFailed, err)
	}
	if err := s.comp.Repository.CompleteImport(ctx, imp, msg); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return newImportError(in.submissionUUID, "persist", ErrPersistFailed, err)
	}
	return nil
}

func (s *ImportService) parsedEvent(imp *models.ResumeImport, result *ImportResult) (*models.OutboxMessage, error) {
	if s.set.EventsExchange == "" {
		return nil, nil
	}
	res := result.Resume
	payload, err := json.Marshal(types.ResumeParsedEvent{
		SubmissionUUID:    imp.SubmissionUUID,
		Source:            imp.Source,
		TextMD5:           imp.TextMD5,
		FullName:          res.FullName,
		Email:             res.Email,
		ExperienceCount:   len(res.Experience),
		EducationCount:    len(res.Education),
		SkillCount:        len(res.Skills),
		UsedFallback:      imp.UsedFallback,
		ParserVersion:     imp.ParserVersion,
		ParsedAtTimestamp: s.set.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("序列化解析事件失败: %w", err)
	}
	return &models.OutboxMessage{
		AggregateID:      imp.SubmissionUUID,
		EventType:        constants.EventTypeResumeParsed,
		Payload:          string(payload),
		TargetExchange:   s.set.EventsExchange,
		TargetRoutingKey: s.set.ParsedRoutingKey,
		Status:           models.OutboxStatusPending,
	}, nil
}

// GetImport 读取已保存的导入记录
func (s *ImportService) GetImport(ctx context.Context, submissionUUID string) (*models.ResumeImport, error) {
	if _, err := uuid.FromString(submissionUUID); err != nil {
		return nil, newImportError(submissionUUID, "get", ErrInvalidInput, err)
	}
	if s.comp.Repository == nil {
		return nil, newImportError(submissionUUID, "get", ErrUnavailable, errors.New("未启用MySQL"))
	}
	imp, err := s.comp.Repository.GetImport(ctx, submissionUUID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newImportError(submissionUUID, "get", ErrNotFound, nil)
	}
	if err != nil {
		return nil, newImportError(submissionUUID, "get", ErrPersistFailed, err)
	}
	return imp, nil
}

// normalizeNewlines 统一换行符
func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
