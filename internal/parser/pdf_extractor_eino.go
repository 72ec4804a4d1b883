package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"
)

// defaultEinoTimeout 单个文档的提取超时
const defaultEinoTimeout = 30 * time.Second

// EinoPDFTextExtractor 使用 Eino PDF Parser 提取纯文本
// 片段坐标不可用时作为兜底路径，输出直接交给 ParseText
type EinoPDFTextExtractor struct {
	parser  *pdf.PDFParser
	logger  zerolog.Logger
	timeout time.Duration
}

// EinoPDFOption PDF提取器的配置选项
type EinoPDFOption func(*EinoPDFTextExtractor)

// WithEinoLogger 配置日志记录器
func WithEinoLogger(logger zerolog.Logger) EinoPDFOption {
	return func(e *EinoPDFTextExtractor) {
		e.logger = logger
	}
}

// WithEinoTimeout 配置提取超时
func WithEinoTimeout(d time.Duration) EinoPDFOption {
	return func(e *EinoPDFTextExtractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEinoPDFTextExtractor 初始化 Eino PDF 文本提取器
// 按页分割，页与页之间用空行连接，与片段重建的输出保持一致
func NewEinoPDFTextExtractor(ctx context.Context, options ...EinoPDFOption) (*EinoPDFTextExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}

	extractor := &EinoPDFTextExtractor{
		parser:  p,
		logger:  zerolog.Nop(),
		timeout: defaultEinoTimeout,
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor, nil
}

// ExtractTextFromReader 从 io.Reader 中提取文本
func (e *EinoPDFTextExtractor) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string) (string, error) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	docs, err := e.parser.Parse(ctx, reader,
		einoParser.WithURI(uri),
		einoParser.WithExtraMeta(map[string]any{"source_uri": uri}),
	)
	duration := time.Since(startTime)
	if err != nil {
		e.logger.Warn().Err(err).Str("uri", uri).Dur("duration", duration).Msg("Eino PDF提取失败")
		return "", fmt.Errorf("eino PDF parser failed for URI %s: %w", uri, err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("eino PDF parser returned no documents for URI %s", uri)
	}

	pages := make([]string, 0, len(docs))
	for _, doc := range docs {
		if content := strings.TrimSpace(doc.Content); content != "" {
			pages = append(pages, content)
		}
	}
	text := strings.Join(pages, "\n\n")

	e.logger.Debug().Str("uri", uri).Int("pages", len(docs)).Int("chars", len(text)).Dur("duration", duration).Msg("Eino PDF提取完成")
	if text == "" {
		return "", ErrNoTextLayer
	}
	return text, nil
}

// ExtractTextFromBytes 从字节数组提取文本内容
func (e *EinoPDFTextExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string) (string, error) {
	return e.ExtractTextFromReader(ctx, bytes.NewReader(data), uri)
}

// ExtractTextFromFile 从PDF文件提取文本
func (e *EinoPDFTextExtractor) ExtractTextFromFile(ctx context.Context, filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF file %s: %w", filePath, err)
	}
	defer file.Close()
	return e.ExtractTextFromReader(ctx, file, filePath)
}
