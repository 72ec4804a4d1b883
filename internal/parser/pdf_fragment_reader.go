package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

// ErrNoTextLayer PDF 没有可提取的文本层（扫描件或加密文件）
var ErrNoTextLayer = errors.New("PDF没有可提取的文本层")

// PDFFragmentExtractor 使用 ledongthuc/pdf 读取每页带坐标的文本片段
type PDFFragmentExtractor struct {
	logger zerolog.Logger
}

// FragmentOption 片段提取器选项
type FragmentOption func(*PDFFragmentExtractor)

// WithFragmentLogger 设置日志记录器
func WithFragmentLogger(logger zerolog.Logger) FragmentOption {
	return func(e *PDFFragmentExtractor) {
		e.logger = logger
	}
}

// NewPDFFragmentExtractor 创建片段提取器
func NewPDFFragmentExtractor(opts ...FragmentOption) *PDFFragmentExtractor {
	e := &PDFFragmentExtractor{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractFragments 返回按页分组的片段，页码顺序与文档一致
func (e *PDFFragmentExtractor) ExtractFragments(ctx context.Context, data []byte) (pages [][]types.PositionedFragment, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("PDF内容为空")
	}

	// 底层库遇到损坏的内容流会直接 panic
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn().Interface("panic", r).Msg("读取PDF片段时发生异常")
			pages = nil
			err = fmt.Errorf("读取PDF失败: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("打开PDF失败: %w", err)
	}

	total := 0
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content := page.Content()
		fragments := make([]types.PositionedFragment, 0, len(content.Text))
		for _, t := range content.Text {
			if t.S == "" {
				continue
			}
			fragments = append(fragments, types.PositionedFragment{
				Text:  t.S,
				X:     t.X,
				Y:     t.Y,
				Width: t.W,
			})
		}
		total += len(fragments)
		pages = append(pages, fragments)
	}

	e.logger.Debug().Int("pages", numPages).Int("fragments", total).Msg("PDF片段提取完成")
	if total == 0 {
		return nil, ErrNoTextLayer
	}
	return pages, nil
}

// ExtractLines 提取片段并重建为逻辑行
func (e *PDFFragmentExtractor) ExtractLines(ctx context.Context, data []byte) ([]string, error) {
	pages, err := e.ExtractFragments(ctx, data)
	if err != nil {
		return nil, err
	}
	return ReconstructLines(pages), nil
}

// ExtractLinesFromFile 读取文件后重建逻辑行
func (e *PDFFragmentExtractor) ExtractLinesFromFile(ctx context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取PDF文件 %s 失败: %w", path, err)
	}
	return e.ExtractLines(ctx, data)
}
