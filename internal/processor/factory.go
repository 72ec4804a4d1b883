package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/induwarapathirana/cv-creator-sub000/internal/config"
	"github.com/induwarapathirana/cv-creator-sub000/internal/parser"
	"github.com/induwarapathirana/cv-creator-sub000/internal/storage"
)

// NewImportServiceFromConfig 按配置组装服务，st 中为 nil 的组件不会注入
func NewImportServiceFromConfig(ctx context.Context, cfg *config.Config, st *storage.Storage, log zerolog.Logger) (*ImportService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	dict, err := parser.NewSkillDictionary(cfg.Parser.ExtraSkills...)
	if err != nil {
		return nil, fmt.Errorf("构建技能词典失败: %w", err)
	}

	extractTimeout := config.GetDuration(cfg.Parser.ExtractTimeout, 30*time.Second)
	comp := &Components{
		Parser: parser.NewHeuristicParser(
			parser.WithParserLogger(log.With().Str("component", "heuristic-parser").Logger()),
			parser.WithSkillDictionary(dict),
		),
		Fragments: parser.NewPDFFragmentExtractor(parser.WithFragmentLogger(log)),
	}

	flat, err := parser.NewEinoPDFTextExtractor(ctx,
		parser.WithEinoLogger(log),
		parser.WithEinoTimeout(extractTimeout),
	)
	if err != nil {
		log.Warn().Err(err).Msg("初始化Eino PDF提取器失败，仅使用坐标片段提取")
	} else {
		comp.FlatText = flat
	}

	if st != nil {
		// 逐个判断，避免把 nil 指针装进接口
		if st.Redis != nil {
			comp.Cache = st.Redis
		}
		if st.MinIO != nil {
			comp.Archive = st.MinIO
		}
		if st.MySQL != nil {
			comp.Repository = st.MySQL
		}
		if st.RabbitMQ != nil {
			comp.Publisher = st.RabbitMQ
			comp.Consumer = st.RabbitMQ
		}
	}

	set := &Settings{
		Logger:           log.With().Str("component", "import-service").Logger(),
		ParserVersion:    cfg.Parser.Version,
		MaxUploadBytes:   cfg.MaxUploadBytes(),
		PreferPositioned: cfg.Parser.PreferPositionedText,
		ExtractTimeout:   extractTimeout,
	}
	if cfg.RabbitMQ.Enabled {
		WithParseRequestRoute(cfg.RabbitMQ.ImportExchange, cfg.RabbitMQ.ParseRequestKey,
			cfg.RabbitMQ.ParseRequestQueue, cfg.RabbitMQ.PrefetchCount)(set)
	}
	if cfg.MySQL.Enabled && cfg.RabbitMQ.Enabled {
		// 事件经 outbox 发布，需要 MySQL 和 RabbitMQ 同时启用
		WithParsedEventRoute(cfg.RabbitMQ.EventsExchange, cfg.RabbitMQ.ParsedRoutingKey)(set)
	}

	return NewImportService(comp, set), nil
}
