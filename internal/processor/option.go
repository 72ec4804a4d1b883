package processor

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/induwarapathirana/cv-creator-sub000/internal/parser"
)

// Components 服务依赖的组件，除 Parser 外均可为 nil
type Components struct {
	Parser     *parser.HeuristicParser
	Fragments  FragmentExtractor
	FlatText   TextExtractor
	Cache      ResultCache
	Archive    Archive
	Repository Repository
	Publisher  Publisher
	Consumer   Consumer
}

// Settings 服务运行参数
type Settings struct {
	Logger           zerolog.Logger
	ParserVersion    string
	MaxUploadBytes   int64
	PreferPositioned bool
	ExtractTimeout   time.Duration

	ImportExchange    string
	ParseRequestKey   string
	ParseRequestQueue string
	PrefetchCount     int

	EventsExchange   string
	ParsedRoutingKey string

	Now func() time.Time
}

// ComponentOpt 只修改 Components
type ComponentOpt func(*Components)

// SettingOpt 只修改 Settings
type SettingOpt func(*Settings)

// WithParser 设置解析器
func WithParser(p *parser.HeuristicParser) ComponentOpt {
	return func(c *Components) {
		c.Parser = p
	}
}

// WithFragmentExtractor 设置坐标片段提取器
func WithFragmentExtractor(e FragmentExtractor) ComponentOpt {
	return func(c *Components) {
		c.Fragments = e
	}
}

// WithTextExtractor 设置纯文本提取器
func WithTextExtractor(e TextExtractor) ComponentOpt {
	return func(c *Components) {
		c.FlatText = e
	}
}

// WithCache 设置结果缓存
func WithCache(cache ResultCache) ComponentOpt {
	return func(c *Components) {
		c.Cache = cache
	}
}

// WithArchive 设置归档存储
func WithArchive(a Archive) ComponentOpt {
	return func(c *Components) {
		c.Archive = a
	}
}

// WithRepository 设置导入记录存储
func WithRepository(r Repository) ComponentOpt {
	return func(c *Components) {
		c.Repository = r
	}
}

// WithQueue 同时设置发布者和消费者
func WithQueue(p Publisher, consumer Consumer) ComponentOpt {
	return func(c *Components) {
		c.Publisher = p
		c.Consumer = consumer
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger zerolog.Logger) SettingOpt {
	return func(s *Settings) {
		s.Logger = logger
	}
}

// WithParserVersion 设置写入结果和缓存键的解析器版本
func WithParserVersion(v string) SettingOpt {
	return func(s *Settings) {
		if v != "" {
			s.ParserVersion = v
		}
	}
}

// WithMaxUploadBytes 设置上传大小上限，0 表示不限制
func WithMaxUploadBytes(n int64) SettingOpt {
	return func(s *Settings) {
		s.MaxUploadBytes = n
	}
}

// WithPreferPositioned 是否优先使用坐标片段重建行
func WithPreferPositioned(prefer bool) SettingOpt {
	return func(s *Settings) {
		s.PreferPositioned = prefer
	}
}

// WithExtractTimeout 设置单次提取超时
func WithExtractTimeout(d time.Duration) SettingOpt {
	return func(s *Settings) {
		s.ExtractTimeout = d
	}
}

// WithParseRequestRoute 设置异步解析请求的交换机、路由键和队列
func WithParseRequestRoute(exchange, routingKey, queue string, prefetch int) SettingOpt {
	return func(s *Settings) {
		s.ImportExchange = exchange
		s.ParseRequestKey = routingKey
		s.ParseRequestQueue = queue
		s.PrefetchCount = prefetch
	}
}

// WithParsedEventRoute 设置解析完成事件的目标，exchange 为空时不写 outbox
func WithParsedEventRoute(exchange, routingKey string) SettingOpt {
	return func(s *Settings) {
		s.EventsExchange = exchange
		s.ParsedRoutingKey = routingKey
	}
}

// WithClock 替换时间源
func WithClock(now func() time.Time) SettingOpt {
	return func(s *Settings) {
		if now != nil {
			s.Now = now
		}
	}
}
