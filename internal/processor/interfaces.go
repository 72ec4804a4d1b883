package processor

import (
	"context"

	"github.com/induwarapathirana/cv-creator-sub000/internal/storage"
	"github.com/induwarapathirana/cv-creator-sub000/internal/storage/models"
	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

// FragmentExtractor 读取带坐标的PDF文本片段
type FragmentExtractor interface {
	ExtractFragments(ctx context.Context, data []byte) ([][]types.PositionedFragment, error)
}

// TextExtractor 直接读取PDF纯文本，坐标读取失败时使用
type TextExtractor interface {
	ExtractTextFromBytes(ctx context.Context, data []byte, uri string) (string, error)
}

// ResultCache 按解析器版本和文本MD5缓存结果，未命中返回 storage.ErrNotFound
// CheckAndSetTextMD5 记录同一文本的首次提交，已存在时返回 true 和首次的UUID
type ResultCache interface {
	GetParseResult(ctx context.Context, parserVersion, textMD5 string) (*types.CachedParse, error)
	SetParseResult(ctx context.Context, parserVersion, textMD5 string, res *types.CachedParse) error
	CheckAndSetTextMD5(ctx context.Context, textMD5, submissionUUID string) (bool, string, error)
}

// Archive 原始文件和纯文本归档
type Archive interface {
	UploadOriginal(ctx context.Context, submissionUUID, fileName string, data []byte) (string, error)
	UploadRawText(ctx context.Context, submissionUUID, text string) (string, error)
	GetOriginal(ctx context.Context, objectName string) ([]byte, error)
}

// Repository 导入记录持久化，不存在时返回 storage.ErrNotFound
type Repository interface {
	CreateImport(ctx context.Context, imp *models.ResumeImport) error
	CompleteImport(ctx context.Context, imp *models.ResumeImport, msg *models.OutboxMessage) error
	MarkImportFailed(ctx context.Context, submissionUUID, reason string) error
	GetImport(ctx context.Context, submissionUUID string) (*models.ResumeImport, error)
	ListStaleImports(ctx context.Context, parserVersion string, limit int) ([]models.ResumeImport, error)
}

// Publisher 发布解析请求
type Publisher interface {
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error
}

// Consumer 订阅解析请求队列
type Consumer interface {
	StartConsumer(ctx context.Context, queueName string, prefetchCount int, handler storage.MessageHandler) (<-chan struct{}, error)
}

var (
	_ ResultCache = (*storage.Redis)(nil)
	_ Archive     = (*storage.MinIO)(nil)
	_ Repository  = (*storage.MySQL)(nil)
	_ Publisher   = (*storage.RabbitMQ)(nil)
	_ Consumer    = (*storage.RabbitMQ)(nil)
)
