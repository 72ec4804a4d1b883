package constants

import "time"

const (
	// DefaultParserVer 启发式解析器版本，参与缓存键和事件
	DefaultParserVer = "heuristic-v1"

	// DefaultResultTTL 解析结果缓存的默认过期时间
	DefaultResultTTL = 7 * 24 * time.Hour

	// ImportSourceUpload 同步上传
	ImportSourceUpload = "upload"
	// ImportSourceText 直接提交纯文本
	ImportSourceText = "text"
	// ImportSourceAsync 异步队列
	ImportSourceAsync = "async"

	// EventTypeResumeParsed outbox 事件类型
	EventTypeResumeParsed = "resume.parsed"
)
