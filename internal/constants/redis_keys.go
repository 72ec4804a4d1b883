package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// ResumeModulePrefix 简历导入模块
	ResumeModulePrefix = "resume"

	// EntityParseResult 解析结果实体
	EntityParseResult = "parse"
	// EntityMD5ToUUID MD5到UUID的映射实体
	EntityMD5ToUUID = "md5_to_uuid"

	// KeyParseResult 解析结果缓存 (STRING, JSON)
	// 格式: app:resume:parse:{parserVersion}:{textMD5}
	KeyParseResult = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityParseResult + ":%s:%s"

	// KeyTextMD5ToSubmissionUUID 文本MD5到首次提交UUID的映射 (STRING)
	// 格式: app:resume:md5_to_uuid:{textMD5}
	KeyTextMD5ToSubmissionUUID = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityMD5ToUUID + ":%s"
)
