package processor

import (
	"errors"
	"fmt"
)

// 基础错误类型，HTTP 层据此映射状态码
var (
	ErrEmptyDocument   = errors.New("简历内容为空")
	ErrPayloadTooLarge = errors.New("上传文件超过大小限制")
	ErrInvalidInput    = errors.New("请求参数无效")
	ErrExtractFailed   = errors.New("提取简历文本失败")
	ErrArchiveFailed   = errors.New("归档简历文件失败")
	ErrPersistFailed   = errors.New("保存导入记录失败")
	ErrPublishFailed   = errors.New("发布解析任务失败")
	ErrNotFound        = errors.New("导入记录不存在")
	ErrUnavailable     = errors.New("所需组件未启用")
)

// ImportError 带提交UUID和失败阶段的错误
type ImportError struct {
	SubmissionUUID string
	Op             string
	BaseErr        error
	Detail         string
}

func (e *ImportError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, UUID:%s): %s", e.BaseErr, e.Op, e.SubmissionUUID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, UUID:%s)", e.BaseErr, e.Op, e.SubmissionUUID)
}

func (e *ImportError) Unwrap() error {
	return e.BaseErr
}

// Is 支持 errors.Is 比较基础错误
func (e *ImportError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

func newImportError(uuid, op string, base error, cause error) error {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return &ImportError{SubmissionUUID: uuid, Op: op, BaseErr: base, Detail: detail}
}

// IsPermanent 重试也不会成功的错误
func IsPermanent(err error) bool {
	return errors.Is(err, ErrEmptyDocument) ||
		errors.Is(err, ErrPayloadTooLarge) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrExtractFailed) ||
		errors.Is(err, ErrNotFound)
}
