package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

// 导入记录状态
const (
	ImportStatusPending = "PENDING_PARSE"
	ImportStatusParsed  = "PARSED"
	ImportStatusFailed  = "PARSE_FAILED"
)

// ResumeImport 一次简历导入及其解析结果
type ResumeImport struct {
	SubmissionUUID string         `gorm:"type:char(36);primaryKey" json:"submission_uuid"`
	Source         string         `gorm:"type:varchar(20);not null" json:"source"`
	FileName       string         `gorm:"type:varchar(255)" json:"file_name"`
	Status         string         `gorm:"type:varchar(20);not null;index" json:"status"`
	TextMD5        string         `gorm:"type:char(32);index" json:"text_md5"`
	OriginalObject string         `gorm:"type:varchar(512)" json:"original_object"`
	RawTextObject  string         `gorm:"type:varchar(512)" json:"raw_text_object"`
	ParserVersion  string         `gorm:"type:varchar(32)" json:"parser_version"`
	UsedFallback   bool           `json:"used_fallback"`
	FullName       string         `gorm:"type:varchar(255)" json:"full_name"`
	Email          string         `gorm:"type:varchar(255);index" json:"email"`
	Result         datatypes.JSON `gorm:"type:json" json:"result,omitempty"`
	ErrorMessage   string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TableName 表名
func (ResumeImport) TableName() string {
	return "resume_imports"
}

// SetResult 写入解析结果及冗余的查询字段
func (r *ResumeImport) SetResult(res *types.ParsedResume) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("序列化解析结果失败: %w", err)
	}
	r.Result = datatypes.JSON(data)
	r.FullName = res.FullName
	r.Email = res.Email
	r.Status = ImportStatusParsed
	return nil
}

// ParsedResume 还原解析结果，尚未解析时返回 nil
func (r *ResumeImport) ParsedResume() (*types.ParsedResume, error) {
	if len(r.Result) == 0 {
		return nil, nil
	}
	var res types.ParsedResume
	if err := json.Unmarshal(r.Result, &res); err != nil {
		return nil, fmt.Errorf("反序列化解析结果失败: %w", err)
	}
	return &res, nil
}
