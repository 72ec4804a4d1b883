package tracing

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// 属性值长度上限
const (
	DefaultMaxLength = 200
	MaxSQLLength     = 500
	MaxRedisLength   = 100
)

// 属性名包含其中任一片段时值需要掩码
var piiKeywords = []string{
	"email", "phone", "name", "address", "location", "linkedin", "github", "website",
	"password", "secret", "token", "api_key",
}

func isSensitive(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range piiKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// SafeAttribute 构造不泄露个人信息的字符串属性
func SafeAttribute(name, value string) attribute.KeyValue {
	return attribute.String(name, SafeAttributeValue(name, value, DefaultMaxLength))
}

// SafeAttributeValue 敏感字段掩码，其余超长截断
func SafeAttributeValue(name, value string, maxLength int) string {
	if isSensitive(name) {
		return MaskPII(value)
	}
	return TruncateString(value, maxLength)
}

// MaskPII 保留首尾少量字符，其余替换为 *
//
//	"Jane Doe"         -> "Ja****oe"
//	"jane@example.com" -> "ja************om"
func MaskPII(value string) string {
	r := []rune(value)
	n := len(r)
	keep := 2
	switch {
	case n == 0:
		return ""
	case n == 1:
		return "*"
	case n == 2:
		return string(r[0]) + "*"
	case n <= 4:
		keep = 1
	}
	return string(r[:keep]) + strings.Repeat("*", n-2*keep) + string(r[n-keep:])
}

// TruncateString 超长时保留首尾，中间用 ... 连接
func TruncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	half := max((maxLength-3)/2, 1)
	return string(r[:half]) + "..." + string(r[len(r)-half:])
}

// SafeSQL 截断SQL语句
func SafeSQL(sql string) string { return TruncateString(sql, MaxSQLLength) }

// SafeRedisKey 截断Redis键
func SafeRedisKey(key string) string { return TruncateString(key, MaxRedisLength) }
