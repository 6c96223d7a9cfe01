package utils

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/RecoveryAshes/ReraScraper/internal/models"
)

// MaxHeaderValueLength 请求头值最大长度 (8KB)
const MaxHeaderValueLength = 8192

var (
	headerNamePattern  = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	headerValuePattern = regexp.MustCompile(`^[\x20-\x7E\t]*$`)

	// 由浏览器自身管理的头部
	browserManagedHeaders = map[string]bool{
		"host":              true,
		"content-length":    true,
		"transfer-encoding": true,
		"connection":        true,
		"user-agent":        true, // 通过 browser.user_agent 配置
	}

	// 名称包含这些关键字的头部在日志中脱敏
	sensitiveKeywords = []string{"authorization", "cookie", "token", "key", "secret", "password", "credential"}
)

// ValidateHeaders 校验注入浏览器的额外请求头
func ValidateHeaders(headers http.Header) error {
	for name, values := range headers {
		if browserManagedHeaders[strings.ToLower(name)] {
			return &models.ValidationError{
				Field:      "name",
				HeaderName: name,
				Reason:     "此头部由浏览器管理,不允许自定义",
				Suggestion: fmt.Sprintf("移除 '%s' 头部配置", name),
			}
		}
		if !headerNamePattern.MatchString(name) {
			return &models.ValidationError{
				Field:      "name",
				HeaderName: name,
				Reason:     "头部名称包含非法字符 (仅允许字母、数字和连字符)",
			}
		}
		for _, value := range values {
			if len(value) > MaxHeaderValueLength {
				return &models.ValidationError{
					Field:      "value",
					HeaderName: name,
					Reason:     fmt.Sprintf("头部值过长: %d 字节 (最大 %d)", len(value), MaxHeaderValueLength),
				}
			}
			if !headerValuePattern.MatchString(value) {
				return &models.ValidationError{
					Field:      "value",
					HeaderName: name,
					Reason:     "头部值包含非法字符 (仅允许可打印ASCII字符)",
					Suggestion: "移除控制字符和非ASCII字符",
				}
			}
		}
	}
	return nil
}

// IsSensitiveHeader 头部名称是否包含敏感关键字
func IsSensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// RedactHeaderValue 脱敏单个头部值
func RedactHeaderValue(name, value string) string {
	if !IsSensitiveHeader(name) {
		return value
	}
	if strings.HasPrefix(value, "Bearer ") {
		return "Bearer ***"
	}
	if len(value) > 8 {
		return value[:4] + "***" + value[len(value)-4:]
	}
	return "***"
}

// RedactHeaders 返回可安全写入日志的 "Name: Value" 列表(按名称排序)
func RedactHeaders(headers http.Header) []string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, name+": "+RedactHeaderValue(name, headers.Get(name)))
	}
	return out
}
