package utils

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/RecoveryAshes/ReraScraper/internal/models"
	"github.com/google/go-cmp/cmp"
)

func TestValidateHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
		wantErr bool
	}{
		{"合法头部", http.Header{"Accept-Language": {"en-IN,en;q=0.9"}}, false},
		{"空值", http.Header{"X-Empty": {""}}, false},
		{"浏览器管理-Host", http.Header{"Host": {"example.com"}}, true},
		{"浏览器管理-User-Agent", http.Header{"User-Agent": {"x"}}, true},
		{"非法名称-下划线", http.Header{"X_Bad": {"1"}}, true},
		{"非法名称-空格", http.Header{"X Bad": {"1"}}, true},
		{"非法值-控制字符", http.Header{"X-Bad": {"a\x00b"}}, true},
		{"非法值-超长", http.Header{"X-Long": {strings.Repeat("a", MaxHeaderValueLength+1)}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHeaders(tt.headers)
			if (err != nil) != tt.wantErr {
				t.Fatalf("期望错误=%v, 实际错误=%v", tt.wantErr, err)
			}
			if err != nil {
				var ve *models.ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("错误类型应为 ValidationError: %T", err)
				}
			}
		})
	}
}

func TestRedactHeaderValue(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"普通头部", "Accept-Language", "en-IN", "en-IN"},
		{"Bearer令牌", "Authorization", "Bearer abc.def.ghi", "Bearer ***"},
		{"长密钥", "X-Api-Key", "1234567890abcdef", "1234***cdef"},
		{"短密钥", "X-Secret", "short", "***"},
		{"Cookie", "Cookie", "ASP.NET_SessionId=xyz123456", "ASP.***3456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactHeaderValue(tt.header, tt.value); got != tt.want {
				t.Errorf("RedactHeaderValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRedactHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("X-Token", "tok")
	h.Set("Accept-Language", "en-IN")

	want := []string{"Accept-Language: en-IN", "X-Token: ***"}
	if diff := cmp.Diff(want, RedactHeaders(h)); diff != "" {
		t.Errorf("RedactHeaders() 不匹配 (-want +got):\n%s", diff)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("项目列表页面", 4); got != "项目列表..." {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Errorf("Truncate() = %q", got)
	}
}
