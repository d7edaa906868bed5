package logger

import (
	"regexp"
	"strings"
)

// Sanitizer 在寫出前遮罩訊息與欄位中的憑證
//
// 只有敏感鍵（password、token…）的值會被遮罩；
// 例如 "url", "http://x?password=y" 不會被處理，訊息字串才會套用正規式。
// 建立後不可變，可在多個 goroutine 間共用。
type Sanitizer struct {
	redactions []redaction
}

type redaction struct {
	re   *regexp.Regexp
	with string
}

// SanitizerOption 調整 sanitizer 規則
type SanitizerOption func(*Sanitizer)

// WithHomeMasking 額外遮罩家目錄與 email。
// 掃描診斷以路徑為主，因此預設不啟用。
func WithHomeMasking() SanitizerOption {
	return func(s *Sanitizer) {
		s.redactions = append(s.redactions, homeRedactions...)
	}
}

func NewSanitizer(opts ...SanitizerOption) *Sanitizer {
	s := &Sanitizer{redactions: append([]redaction(nil), credentialRedactions...)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func mustRedact(pattern, with string) redaction {
	return redaction{re: regexp.MustCompile(pattern), with: with}
}

var credentialRedactions = []redaction{
	mustRedact(`(?i)(password|passwd|pwd|token)=\S+`, "$1=***"),
	mustRedact(`(?i)bearer\s+\S+`, "bearer ***"),
	mustRedact(`(?i)api[_-]?key=\S+`, "api_key=***"),
}

var homeRedactions = []redaction{
	// Windows 磁碟機與 UNC 使用者目錄
	mustRedact(`(?i)[A-Z]:\\Users\\[^\\]+`, `***:\Users\***`),
	mustRedact(`(?i)\\\\[^\\]+\\[^\\]+\\Users\\[^\\]+`, `\\***\***\Users\***`),
	mustRedact(`/(home|Users)/[^/]+`, "/$1/***"),
	mustRedact(`([a-zA-Z0-9._%+-]{1,3})[a-zA-Z0-9._%+-]*@`, "$1***@"),
}

var sensitiveKeyParts = []string{
	"password", "passwd", "pwd",
	"token", "secret", "api_key", "apikey",
	"credential", "auth",
}

func (s *Sanitizer) Sanitize(input string) string {
	for _, r := range s.redactions {
		input = r.re.ReplaceAllString(input, r.with)
	}
	return input
}

// SanitizeArgs 回傳 key/value 參數的副本，敏感鍵的字串或 error 值會被遮罩
func (s *Sanitizer) SanitizeArgs(args []any) []any {
	if len(args) < 2 {
		return args
	}

	out := append([]any(nil), args...)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok || !isSensitiveKey(key) {
			continue
		}
		switch v := out[i+1].(type) {
		case string:
			out[i+1] = maskValue(v)
		case error:
			out[i+1] = maskValue(v.Error())
		}
	}
	return out
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}

// maskValue 只保留首尾字元，短值全遮
func maskValue(v string) string {
	switch {
	case len(v) <= 2:
		return "***"
	case len(v) <= 8:
		return v[:1] + "***"
	default:
		return v[:1] + "***" + v[len(v)-1:]
	}
}
