package logger

import (
	"errors"
	"testing"
)

func TestSanitizer_Credentials(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"password", "login with password=secret123", "login with password=***"},
		{"token", "auth token=abc123xyz", "auth token=***"},
		{"bearer token", "Authorization: Bearer eyJhbGc...", "Authorization: bearer ***"},
		{"api key", "api-key=zzz999 used", "api_key=*** used"},
		{"plain path kept", "skipping /home/alice/projects/a.txt", "skipping /home/alice/projects/a.txt"},
		{"no sensitive data", "hashing 42 files", "hashing 42 files"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.expected {
				t.Errorf("Sanitize() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSanitizer_HomeMasking(t *testing.T) {
	s := NewSanitizer(WithHomeMasking())

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"windows user path", "file at C:\\Users\\john\\Documents\\file.txt", "file at ***:\\Users\\***\\Documents\\file.txt"},
		{"unix home path", "scan root /home/john/projects", "scan root /home/***/projects"},
		{"mac home path", "/Users/jane/Library/cache.db", "/Users/***/Library/cache.db"},
		{"email", "owner john.doe@example.com", "owner joh***@example.com"},
		{"credentials still masked", "token=abc /home/x/y", "token=*** /home/***/y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.expected {
				t.Errorf("Sanitize() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSanitizer_SanitizeArgs(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name     string
		input    []any
		validate func([]any) bool
	}{
		{
			name:  "password key-value",
			input: []any{"user", "john", "password", "secret123"},
			validate: func(result []any) bool {
				return len(result) == 4 && result[3] != "secret123"
			},
		},
		{
			name:  "error value under sensitive key",
			input: []any{"auth_error", errors.New("invalid credentials for bob")},
			validate: func(result []any) bool {
				v, ok := result[1].(string)
				return ok && v != "invalid credentials for bob"
			},
		},
		{
			name:  "value under plain key untouched",
			input: []any{"path", "/data/token=abc"},
			validate: func(result []any) bool {
				// "path" 不是敏感鍵，值不會被遮罩
				return result[1] == "/data/token=abc"
			},
		},
		{
			name:  "non-string values",
			input: []any{"path", "a.txt", "size", int64(1024)},
			validate: func(result []any) bool {
				return len(result) == 4 && result[3] == int64(1024)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.SanitizeArgs(tt.input)
			if !tt.validate(result) {
				t.Errorf("SanitizeArgs() validation failed for %v", result)
			}
		})
	}
}

func TestSanitizer_SanitizeArgsDoesNotMutateInput(t *testing.T) {
	s := NewSanitizer()
	in := []any{"password", "hunter22"}

	s.SanitizeArgs(in)

	if in[1] != "hunter22" {
		t.Errorf("input slice was modified: %v", in)
	}
}

func TestSanitizer_MixedCaseKeyword(t *testing.T) {
	s := NewSanitizer()

	got := s.Sanitize("retry with PASSWORD=hunter2 and Token=xyz")
	if got != "retry with PASSWORD=*** and Token=***" {
		t.Errorf("got %q", got)
	}
}

func TestSanitizer_SharedAcrossOptions(t *testing.T) {
	plain := NewSanitizer()
	NewSanitizer(WithHomeMasking())

	if got := plain.Sanitize("/home/bob/x"); got != "/home/bob/x" {
		t.Errorf("home masking leaked into a plain sanitizer: %q", got)
	}
}

func TestMaskValue(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ab", "***"},
		{"abc", "a***"},
		{"abcdefgh", "a***"},
		{"abcdefghi", "a***i"},
		{"verylongpassword", "v***d"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := maskValue(tt.input); got != tt.expected {
				t.Errorf("maskValue(%s) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"password", true},
		{"PASSWORD", true},
		{"api_key", true},
		{"upload_token", true},
		{"path", false},
		{"size", false},
		{"digest", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := isSensitiveKey(tt.input); got != tt.expected {
				t.Errorf("isSensitiveKey(%s) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
