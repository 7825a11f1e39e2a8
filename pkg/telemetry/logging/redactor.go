package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks credentials and personal data in log output.
type Redactor struct {
	patterns []redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// sensitiveKeys are attribute keys whose values are always masked.
var sensitiveKeys = []string{
	"password", "passwort", "secret", "token",
	"api_key", "apikey", "api-key",
	"authorization", "signature", "dsn",
}

// NewRedactor creates a Redactor with the built-in patterns.
func NewRedactor() *Redactor {
	return &Redactor{patterns: []redactPattern{
		{regexp.MustCompile(`Bearer\s+[A-Za-z0-9\-._~+/]+=*`), "Bearer ***"},
		{regexp.MustCompile(`(?i)(password|passwort|api[-_]?key)(["']?\s*[:=]\s*["']?)[^\s"',}]+`), "$1$2***"},
		{regexp.MustCompile(`([A-Za-z0-9._%+-])[A-Za-z0-9._%+-]*@([A-Za-z0-9.-]+\.[A-Za-z]{2,})`), "$1***@$2"},
		{regexp.MustCompile(`postgres(ql)?://[^@\s]+@`), "postgres://***@"},
	}}
}

// RedactString applies every pattern to s.
func (r *Redactor) RedactString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range r.patterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}

// RedactAttr masks a into a loggable attribute, descending into groups.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		out := make([]any, len(group))
		for i, ga := range group {
			out[i] = r.RedactAttr(ga)
		}
		return slog.Group(a.Key, out...)
	}
	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, Mask(a.Value.String()))
	}
	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	}
	return a
}

// IsSensitiveKey reports whether values under key must always be masked.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Mask keeps at most the first four characters of a secret.
func Mask(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 8 {
		return "***"
	}
	return v[:4] + "***"
}
