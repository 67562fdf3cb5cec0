// Package sanitizer маскирует персональные и секретные данные в тексте
// перед сохранением промптов и ответов модели в llm_logs.
package sanitizer

import "regexp"

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Порядок важен: сначала правила с метками (password: ..., token: ...),
// затем общие шаблоны вроде email и номеров карт.
var defaultRules = []rule{
	// пароли
	{regexp.MustCompile(`(?i)(password|пароль|passwd|pwd)\s*[:=]\s*["']?[^"'\s]{3,}["']?`), `${1}: [FILTERED]`},

	// токены и ключи
	{regexp.MustCompile(`(?i)(api[_-]?key|api[_-]?secret|secret[_-]?key|access[_-]?token|token|токен)\s*[:=]\s*["']?[a-zA-Z0-9_.-]{20,}["']?`), `${1}: [FILTERED]`},
	{regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9_.-]{20,}`), `${1}[FILTERED]`},
	{regexp.MustCompile(`\bsk-[a-zA-Z0-9_-]{20,}`), `[FILTERED]`},
	{regexp.MustCompile(`\bpk_[a-zA-Z0-9]{32,}`), `[FILTERED]`},

	// cookies и сессии
	{regexp.MustCompile(`(?i)(set-cookie|cookie|куки)\s*[:=]\s*["']?[^"'\n]{10,}["']?`), `${1}: [FILTERED]`},
	{regexp.MustCompile(`(?i)(session[_-]?id|session[_-]?token)\s*[:=]\s*["']?[a-zA-Z0-9_-]{10,}["']?`), `${1}: [FILTERED]`},

	// банковские карты
	{regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`), `[FILTERED]`},
	{regexp.MustCompile(`(?i)(cvv2?|cvc2?)\s*[:=]\s*["']?\d{3,4}["']?`), `${1}: [FILTERED]`},

	// контакты
	{regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`), `[FILTERED_EMAIL]`},
	{regexp.MustCompile(`(?i)(phone|телефон|тел\.?)\s*[:=]\s*["']?[+\d\s\-()]{7,}["']?`), `${1}: [FILTERED_PHONE]`},
	{regexp.MustCompile(`(?:\+7|\b8)\s?\(?\d{3}\)?\s?\d{3}[-.\s]?\d{2}[-.\s]?\d{2}\b`), `[FILTERED_PHONE]`},
	{regexp.MustCompile(`\+\d{1,3}[-.\s]?\(?\d{2,4}\)?[-.\s]?\d{3,4}[-.\s]?\d{3,4}\b`), `[FILTERED_PHONE]`},
}

type DataSanitizer struct {
	rules []rule
}

func New() *DataSanitizer {
	return &DataSanitizer{rules: defaultRules}
}

func (s *DataSanitizer) Sanitize(text string) string {
	if text == "" {
		return text
	}

	for _, r := range s.rules {
		text = r.pattern.ReplaceAllString(text, r.replacement)
	}
	return text
}
