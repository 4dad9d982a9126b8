package node

import (
	"strings"
	"unicode/utf8"
)

// TruncateByRunes 按 Unicode 字符数截断字符串
func TruncateByRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}

// Excerpt 生成前一章节的摘要片段，限制提示词体积。
// 永远不把完整章节塞进提示词。
func Excerpt(s string, maxRunes int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	out := TruncateByRunes(s, maxRunes)
	if out != s {
		out += "…"
	}
	return out
}

// EstimateTokens 按约 4 字符 1 Token 估算。
// 仅在提供商未返回用量时作为参考值，不可用于计费。
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	n := len(s) / 4
	if n == 0 {
		n = 1
	}
	return n
}
