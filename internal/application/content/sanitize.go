package content

import (
	"regexp"
	"strings"
)

// 净化规则按顺序应用：先整块移除脚本，再剥掉其余标记
var (
	scriptBlockRe  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	markupTagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	jsPrefixRe     = regexp.MustCompile(`(?i)javascript:`)
	eventHandlerRe = regexp.MustCompile(`(?i)\bon[a-z]+\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
)

// SanitizeText 净化自由文本，纯 string → string 变换。
// 移除脚本块、标记标签、javascript: 前缀与内联事件处理器。
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	s = scriptBlockRe.ReplaceAllString(s, "")
	s = eventHandlerRe.ReplaceAllString(s, "")
	s = markupTagRe.ReplaceAllString(s, "")
	s = jsPrefixRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// SanitizeRequest 对请求中所有会进入提示词的文本做净化
func SanitizeRequest(req *ProcessRequest) {
	req.Text = SanitizeText(req.Text)
	req.Template = SanitizeText(req.Template)
	req.Philosophy = SanitizeText(req.Philosophy)
	for i := range req.Bibliography {
		req.Bibliography[i] = SanitizeText(req.Bibliography[i])
	}
}
