package node

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ExtractJSONObject 从模型输出中截取第一个完整 JSON 对象/数组。
// 模型可能在 JSON 前后夹杂说明文字或 Markdown 代码块标记。
func ExtractJSONObject(s string) string {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return raw
	}

	// 去掉 ```json ... ``` 包裹
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx >= 0 {
			raw = raw[:idx]
		}
		raw = strings.TrimSpace(raw)
	}

	objStart := strings.Index(raw, "{")
	arrStart := strings.Index(raw, "[")
	start := -1
	end := -1
	switch {
	case objStart >= 0 && (arrStart < 0 || objStart < arrStart):
		start = objStart
		end = strings.LastIndex(raw, "}")
	case arrStart >= 0:
		start = arrStart
		end = strings.LastIndex(raw, "]")
	}
	if start >= 0 && end > start {
		raw = raw[start : end+1]
	}

	// 确保 Decoder 至少能消费到一个 JSON 起始符
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err == nil {
		if d, ok := tok.(json.Delim); ok && (d == '{' || d == '[') {
			return raw
		}
	}

	return strings.TrimSpace(s)
}

// DecodeStrict 将 JSON 文本完整解码到目标结构，尾部残留内容视为失败。
// 解码要么整体成功要么整体失败，不产出部分填充的结果。
func DecodeStrict(jsonText string, v any) error {
	dec := json.NewDecoder(strings.NewReader(jsonText))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("trailing content after json value")
	}
	return nil
}
