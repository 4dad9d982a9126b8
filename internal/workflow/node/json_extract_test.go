package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObjectStripsCodeFence(t *testing.T) {
	in := "```json\n{\"title\": \"ok\"}\n```"
	assert.JSONEq(t, `{"title":"ok"}`, ExtractJSONObject(in))

	in = "```\n{\"title\": \"ok\"}\n```"
	assert.JSONEq(t, `{"title":"ok"}`, ExtractJSONObject(in))
}

func TestExtractJSONObjectFromSurroundingProse(t *testing.T) {
	in := "Claro! Aqui está o resultado:\n{\"a\": 1, \"b\": {\"c\": 2}}\nEspero que ajude."
	assert.JSONEq(t, `{"a":1,"b":{"c":2}}`, ExtractJSONObject(in))
}

func TestExtractJSONObjectHandlesArrays(t *testing.T) {
	in := "Os itens são: [1, 2, 3] como pedido."
	assert.JSONEq(t, `[1,2,3]`, ExtractJSONObject(in))
}

func TestExtractJSONObjectPrefersEarlierValue(t *testing.T) {
	// 对象先于数组出现时截取对象而不是后面的数组
	in := `{"items": [1, 2]} sobra de texto [9]`
	assert.JSONEq(t, `{"items":[1,2]}`, ExtractJSONObject(in))
}

func TestExtractJSONObjectNoJSONReturnsInput(t *testing.T) {
	in := "desculpe, não consegui gerar o resultado"
	assert.Equal(t, in, ExtractJSONObject(in))

	assert.Equal(t, "", ExtractJSONObject("   "))
}

func TestDecodeStrictRoundTrip(t *testing.T) {
	var v struct {
		Title string `json:"title"`
	}
	require.NoError(t, DecodeStrict(`{"title":"ok"}`, &v))
	assert.Equal(t, "ok", v.Title)
}

func TestDecodeStrictRejectsTrailingContent(t *testing.T) {
	var v map[string]any
	err := DecodeStrict(`{"a":1} {"b":2}`, &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trailing content")
}

func TestDecodeStrictRejectsMalformedInput(t *testing.T) {
	var v map[string]any
	assert.Error(t, DecodeStrict(`{"a":`, &v))
	assert.Error(t, DecodeStrict(``, &v))
}

func TestTruncateByRunesRespectsMultibyte(t *testing.T) {
	assert.Equal(t, "çã", TruncateByRunes("çãos", 2))
	assert.Equal(t, "abc", TruncateByRunes("abc", 10))
	assert.Equal(t, "", TruncateByRunes("abc", 0))
}

func TestExcerptAppendsEllipsisOnlyWhenTruncated(t *testing.T) {
	assert.Equal(t, "curto", Excerpt("  curto  ", 100))
	assert.Equal(t, "long…", Excerpt("longo demais", 4))
	assert.Equal(t, "", Excerpt("   ", 10))
}
