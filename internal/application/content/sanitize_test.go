package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeTextRemovesScriptBlocks(t *testing.T) {
	in := "Intro <script type=\"text/javascript\">alert('x')</script> outro"
	out := SanitizeText(in)

	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "alert")
	assert.Contains(t, out, "Intro")
	assert.Contains(t, out, "outro")
}

func TestSanitizeTextRemovesMultilineScript(t *testing.T) {
	in := "before\n<SCRIPT>\nvar a = 1;\nsteal(a);\n</SCRIPT>\nafter"
	out := SanitizeText(in)

	assert.NotContains(t, out, "steal")
	assert.Contains(t, out, "before")
	assert.Contains(t, out, "after")
}

func TestSanitizeTextStripsMarkupTags(t *testing.T) {
	out := SanitizeText("<p>Hello <b>world</b></p>")
	assert.Equal(t, "Hello world", out)
}

func TestSanitizeTextRemovesEventHandlers(t *testing.T) {
	cases := []string{
		`click onclick="doEvil()" here`,
		`click onmouseover='doEvil()' here`,
		`click onload=doEvil() here`,
	}
	for _, in := range cases {
		out := SanitizeText(in)
		assert.NotContains(t, out, "doEvil", "input: %s", in)
		assert.Contains(t, out, "click")
	}
}

func TestSanitizeTextRemovesJavascriptPrefix(t *testing.T) {
	out := SanitizeText("open javascript:alert(1) now")
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, "alert(1)")
}

func TestSanitizeTextTrimsWhitespace(t *testing.T) {
	assert.Equal(t, "plain text", SanitizeText("  plain text  \n"))
	assert.Equal(t, "", SanitizeText(""))
	assert.Equal(t, "", SanitizeText("<script>only()</script>"))
}

func TestSanitizeTextKeepsPlainContent(t *testing.T) {
	in := "A função quadrática f(x) = ax2 + bx + c tem vértice em x = -b/2a."
	assert.Equal(t, in, SanitizeText(in))
}

func TestSanitizeRequestCoversAllPromptFields(t *testing.T) {
	req := &ProcessRequest{
		Text:         "<b>conteúdo</b>",
		Template:     "<i>modelo</i>",
		Philosophy:   "construtivismo <script>x()</script>",
		Bibliography: []string{"<p>Freire, P.</p>", "Piaget, J."},
	}
	SanitizeRequest(req)

	assert.Equal(t, "conteúdo", req.Text)
	assert.Equal(t, "modelo", req.Template)
	assert.Equal(t, "construtivismo", req.Philosophy)
	assert.Equal(t, "Freire, P.", req.Bibliography[0])
	assert.Equal(t, "Piaget, J.", req.Bibliography[1])
}
