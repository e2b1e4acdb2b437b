package normalisers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

type fakeNormaliser struct {
	types    []string
	priority int
}

func (f *fakeNormaliser) Normalise(content string, mimeType string) string { return content }
func (f *fakeNormaliser) SupportedTypes() []string                        { return f.types }
func (f *fakeNormaliser) Priority() int                                   { return f.priority }

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("text/plain"))

	generic := &fakeNormaliser{types: []string{"text/*"}, priority: 10}
	specific := &fakeNormaliser{types: []string{"text/csv"}, priority: 60}
	r.Register(generic)
	r.Register(specific)

	assert.Same(t, specific, r.Get("text/csv"))
	assert.Same(t, specific, r.Get("TEXT/CSV; charset=utf-8"))
	assert.Same(t, generic, r.Get("text/plain"))
	assert.Nil(t, r.Get("application/pdf"))
}

func TestRegistry_TieKeepsFirstRegistered(t *testing.T) {
	r := NewRegistry()
	first := &fakeNormaliser{types: []string{"*/*"}, priority: 5}
	second := &fakeNormaliser{types: []string{"*/*"}, priority: 5}
	r.Register(first)
	r.Register(second)

	assert.Same(t, first, r.Get("anything/else"))
}

func TestRegistry_List(t *testing.T) {
	r := DefaultRegistry()
	types := r.List()

	assert.Contains(t, types, "text/html")
	assert.Contains(t, types, "text/markdown")
	assert.Contains(t, types, "*/*")
	assert.IsIncreasing(t, types)
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	assert.IsType(t, &HTMLNormaliser{}, r.Get("text/html"))
	assert.IsType(t, &MarkdownNormaliser{}, r.Get("text/markdown"))
	assert.IsType(t, &PlaintextNormaliser{}, r.Get("text/plain"))
	assert.IsType(t, &PlaintextNormaliser{}, r.Get("application/octet-stream"))
}

func TestMIMETypeForName(t *testing.T) {
	tests := map[string]string{
		"essay.md":        "text/markdown",
		"page.HTML":       "text/html",
		"notes.txt":       "text/plain",
		"no-extension":    "text/plain",
		"readme.markdown": "text/markdown",
	}
	for name, want := range tests {
		assert.Equal(t, want, MIMETypeForName(name), name)
	}
}

func TestPlaintextNormaliser(t *testing.T) {
	n := &PlaintextNormaliser{}

	assert.Equal(t, "a\nb", n.Normalise("\ufeff  a\r\nb  ", "text/plain"))
	assert.Equal(t, "ab", n.Normalise("a\x00b", "text/plain"))
	assert.Equal(t, "ab", n.Normalise("a\xffb", "text/plain"))
	assert.Equal(t, "tab\there", n.Normalise("tab\there", "text/plain"))
}

func TestMarkdownNormaliser(t *testing.T) {
	n := &MarkdownNormaliser{}
	in := "# Title\n\nSome **bold** and _italic_ text with a [link](https://x.y).\n\n" +
		"- item one\n- item two\n\n> quoted\n\n---\n\n```go\nfmt.Println(\"hi\")\n```\n\n" +
		"Inline `code` and ![alt](img.png) and snake_case_name."

	out := n.Normalise(in, "text/markdown")

	assert.Contains(t, out, "Title")
	assert.NotContains(t, out, "#")
	assert.Contains(t, out, "Some bold and italic text with a link.")
	assert.Contains(t, out, "item one")
	assert.Contains(t, out, "quoted")
	assert.NotContains(t, out, "```")
	assert.NotContains(t, out, "---")
	assert.Contains(t, out, `fmt.Println("hi")`)
	assert.Contains(t, out, "Inline code and alt and snake_case_name.")
}

func TestHTMLNormaliser(t *testing.T) {
	n := &HTMLNormaliser{}
	in := `<html><head><title>T</title><style>p{color:red}</style></head>
<body><script>alert("x")</script><h1>Heading</h1><p>First &amp; second&nbsp;para.</p>
<div>Block <b>bold</b> text</div><br/><ul><li>one</li><li>two</li></ul></body></html>`

	out := n.Normalise(in, "text/html")

	assert.NotContains(t, out, "alert")
	assert.NotContains(t, out, "color:red")
	assert.NotContains(t, out, "<")
	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "First & second para.")
	assert.Contains(t, out, "Block bold text")
	assert.Contains(t, out, "one\n\ntwo")
}

func TestHTMLNormaliser_Malformed(t *testing.T) {
	n := &HTMLNormaliser{}
	out := n.Normalise("<p>unclosed <b>tags <i>everywhere", "text/html")
	assert.Equal(t, "unclosed tags everywhere", out)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.NormaliserRegistry = NewRegistry()
	for _, n := range []driven.Normaliser{&PlaintextNormaliser{}, &MarkdownNormaliser{}, &HTMLNormaliser{}} {
		require.NotEmpty(t, n.SupportedTypes())
	}
}
