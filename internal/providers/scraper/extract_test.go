package scraper

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juan-materiarun/quartz-ai/internal/domain/audit"
)

func richPage() string {
	var sb strings.Builder
	sb.WriteString(`<!doctype html><html><head>
<meta charset="utf-8">
<meta name="description" content="Handmade leather goods">
<script>window.dataLayer = [];</script>
<script src="https://cdn.example.com/app.js"></script>
<style>body { color: red }</style>
</head><body>
<h1>Leather &amp; Co</h1>
<p>Free shipping on all orders over fifty dollars.</p>
<a href="/cart">View <b>cart</b></a>
<a href="/empty"></a>
<form action="/login" method="post"><label>Email</label><input type="email" name="email"><button>Sign in</button></form>
<input type="hidden" name="csrf" value="abc">
<p>ok</p>
`)
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, "<p>Customer review number %d says the wallet is excellent.</p>\n", i)
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

func TestExtractStructuredPasses(t *testing.T) {
	out, err := NewExtractor().Extract(richPage())
	require.NoError(t, err)
	assert.False(t, out.Fallback)
	assert.False(t, out.Truncated)

	text := out.Text
	assert.Contains(t, text, "[SCRIPT]\nwindow.dataLayer = [];\n[/SCRIPT]")
	assert.Contains(t, text, `[META] <meta name="description" content="Handmade leather goods"/>`)
	assert.Contains(t, text, "[LINK] View cart -> /cart")
	assert.NotContains(t, text, "-> /empty")
	assert.Contains(t, text, "[FORM]\n<form action=\"/login\" method=\"post\">")
	assert.Contains(t, text, `[INPUT] <input type="hidden" name="csrf" value="abc"/>`)
	assert.Contains(t, text, "[H1] Leather & Co")
	assert.Contains(t, text, "[P] Free shipping on all orders over fifty dollars.")
	assert.Contains(t, text, "[LABEL] Email")
	assert.Contains(t, text, "[BUTTON] Sign in")
	assert.NotContains(t, text, "[P] ok")
	assert.NotContains(t, text, "color: red")

	assert.Equal(t, 1, out.Stats.Scripts)
	assert.Equal(t, 2, out.Stats.Metas)
	assert.Equal(t, 1, out.Stats.Links)
	assert.Equal(t, 1, out.Stats.Forms)
	assert.Equal(t, 2, out.Stats.Inputs)
}

func TestExtractPassOrder(t *testing.T) {
	out, err := NewExtractor().Extract(richPage())
	require.NoError(t, err)

	order := []string{"[SCRIPT]", "[META]", "[LINK]", "[FORM]", "[INPUT]", "[H1]"}
	last := -1
	for _, tag := range order {
		idx := strings.Index(out.Text, tag)
		require.GreaterOrEqual(t, idx, 0, tag)
		assert.Greater(t, idx, last, tag)
		last = idx
	}
}

func TestExtractScriptCaps(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><head>")
	sb.WriteString("<script>" + strings.Repeat("x", MaxScriptChars+1) + "</script>")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&sb, "<script>var s%d = %d;</script>", i, i)
	}
	sb.WriteString("</head><body>")
	sb.WriteString(strings.Repeat("<p>Plenty of paragraph text for the structured passes.</p>", 12))
	sb.WriteString("</body></html>")

	out, err := NewExtractor().Extract(sb.String())
	require.NoError(t, err)

	// The oversized script occupies one of the ten slots
	assert.Equal(t, MaxScripts-1, out.Stats.Scripts)
	assert.Contains(t, out.Text, "var s8 = 8;")
	assert.NotContains(t, out.Text, "var s9 = 9;")
	assert.NotContains(t, out.Text, strings.Repeat("x", 100))
}

func TestExtractLinkCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < MaxLinks+20; i++ {
		fmt.Fprintf(&sb, `<a href="/p/%d">Product %d</a>`, i, i)
	}
	sb.WriteString("</body></html>")

	out, err := NewExtractor().Extract(sb.String())
	require.NoError(t, err)
	assert.Equal(t, MaxLinks, out.Stats.Links)
	assert.Contains(t, out.Text, "[LINK] Product 49 -> /p/49")
	assert.NotContains(t, out.Text, "/p/50")
}

func TestExtractFallback(t *testing.T) {
	raw := `<html><head><style>.x{}</style><script>track()</script></head>
<body><!-- hidden note --><div class="hero"><span>Sparse markup only</span></div></body></html>`

	out, err := NewExtractor().Extract(raw)
	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.True(t, strings.HasPrefix(out.Text, "[HTML CONTENT]\n"))
	assert.True(t, strings.HasSuffix(out.Text, "\n[/HTML CONTENT]"))
	assert.Contains(t, out.Text, "Sparse markup only")
	assert.NotContains(t, out.Text, "track()")
	assert.NotContains(t, out.Text, ".x{}")
	assert.NotContains(t, out.Text, "hidden note")
}

func TestExtractFallbackTruncated(t *testing.T) {
	raw := "<html><body><div>" + strings.Repeat("é", MaxFallbackChars*2) + "</div></body></html>"

	out, err := NewExtractor().Extract(raw)
	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.True(t, out.Truncated)
	assert.LessOrEqual(t, utf8.RuneCountInString(out.Text), MaxFallbackChars+len("[HTML CONTENT]\n\n[/HTML CONTENT]"))
	assert.True(t, utf8.ValidString(out.Text))
}

func TestExtractHardCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 2500; i++ {
		sb.WriteString("<p>Ñandú paragraph that keeps going and going for the cap.</p>")
	}
	sb.WriteString("</body></html>")

	out, err := NewExtractor().Extract(sb.String())
	require.NoError(t, err)
	assert.True(t, out.Truncated)
	assert.Equal(t, MaxContentChars, utf8.RuneCountInString(out.Text))
	assert.True(t, utf8.ValidString(out.Text))
}

func TestExtractTextEmptyContent(t *testing.T) {
	// A client-rendered shell has nothing to audit
	raw := `<html><head><script src="/bundle.js"></script></head><body><div id="root"></div></body></html>`

	_, _, err := NewExtractor().ExtractText(raw)
	require.ErrorIs(t, err, audit.ErrEmptyContent)
	assert.Equal(t, 400, audit.StatusCode(err))
}

func TestExtractMarkupOnlyPage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "nested empty elements",
			raw: `<!doctype html><html lang="en"><head><link rel="stylesheet" href="/app.css">` +
				`<style>.hero { display: grid; gap: 2rem }</style></head><body>` +
				strings.Repeat(`<div class="row"><span class="cell"></span><img src="/pixel.gif" alt=""></div>`, 8) +
				`</body></html>`,
		},
		{
			name: "comments and external scripts",
			raw: `<html><head><script src="/vendor.js"></script><script src="/bundle.js"></script></head>` +
				`<body><!-- rendered client side --><div id="root" data-page="home"></div>` +
				`<noscript></noscript><!-- analytics placeholder --></body></html>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Greater(t, len(tt.raw), 100)

			out, err := NewExtractor().Extract(tt.raw)
			require.NoError(t, err)
			assert.True(t, out.Fallback)
			assert.Empty(t, out.Text)
			assert.NotContains(t, out.Text, TagFallback)

			_, _, err = NewExtractor().ExtractText(tt.raw)
			require.ErrorIs(t, err, audit.ErrEmptyContent)
			assert.Equal(t, 400, audit.StatusCode(err))
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	e := NewExtractor()
	a, err := e.Extract(richPage())
	require.NoError(t, err)
	b, err := e.Extract(richPage())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestValidateHTML(t *testing.T) {
	assert.NoError(t, ValidateHTML("<p>x</p>"))
	assert.Error(t, ValidateHTML(strings.Repeat("a", MaxHTMLSize+1)))
}
